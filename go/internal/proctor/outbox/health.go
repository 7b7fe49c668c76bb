package outbox

import (
	"fmt"
)

type HealthStatus struct {
	Healthy       bool     `json:"healthy"`
	WorkerRunning bool     `json:"worker_running"`
	NATSEnabled   bool     `json:"nats_enabled"`
	NATSConnected bool     `json:"nats_connected"`
	Stats         Stats    `json:"stats"`
	Errors        []string `json:"errors"`
}

// HealthChecker reports on the outbox worker and its broker connection.
type HealthChecker struct {
	worker *Worker
	nats   *JetStreamPublisher
	// maxPending is the queue depth above which the outbox is degraded.
	maxPending int
}

// NewHealthChecker creates a checker. nats may be nil when the bus is off.
func NewHealthChecker(worker *Worker, nats *JetStreamPublisher, maxPending int) *HealthChecker {
	return &HealthChecker{worker: worker, nats: nats, maxPending: maxPending}
}

func (h *HealthChecker) Check() HealthStatus {
	status := HealthStatus{
		Healthy:       true,
		WorkerRunning: h.worker.Running(),
		Stats:         h.worker.Stats(),
		Errors:        []string{},
	}

	if !status.WorkerRunning {
		status.Healthy = false
		status.Errors = append(status.Errors, "outbox worker not running")
	}

	if h.nats != nil {
		status.NATSEnabled = true
		status.NATSConnected = h.nats.Connected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	if h.maxPending > 0 && status.Stats.Pending > h.maxPending {
		status.Errors = append(status.Errors, fmt.Sprintf("high pending event count: %d", status.Stats.Pending))
	}
	return status
}
