package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/proctor/go/internal/config"
	"github.com/mcdev12/proctor/go/internal/contest"
	"github.com/mcdev12/proctor/go/internal/editor"
	"github.com/mcdev12/proctor/go/internal/latency"
	"github.com/mcdev12/proctor/go/internal/monitoring"
	"github.com/mcdev12/proctor/go/internal/proctor/events"
	"github.com/mcdev12/proctor/go/internal/proctor/gateway"
	"github.com/mcdev12/proctor/go/internal/proctor/outbox"
	"github.com/mcdev12/proctor/go/internal/proctor/session"
	"github.com/mcdev12/proctor/go/internal/questions"
	"github.com/mcdev12/proctor/go/internal/students"
	"github.com/mcdev12/proctor/go/internal/submissions"
)

type Services struct {
	Contest     *contest.Service
	Students    *students.Service
	Questions   *questions.Service
	Submissions *submissions.Service
	Monitoring  *monitoring.Service
	Editor      *editor.Service

	Export  http.Handler
	Gateway *gateway.WebSocketHandler
	Health  *outbox.HealthChecker

	sessions *session.Manager
	worker   *outbox.Worker
	bus      *outbox.JetStreamPublisher
	consumer *gateway.EventConsumer
}

func setupServices(ctx context.Context, cfg config.Config, seed *config.Seed) (*Services, error) {
	// Wire up dependency injection chain
	// Repository layer → App layer → Service layer
	clock := clockwork.NewRealClock()
	sim := latency.New(clock, cfg.SimulatedLatency)
	s := &Services{}

	// Live sockets
	cm := gateway.NewConnectionManager(connectionConfig(cfg), clock)
	go cm.Start(ctx)

	// Durable events go to JetStream when configured, otherwise to the log
	var durable events.Publisher = outbox.NewLogPublisher(log.Logger, zerolog.DebugLevel)
	if cfg.NATSURL != "" {
		bus, err := outbox.NewJetStreamPublisher(ctx, jetStreamConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream publisher: %w", err)
		}
		s.bus = bus
		durable = outbox.NewFilter(bus, outbox.DurableTypes...)
	}
	s.worker = outbox.NewWorker(durable, outbox.DefaultConfig(), clock)
	if err := s.worker.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start outbox worker: %w", err)
	}
	s.Health = outbox.NewHealthChecker(s.worker, s.bus, maxPendingEvents)

	if cfg.MonitorViaBus && s.bus != nil {
		consumer, err := gateway.NewEventConsumer(ctx, cm, consumerConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to create event consumer: %w", err)
		}
		s.consumer = consumer
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer failed")
			}
		}()
	}

	// Sessions
	s.sessions = session.NewManager(clock, sessionConfig(cfg, seed), outbox.Fanout{cm, s.worker})

	// Questions
	questionsApp := questions.NewApp(questions.NewRepository(seed.Questions))
	s.Questions = questions.NewService(questionsApp)

	// Students
	studentsApp := students.NewApp(
		students.NewRepository(seed.Students), questionsApp, s.sessions, clock, sim,
		rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	)
	s.Students = students.NewService(studentsApp)

	// Contest
	contestRepo := contest.NewRepository(seed.ContestSettings(clock.Now()), seed.Admins)
	contestApp := contest.NewApp(contestRepo, studentsApp, s.sessions, clock, sim)
	contestApp.AddEndTimeListener(s.sessions)
	s.Contest = contest.NewService(contestApp)

	// Submissions
	submissionsApp := submissions.NewApp(
		submissions.NewRepository(), s.sessions, studentsApp, questionsApp, clock, sim,
		rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	)
	s.sessions.SetAutoSubmitter(submissionsApp)
	s.Submissions = submissions.NewService(submissionsApp)
	s.Export = submissions.NewExportHandler(submissionsApp)

	// Admin monitoring and editor buffer
	s.Monitoring = monitoring.NewService(s.sessions)
	s.Editor = editor.NewService(s.sessions)
	s.Gateway = gateway.NewWebSocketHandler(cm, s.sessions)

	return s, nil
}

// Close ends every session, then flushes and disconnects the event sinks.
func (s *Services) Close() {
	s.sessions.Shutdown()
	if err := s.worker.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop outbox worker")
	}
	if s.consumer != nil {
		if err := s.consumer.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop event consumer")
		}
	}
	if s.bus != nil {
		if err := s.bus.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close JetStream publisher")
		}
	}
}
