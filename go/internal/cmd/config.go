package main

import (
	"github.com/mcdev12/proctor/go/internal/config"
	"github.com/mcdev12/proctor/go/internal/proctor/gateway"
	"github.com/mcdev12/proctor/go/internal/proctor/outbox"
	"github.com/mcdev12/proctor/go/internal/proctor/session"
)

// maxPendingEvents marks the outbox degraded in /health.
const maxPendingEvents = 500

func sessionConfig(cfg config.Config, seed *config.Seed) session.Config {
	sc := session.DefaultConfig()
	sc.IdleThreshold = cfg.IdleThreshold
	sc.NotificationTTL = cfg.NotificationTTL
	sc.Templates = seed.EditorTemplates()
	return sc
}

func jetStreamConfig(cfg config.Config) outbox.JetStreamConfig {
	js := outbox.DefaultJetStreamConfig()
	js.URL = cfg.NATSURL
	js.StreamName = cfg.NATSStream
	js.SubjectPrefix = cfg.NATSSubjectPrefix
	return js
}

func consumerConfig(cfg config.Config) gateway.JetStreamConsumerConfig {
	cc := gateway.DefaultJetStreamConsumerConfig()
	cc.URL = cfg.NATSURL
	cc.StreamName = cfg.NATSStream
	cc.SubjectFilter = cfg.NATSSubjectPrefix + ".>"
	return cc
}

func connectionConfig(cfg config.Config) gateway.ConnectionConfig {
	cc := gateway.DefaultConnectionConfig()
	cc.MonitorViaBus = cfg.MonitorViaBus && cfg.NATSURL != ""
	return cc
}
