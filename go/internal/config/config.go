// Package config reads process settings from the environment and the seed
// file from YAML.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds the settings of the proctor server.
type Config struct {
	Port     string
	LogLevel string
	SeedPath string

	NATSURL           string
	NATSStream        string
	NATSSubjectPrefix string
	// MonitorViaBus feeds admin monitors from the JetStream consumer instead
	// of in-process fan-out.
	MonitorViaBus bool

	IdleThreshold    time.Duration
	NotificationTTL  time.Duration
	SimulatedLatency bool
}

// Load reads .env if present, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}
	return FromEnv()
}

// FromEnv reads the environment with defaults.
func FromEnv() Config {
	return Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		SeedPath:          getEnv("PROCTOR_SEED", "seed.yaml"),
		NATSURL:           getEnv("NATS_URL", ""),
		NATSStream:        getEnv("NATS_STREAM", "PROCTOR_EVENTS"),
		NATSSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "proctor.events"),
		MonitorViaBus:     getEnvAsBool("MONITOR_VIA_BUS", false),
		IdleThreshold:     time.Duration(getEnvAsInt("IDLE_THRESHOLD_SEC", 300)) * time.Second,
		NotificationTTL:   time.Duration(getEnvAsInt("NOTIFICATION_TTL_SEC", 5)) * time.Second,
		SimulatedLatency:  getEnvAsBool("SIMULATED_LATENCY", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring invalid integer setting")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring invalid boolean setting")
	}
	return defaultValue
}
