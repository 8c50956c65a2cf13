// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Redis holds the action queue settings shared by the server and the historian.
type Redis struct {
	Addr      string `env:"REDIS_ADDR"`
	DB        int    `env:"REDIS_DB" envDefault:"0"`
	QueueName string `env:"HISTORIAN_QUEUE_NAME" envDefault:"doppelkopf_actions"`
}

// Server configures cmd/server.
type Server struct {
	Port              int    `env:"PORT" envDefault:"8080"`
	Storage           string `env:"STORAGE" envDefault:"memory"`
	DatabaseURL       string `env:"DATABASE_URL"`
	TokenExpireTime   string `env:"TOKEN_EXPIRE_TIME" envDefault:"72h"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	DefaultRoundLimit int    `env:"DEFAULT_ROUND_LIMIT" envDefault:"0"`
	Redis             Redis
}

// Historian configures cmd/historian.
type Historian struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	BatchSize   int    `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	FlushMs     int    `env:"HISTORIAN_FLUSH_MS" envDefault:"500"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Redis       Redis
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServer reads and validates the server configuration.
func LoadServer() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return Server{}, err
	}
	switch cfg.Storage {
	case StorageMemory:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return Server{}, fmt.Errorf("DATABASE_URL is required for %s storage", cfg.Storage)
		}
	default:
		return Server{}, fmt.Errorf("unknown STORAGE %q", cfg.Storage)
	}
	if cfg.DefaultRoundLimit < 0 {
		return Server{}, fmt.Errorf("DEFAULT_ROUND_LIMIT must not be negative")
	}
	if _, err := cfg.TokenTTL(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// LoadHistorian reads and validates the historian configuration.
func LoadHistorian() (Historian, error) {
	var cfg Historian
	if err := ParseEnv(&cfg); err != nil {
		return Historian{}, err
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.BatchSize <= 0 {
		return Historian{}, fmt.Errorf("HISTORIAN_BATCH_SIZE must be positive")
	}
	return cfg, nil
}

// TokenTTL returns the session lifetime; zero means tokens never expire.
func (s Server) TokenTTL() (time.Duration, error) {
	switch s.TokenExpireTime {
	case "", "0", "never":
		return 0, nil
	}
	d, err := time.ParseDuration(s.TokenExpireTime)
	if err != nil {
		return 0, fmt.Errorf("parse TOKEN_EXPIRE_TIME: %w", err)
	}
	return d, nil
}

func (h Historian) FlushDelay() time.Duration {
	return time.Duration(h.FlushMs) * time.Millisecond
}

// ParseLevel turns a LOG_LEVEL value into a logrus level, defaulting to info.
func ParseLevel(s string) logrus.Level {
	lvl, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
