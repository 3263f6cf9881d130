package internal

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration, sourced from the environment
// (optionally seeded from a .env file in development).
type Config struct {
	Env         string `mapstructure:"BSS_ENV"`
	LogLevel    string `mapstructure:"BSS_LOG_LEVEL"`
	Port        uint16 `mapstructure:"BSS_PORT"`
	DatabaseURL string `mapstructure:"BSS_DATABASE_URL"`
	NatsURL     string `mapstructure:"BSS_NATS_URL"`

	Worker WorkerConfig `mapstructure:",squash"`
}

// WorkerConfig tunes the subscription renewal worker.
type WorkerConfig struct {
	// PollInterval is how often the worker scans for due subscriptions.
	PollInterval time.Duration `mapstructure:"BSS_WORKER_POLL_INTERVAL"`

	// MaxConcurrency bounds how many renewals run at once.
	MaxConcurrency int `mapstructure:"BSS_WORKER_MAX_CONCURRENCY"`

	// RenewPastDue also renews subscriptions whose billing date has already
	// passed, not just the ones due today. Whether "due" means exactly today
	// or today-or-earlier is deployment policy, so it lives here and not in
	// the domain.
	RenewPastDue bool `mapstructure:"BSS_WORKER_RENEW_PAST_DUE"`
}

// NewConfig loads configuration from the environment.
func NewConfig() (*Config, error) {
	// Best effort: a missing .env is fine outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("BSS_ENV", "dev")
	v.SetDefault("BSS_LOG_LEVEL", "info")
	v.SetDefault("BSS_PORT", 8080)
	v.SetDefault("BSS_NATS_URL", "nats://localhost:4222")
	v.SetDefault("BSS_WORKER_POLL_INTERVAL", time.Minute)
	v.SetDefault("BSS_WORKER_MAX_CONCURRENCY", 5)
	v.SetDefault("BSS_WORKER_RENEW_PAST_DUE", true)
	v.AutomaticEnv()

	// Unmarshal only sees keys viper knows about; the one required key has
	// no default, so bind it explicitly.
	_ = v.BindEnv("BSS_DATABASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("BSS_DATABASE_URL is required")
	}

	return &cfg, nil
}
