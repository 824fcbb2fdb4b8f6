package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config captures everything the worker needs from the environment: the
// Momentum API credential set, the queue/tracking database, the reporting
// brokers and the ops listener.
type Config struct {
	MomentumBaseURL      string `validate:"required,url"`
	MomentumClientID     string `validate:"required"`
	MomentumClientSecret string `validate:"required"`
	MomentumAPIKey       string `validate:"required"`
	MomentumResource     string `validate:"required"`
	MomentumTimeout      time.Duration

	DatabaseURL string `validate:"required"`

	// KafkaBrokers is optional; empty disables the reporting sink.
	KafkaBrokers string
	ReportTopic  string

	OpsAddr     string
	Environment string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		MomentumBaseURL:      os.Getenv("MOMENTUM_BASE_URL"),
		MomentumClientID:     os.Getenv("MOMENTUM_CLIENT_ID"),
		MomentumClientSecret: os.Getenv("MOMENTUM_CLIENT_SECRET"),
		MomentumAPIKey:       os.Getenv("MOMENTUM_API_KEY"),
		MomentumResource:     os.Getenv("MOMENTUM_RESOURCE"),
		MomentumTimeout:      30 * time.Second,
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		KafkaBrokers:         os.Getenv("KAFKA_BROKERS"),
		ReportTopic:          os.Getenv("REPORT_TOPIC"),
		OpsAddr:              os.Getenv("OPS_ADDR"),
		Environment:          os.Getenv("ENVIRONMENT"),
	}

	if v := os.Getenv("MOMENTUM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.MomentumTimeout = d
		}
	}
	if cfg.ReportTopic == "" {
		cfg.ReportTopic = "joblog-audit.reports"
	}
	if cfg.OpsAddr == "" {
		cfg.OpsAddr = ":9090"
	}
	if cfg.Environment == "" {
		cfg.Environment = "production"
	}

	return cfg
}

// Validate checks required fields and URL shapes.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
