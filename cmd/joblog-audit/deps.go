package main

import (
	"fmt"
	"log/slog"

	"joblog-audit/internal/momentum"
	"joblog-audit/internal/platform/config"
	"joblog-audit/internal/platform/database"
	"joblog-audit/internal/platform/kafka/producer"
	"joblog-audit/internal/platform/logger"
	"joblog-audit/internal/reporting"
	"joblog-audit/internal/tracking"
	"joblog-audit/internal/workqueue"
)

// deps bundles the external collaborators both subcommands share. Business
// logic lives in the internal packages; this file only wires them.
type deps struct {
	cfg      config.Config
	log      *slog.Logger
	client   *momentum.Client
	pool     *database.Pool
	queue    workqueue.Store
	tracker  tracking.Tracker
	reporter reporting.Reporter
	producer *producer.Producer
}

func buildDeps() (*deps, error) {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.New()

	client, err := momentum.New(momentum.Config{
		BaseURL:      cfg.MomentumBaseURL,
		ClientID:     cfg.MomentumClientID,
		ClientSecret: cfg.MomentumClientSecret,
		APIKey:       cfg.MomentumAPIKey,
		Resource:     cfg.MomentumResource,
		Timeout:      cfg.MomentumTimeout,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("momentum client: %w", err)
	}

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	d := &deps{
		cfg:      cfg,
		log:      log,
		client:   client,
		pool:     pool,
		queue:    workqueue.NewPostgres(pool.DB()),
		tracker:  tracking.NewPostgres(pool.DB()),
		reporter: reporting.Noop{},
	}

	if cfg.KafkaBrokers != "" {
		prod, err := producer.New(producer.Config{
			Brokers: cfg.KafkaBrokers,
			Retries: 3,
		}, log)
		if err != nil {
			pool.Close() //nolint:errcheck
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		d.producer = prod
		d.reporter = reporting.NewKafka(prod, cfg.ReportTopic, log)
	} else {
		log.Warn("no kafka brokers configured, reports will be discarded")
	}

	return d, nil
}

func (d *deps) Close() {
	if d.producer != nil {
		if err := d.producer.Close(); err != nil {
			d.log.Warn("closing kafka producer", "error", err)
		}
	}
	if err := d.pool.Close(); err != nil {
		d.log.Warn("closing database pool", "error", err)
	}
}
