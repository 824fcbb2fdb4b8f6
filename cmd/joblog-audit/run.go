package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"joblog-audit/internal/audit"
	auditmetrics "joblog-audit/internal/audit/metrics"
	"joblog-audit/internal/platform/health"
	"joblog-audit/internal/worker"
	"joblog-audit/internal/workqueue"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drain the audit workqueue",
	Long: `Processes queued citizens one at a time until the queue is empty. While
running, an ops listener serves health probes and Prometheus metrics.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	metrics := auditmetrics.New()

	service, err := audit.New(d.client, d.tracker, d.reporter,
		audit.WithLogger(d.log),
		audit.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}
	runner, err := worker.New(d.client, d.queue, service,
		worker.WithLogger(d.log),
		worker.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}

	healthHandler := health.New(d.cfg.Environment)
	healthHandler.RegisterCheck("database", func() error {
		checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return d.pool.Health(checkCtx)
	})
	healthHandler.RegisterCheck("momentum", func() error {
		checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return d.client.Health(checkCtx)
	})
	if d.producer != nil {
		healthHandler.RegisterCheck("kafka", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if !d.producer.Healthy(checkCtx) {
				return errors.New("kafka brokers unreachable")
			}
			return nil
		})
	}

	router := chi.NewRouter()
	healthHandler.Register(router)
	router.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: d.cfg.OpsAddr, Handler: router}

	pending, err := d.queue.CountByStatus(ctx, workqueue.StatusPending)
	if err != nil {
		return err
	}
	d.log.Info("starting audit run", "pending", pending)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.log.Info("ops listener starting", "addr", d.cfg.OpsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				d.log.Warn("ops listener shutdown", "error", err)
			}
		}()
		return runner.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	d.log.Info("audit run finished")
	return nil
}
