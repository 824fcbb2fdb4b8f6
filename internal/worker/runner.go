// Package worker drives the audit: it populates the workqueue from the
// Momentum citizen directory and drains it one citizen at a time, isolating
// every failure to its own work item.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"joblog-audit/internal/audit"
	auditmetrics "joblog-audit/internal/audit/metrics"
	"joblog-audit/internal/momentum"
	"joblog-audit/internal/sentinel"
	"joblog-audit/internal/workqueue"
	dErrors "joblog-audit/pkg/domain-errors"
)

// Directory is the slice of the Momentum client the runner itself needs;
// everything else goes through the audit service.
type Directory interface {
	SearchCitizens(ctx context.Context, filters []momentum.SearchFilter) ([]momentum.Citizen, error)
	GetCitizen(ctx context.Context, cpr string) (*momentum.Citizen, error)
}

// Runner owns the populate and process loops.
type Runner struct {
	directory Directory
	queue     workqueue.Store
	service   *audit.Service
	logger    *slog.Logger
	metrics   *auditmetrics.Metrics
	now       func() time.Time
}

type Option func(r *Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

func WithMetrics(m *auditmetrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithClock pins the clock used for the month-start cutoff in Populate.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

func New(directory Directory, queue workqueue.Store, service *audit.Service, opts ...Option) (*Runner, error) {
	if directory == nil {
		return nil, fmt.Errorf("citizen directory is required")
	}
	if queue == nil {
		return nil, fmt.Errorf("workqueue store is required")
	}
	if service == nil {
		return nil, fmt.Errorf("audit service is required")
	}
	r := &Runner{
		directory: directory,
		queue:     queue,
		service:   service,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func strPtr(s string) *string { return &s }

// targetFilters selects the citizens in scope for the audit: the two
// jobcenter target groups, the participating caseworker teams, and no
// absence that suspends the joblog duty. These values are jobcenter
// configuration, fixed per deployment.
func targetFilters() []momentum.SearchFilter {
	return []momentum.SearchFilter{
		{
			FieldName: "targetGroupCode",
			Values:    []*string{strPtr("INT-KP"), strPtr("6.2")},
		},
		{
			FieldName: "primaryCaseworkerTeamId",
			Values: []*string{
				strPtr(""),
				strPtr("b345ab13-e8b8-409f-b87b-6925268472de"),
				strPtr("80180c8c-5863-40ae-a85b-e14d33597e6a"),
				strPtr("c58e4d9f-af8e-4553-a3d0-c2b102cc33c2"),
			},
		},
		{
			CustomFilter: "exclude",
			FieldName:    "absences",
			Values: []*string{
				nil, nil, nil, nil,
				strPtr(""),
				strPtr("ABSENCE_BARSEL"),
				strPtr("ABSENCE_FRITAGELSE_FOR_JOBLOG"),
			},
		},
	}
}

// Populate fills the queue with every in-scope citizen not already completed
// since the start of the current month. Citizens queue by CPR reference; the
// audit window makes a second completed pass within one month redundant.
func (r *Runner) Populate(ctx context.Context) (int, error) {
	citizens, err := r.directory.SearchCitizens(ctx, targetFilters())
	if err != nil {
		return 0, fmt.Errorf("search citizens: %w", err)
	}

	now := r.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	added := 0
	for _, citizen := range citizens {
		completed, err := r.queue.FindByReference(ctx, citizen.CPR, workqueue.StatusCompleted)
		if err != nil {
			return added, fmt.Errorf("check completed items for %s: %w", citizen.CPR, err)
		}

		alreadyDone := false
		for _, item := range completed {
			if item.UpdatedAt.After(monthStart) {
				alreadyDone = true
				break
			}
		}
		if alreadyDone {
			continue
		}

		if _, err := r.queue.Add(ctx, citizen.CPR); err != nil {
			return added, fmt.Errorf("enqueue citizen %s: %w", citizen.CPR, err)
		}
		added++
	}

	r.logger.Info("workqueue populated",
		"candidates", len(citizens),
		"enqueued", added,
	)
	return added, nil
}

// Run drains the queue. Per-item failures mark that item failed for manual
// review and the loop continues; only queue-store failures abort the run.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		item, err := r.queue.NextPending(ctx)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				r.logger.Info("workqueue drained")
				return nil
			}
			return fmt.Errorf("claim next work item: %w", err)
		}

		start := time.Now()
		if err := r.processItem(ctx, item); err != nil {
			r.logger.Error("error processing work item",
				"reference", item.Reference,
				"error", err,
			)
			if r.metrics != nil {
				r.metrics.SoftFailures.Inc()
			}
			if failErr := r.queue.MarkFailed(ctx, item.ID, err.Error()); failErr != nil {
				return fmt.Errorf("mark work item failed: %w", failErr)
			}
		} else {
			if doneErr := r.queue.MarkCompleted(ctx, item.ID); doneErr != nil {
				return fmt.Errorf("mark work item completed: %w", doneErr)
			}
		}
		if r.metrics != nil {
			r.metrics.ObserveCitizen(start)
		}
	}
}

// processItem runs one citizen through the audit pipeline, short-circuiting
// on exemption and on indeterminate requirements.
func (r *Runner) processItem(ctx context.Context, item *workqueue.WorkItem) error {
	citizen, err := r.directory.GetCitizen(ctx, item.Reference)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound,
				fmt.Sprintf("citizen with CPR %s not found in Momentum", item.Reference))
		}
		return dErrors.Wrap(err, dErrors.CodeTransient,
			fmt.Sprintf("citizen fetch failed for CPR %s", item.Reference))
	}

	exempt, err := r.service.IsExempt(ctx, citizen)
	if err != nil {
		return err
	}
	if exempt {
		return nil
	}

	requirement, err := r.service.ResolveRequirement(ctx, citizen)
	if err != nil {
		return err
	}
	if !requirement.Determinate() {
		return nil
	}

	count, err := r.service.CountPriorMonthActivities(ctx, citizen)
	if err != nil {
		return err
	}

	_, err = r.service.Evaluate(ctx, citizen, requirement.Quota, count)
	return err
}
