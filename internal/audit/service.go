// Package audit implements the joblog compliance rules: exemption check,
// requirement resolution, prior-month activity counting and the final
// compliance decision, including the caseworker tasks, reports and tracking
// signals each terminal outcome emits.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	auditmetrics "joblog-audit/internal/audit/metrics"
	"joblog-audit/internal/momentum"
	"joblog-audit/internal/sentinel"
	dErrors "joblog-audit/pkg/domain-errors"
)

// ProcessName keys completion-tracking counters; downstream BI reports on it.
const ProcessName = "Kontrol af joblog"

// Keys and titles the external systems match on. The exemption category and
// the report/task wording are fixed contracts with Momentum and the
// reporting pipeline; they stay verbatim.
const (
	exemptionCategory = "Brug af Joblog"
	caseworkerAlias   = "dorf"
	taskTitle         = "Kontrol af joblog"
	taskDueIn         = 7 * 24 * time.Hour

	reportID          = "kontrol_af_joblog"
	reportGroupManual = "Manuel behandling"
	reportGroupDone   = "Behandlet"

	descExemptNoCheck      = "Der skal ikke tjekkes mere, da borger er fritaget for brug af joblog."
	descRequirementMissing = "'Krav til jobsøgning' blev ikke fundet."
	descRequirementVague   = "Der mangler oplysninger om antallet af jobs i 'Krav til jobsøgning'."
	descNoActivity         = "Der var ikke registreret nogen jobs i joblog."
	descTooFewActivities   = "Der er registreret for få job i joblog."
)

// MomentumAPI is the slice of the Momentum client the rules need.
type MomentumAPI interface {
	GetExemptionStatus(ctx context.Context, cpr string) (*momentum.ExemptionStatus, error)
	GetJobSearchDefinition(ctx context.Context, cpr string) (*momentum.JobSearchDefinition, error)
	GetJobLog(ctx context.Context, cpr string) ([]momentum.JobLogEntry, error)
	FindCaseworker(ctx context.Context, alias string) (*momentum.Caseworker, error)
	CreateTask(ctx context.Context, req momentum.TaskRequest) error
}

// Tracker records process completions, full or partial, exactly once per
// terminal outcome.
type Tracker interface {
	TrackTask(ctx context.Context, process string) error
	TrackPartialTask(ctx context.Context, process string) error
}

// Reporter emits fire-and-forget structured events. Implementations must not
// surface delivery failures to the audit path.
type Reporter interface {
	Report(ctx context.Context, reportID, group string, payload map[string]any)
}

// Service evaluates one citizen at a time. It holds no per-citizen state;
// everything is fetched fresh per invocation.
type Service struct {
	api      MomentumAPI
	tracker  Tracker
	reporter Reporter
	logger   *slog.Logger
	metrics  *auditmetrics.Metrics
	now      func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *auditmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the wall-clock sample used for the audit window and
// task due dates. Tests pin it; production uses time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(api MomentumAPI, tracker Tracker, reporter Reporter, opts ...Option) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("momentum api is required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("tracker is required")
	}
	if reporter == nil {
		return nil, fmt.Errorf("reporter is required")
	}
	s := &Service{
		api:      api,
		tracker:  tracker,
		reporter: reporter,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IsExempt reports whether the citizen is exempt from the joblog audit.
// On true the citizen's processing ends here: the exemption is reported for
// manual follow-up and tracked as a partial completion, and the caller must
// not fetch anything further.
func (s *Service) IsExempt(ctx context.Context, citizen *momentum.Citizen) (bool, error) {
	status, err := s.api.GetExemptionStatus(ctx, citizen.CPR)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, dErrors.New(dErrors.CodeNotFound,
				fmt.Sprintf("exemption status for citizen with CPR %s not found in Momentum", citizen.CPR))
		}
		return false, dErrors.Wrap(err, dErrors.CodeTransient,
			fmt.Sprintf("exemption status fetch failed for citizen with CPR %s", citizen.CPR))
	}

	if !status.Contains(exemptionCategory) {
		return false, nil
	}

	s.reporter.Report(ctx, reportID, reportGroupManual, map[string]any{
		"Cpr":                citizen.CPR,
		"Manuel beskrivelse": descExemptNoCheck,
	})
	if err := s.tracker.TrackPartialTask(ctx, ProcessName); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to track partial completion")
	}
	s.incrementOutcome(OutcomeExempt)
	s.logger.Info("citizen exempt from joblog audit", "cpr", citizen.CPR)
	return true, nil
}

// ResolveRequirement fetches the requirement record and extracts the quota.
// Indeterminate results carry their own side effects: missing or unparseable
// text raises a caseworker task and tracks a full completion, while a parsed
// zero tracks a partial completion and raises nothing.
func (s *Service) ResolveRequirement(ctx context.Context, citizen *momentum.Citizen) (Requirement, error) {
	def, err := s.api.GetJobSearchDefinition(ctx, citizen.CPR)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Requirement{}, dErrors.New(dErrors.CodeNotFound,
				fmt.Sprintf("job search definition for citizen with CPR %s not found in Momentum", citizen.CPR))
		}
		return Requirement{}, dErrors.Wrap(err, dErrors.CodeTransient,
			fmt.Sprintf("job search definition fetch failed for citizen with CPR %s", citizen.CPR))
	}

	var text string
	if def.OtherExpectations != nil {
		text = *def.OtherExpectations
	}
	requirement := ParseRequirement(text)

	switch requirement.Kind {
	case RequirementNotFound:
		if err := s.remediate(ctx, citizen, descRequirementMissing); err != nil {
			return Requirement{}, err
		}
	case RequirementIndeterminate:
		if err := s.remediate(ctx, citizen, descRequirementVague); err != nil {
			return Requirement{}, err
		}
	case RequirementZero:
		if err := s.tracker.TrackPartialTask(ctx, ProcessName); err != nil {
			return Requirement{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to track partial completion")
		}
	}

	if !requirement.Determinate() {
		s.incrementOutcome(requirement.Outcome())
		s.logger.Info("requirement indeterminate",
			"cpr", citizen.CPR,
			"outcome", string(requirement.Outcome()),
		)
	}
	return requirement, nil
}

// CountPriorMonthActivities counts the distinct job applications the citizen
// logged in the previous calendar month. Entries count when both the
// submission and last-update timestamps fall inside the window, and
// near-identical entries collapse onto a composite key of title, company,
// postcode, town and distance.
func (s *Service) CountPriorMonthActivities(ctx context.Context, citizen *momentum.Citizen) (int, error) {
	joblog, err := s.api.GetJobLog(ctx, citizen.CPR)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.New(dErrors.CodeNotFound,
				fmt.Sprintf("joblog for citizen with CPR %s not found in Momentum", citizen.CPR))
		}
		return 0, dErrors.Wrap(err, dErrors.CodeTransient,
			fmt.Sprintf("joblog fetch failed for citizen with CPR %s", citizen.CPR))
	}

	window := PreviousMonth(s.now())

	seen := make(map[string]struct{})
	for _, entry := range joblog {
		if !window.Contains(parseTimestamp(entry.SubmissionDate)) {
			continue
		}
		if !window.Contains(parseTimestamp(entry.UpdatedAt)) {
			continue
		}
		key := entry.Title + " " + entry.CompanyName + " " + entry.CompanyPostCode +
			" " + entry.CompanyTown + " " + string(entry.DistanceToCompanyInMeters)
		seen[key] = struct{}{}
	}

	return len(seen), nil
}

// Evaluate applies the compliance decision table. The zero-activity branch
// precedes the shortfall branch so each gets its own remediation wording;
// the distinction matters for the audit trail even though the first
// condition is a subset of the second.
func (s *Service) Evaluate(ctx context.Context, citizen *momentum.Citizen, requirement, activityCount int) (Outcome, error) {
	switch {
	case requirement > 0 && activityCount == 0:
		if err := s.remediate(ctx, citizen, descNoActivity); err != nil {
			return "", err
		}
		s.incrementOutcome(OutcomeNoActivityRegistered)
		return OutcomeNoActivityRegistered, nil

	case activityCount < requirement:
		if err := s.remediate(ctx, citizen, descTooFewActivities); err != nil {
			return "", err
		}
		s.incrementOutcome(OutcomeInsufficientActivity)
		return OutcomeInsufficientActivity, nil

	default:
		s.incrementOutcome(OutcomeCompliant)
		s.logger.Info("citizen compliant",
			"cpr", citizen.CPR,
			"requirement", requirement,
			"activity_count", activityCount,
		)
		return OutcomeCompliant, nil
	}
}

// remediate creates the caseworker task for a failed audit, reports it and
// tracks a full completion. Task creation is deliberately single-attempt:
// a blind retry could put duplicate tasks on the caseworker's board.
func (s *Service) remediate(ctx context.Context, citizen *momentum.Citizen, description string) error {
	if err := s.createCaseworkerTask(ctx, citizen, description); err != nil {
		return err
	}

	s.reporter.Report(ctx, reportID, reportGroupDone, map[string]any{
		"Cpr":         citizen.CPR,
		"Udført":      "Opgave til sagsbehandler",
		"Beskrivelse": description,
	})
	if err := s.tracker.TrackTask(ctx, ProcessName); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to track completion")
	}
	return nil
}

// createCaseworkerTask addresses a task to the fixed audit caseworker with a
// seven-day due date.
func (s *Service) createCaseworkerTask(ctx context.Context, citizen *momentum.Citizen, description string) error {
	caseworker, err := s.api.FindCaseworker(ctx, caseworkerAlias)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound,
				fmt.Sprintf("caseworker %q not found in Momentum", caseworkerAlias))
		}
		return dErrors.Wrap(err, dErrors.CodeTransient, "caseworker lookup failed")
	}

	req := momentum.TaskRequest{
		CitizenCPR:  citizen.CPR,
		AssigneeIDs: []string{caseworker.ID},
		DueDate:     s.now().UTC().Add(taskDueIn),
		Title:       taskTitle,
		Description: description,
	}
	if err := s.api.CreateTask(ctx, req); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransient,
			fmt.Sprintf("failed to create caseworker task for citizen with CPR %s", citizen.CPR))
	}

	s.logger.Info("caseworker task created",
		"cpr", citizen.CPR,
		"description", description,
	)
	return nil
}

func (s *Service) incrementOutcome(outcome Outcome) {
	if s.metrics != nil {
		s.metrics.IncrementOutcome(string(outcome))
	}
}
