package audit

// Outcome is the terminal result of auditing one citizen.
type Outcome string

const (
	OutcomeExempt                   Outcome = "exempt"
	OutcomeRequirementNotFound      Outcome = "requirement_not_found"
	OutcomeRequirementIndeterminate Outcome = "requirement_indeterminate"
	OutcomeRequirementZero          Outcome = "requirement_zero"
	OutcomeNoActivityRegistered     Outcome = "no_activity_registered"
	OutcomeInsufficientActivity     Outcome = "insufficient_activity"
	OutcomeCompliant                Outcome = "compliant"
)

// RequirementKind tags the four-way result of requirement resolution.
type RequirementKind int

const (
	// RequirementQuota means a positive quota was parsed from the free text.
	RequirementQuota RequirementKind = iota
	// RequirementNotFound means the free-text field was absent or empty.
	RequirementNotFound
	// RequirementIndeterminate means the text carried no "<digits> job" pattern.
	RequirementIndeterminate
	// RequirementZero means the parsed quota was exactly zero: a valid,
	// already-satisfied state that needs no remediation.
	RequirementZero
)

// Requirement is the resolved job-search requirement. Quota is only
// meaningful when Kind is RequirementQuota.
type Requirement struct {
	Kind  RequirementKind
	Quota int
}

// Determinate reports whether the requirement resolved to a usable quota.
func (r Requirement) Determinate() bool {
	return r.Kind == RequirementQuota
}

// Outcome maps the requirement to the audit outcome it short-circuits to.
// Only meaningful for indeterminate kinds.
func (r Requirement) Outcome() Outcome {
	switch r.Kind {
	case RequirementNotFound:
		return OutcomeRequirementNotFound
	case RequirementIndeterminate:
		return OutcomeRequirementIndeterminate
	case RequirementZero:
		return OutcomeRequirementZero
	default:
		return OutcomeCompliant
	}
}
