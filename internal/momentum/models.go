package momentum

import (
	"fmt"
	"strconv"
	"time"
)

// Citizen is the directory record for one citizen. Only the fields the audit
// reads are mapped; the CPR is treated as an opaque key.
type Citizen struct {
	CPR             string `json:"cpr"`
	TargetGroupCode string `json:"targetGroupCode,omitempty"`
}

// ExemptionStatus carries the exemption categories attached to a citizen.
// An empty Names list is a valid status, distinct from no status at all.
type ExemptionStatus struct {
	Names []string `json:"personExemptNames"`
}

// Contains reports whether the status carries the given exemption category.
func (s ExemptionStatus) Contains(name string) bool {
	for _, n := range s.Names {
		if n == name {
			return true
		}
	}
	return false
}

// JobSearchDefinition is the caseworker-authored requirement record.
// OtherExpectations is free text; nil means the field was absent.
type JobSearchDefinition struct {
	OtherExpectations *string `json:"otherExpectations"`
}

// FlexString decodes a JSON value that the API serves inconsistently as
// either a number or a string (observed for distances).
type FlexString string

// UnmarshalJSON accepts both `"1234"` and `1234`.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("unquote flex string: %w", err)
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(data)
	return nil
}

// JobLogEntry is one job-search-log record. Timestamps stay as the raw wire
// strings; the audit core owns their normalization rules.
type JobLogEntry struct {
	Title                     string     `json:"title"`
	CompanyName               string     `json:"companyName"`
	CompanyPostCode           string     `json:"companyPostCode"`
	CompanyTown               string     `json:"companyTown"`
	DistanceToCompanyInMeters FlexString `json:"distanceToCompanyInMeters"`
	SubmissionDate            string     `json:"submissionDate"`
	UpdatedAt                 string     `json:"updatedAt"`
}

// Caseworker is a Momentum employee record resolvable by alias.
type Caseworker struct {
	ID          string `json:"id"`
	Alias       string `json:"alias"`
	DisplayName string `json:"displayName"`
}

// SearchFilter mirrors the citizen-search filter payload. Values may contain
// nulls; the API treats them as "field unset".
type SearchFilter struct {
	CustomFilter string    `json:"customFilter"`
	FieldName    string    `json:"fieldName"`
	Values       []*string `json:"values"`
}

// TaskRequest creates a caseworker task on a citizen.
type TaskRequest struct {
	CitizenCPR  string    `json:"citizenCpr"`
	AssigneeIDs []string  `json:"assigneeIds"`
	DueDate     time.Time `json:"dueDate"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}
