package audit

import (
	"regexp"
	"strconv"
)

// The external system stores the requirement as a caseworker-authored
// sentence, e.g. "Skal søge 5 jobs om måneden". The documented source of
// truth is the first run of digits followed by the token "job", case
// insensitive, with arbitrary text around it.
var quotaPattern = regexp.MustCompile(`(?i)(\d+)\s+job`)

// ParseRequirement extracts the job-search quota from the free-text
// requirement field. An empty text maps to RequirementNotFound, text without
// the pattern to RequirementIndeterminate, and a parsed zero to
// RequirementZero.
func ParseRequirement(text string) Requirement {
	if text == "" {
		return Requirement{Kind: RequirementNotFound}
	}

	match := quotaPattern.FindStringSubmatch(text)
	if match == nil {
		return Requirement{Kind: RequirementIndeterminate}
	}

	quota, err := strconv.Atoi(match[1])
	if err != nil {
		// Digit run too long for an int; nothing sane to audit against.
		return Requirement{Kind: RequirementIndeterminate}
	}
	if quota == 0 {
		return Requirement{Kind: RequirementZero}
	}
	return Requirement{Kind: RequirementQuota, Quota: quota}
}
