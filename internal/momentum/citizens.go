package momentum

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/cenkalti/backoff/v4"

	"joblog-audit/internal/sentinel"
)

// Exemption-fetch retry policy: up to 10 attempts with exponential backoff,
// base 1s doubling to a 10s cap. Only this endpoint tolerates retry; every
// other call mutates external state downstream or is cheap to fail.
const exemptionFetchAttempts = 10

// SearchCitizens returns the citizens matching the given filters. A result
// with no matches is an empty slice, not an error.
func (c *Client) SearchCitizens(ctx context.Context, filters []SearchFilter) ([]Citizen, error) {
	var page struct {
		Data []Citizen `json:"data"`
	}
	req := struct {
		Filters []SearchFilter `json:"filters"`
	}{Filters: filters}

	if err := c.do(ctx, http.MethodPost, "/citizens/search", req, &page); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return []Citizen{}, nil
		}
		return nil, err
	}
	return page.Data, nil
}

// GetCitizen fetches a single citizen by CPR.
func (c *Client) GetCitizen(ctx context.Context, cpr string) (*Citizen, error) {
	var citizen Citizen
	if err := c.do(ctx, http.MethodGet, "/citizens/"+url.PathEscape(cpr), nil, &citizen); err != nil {
		return nil, err
	}
	return &citizen, nil
}

// GetExemptionStatus fetches the citizen's exemption status, retrying
// transient failures per the policy above. The final error is returned
// unchanged once the attempt budget is spent.
func (c *Client) GetExemptionStatus(ctx context.Context, cpr string) (*ExemptionStatus, error) {
	path := "/citizens/" + url.PathEscape(cpr) + "/exemption-status"

	var status ExemptionStatus
	attempt := 0
	operation := func() error {
		attempt++
		err := c.do(ctx, http.MethodGet, path, nil, &status)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sentinel.ErrTransient) {
			return backoff.Permanent(err)
		}
		c.logger.Warn("exemption status fetch failed, will retry",
			"cpr", cpr,
			"attempt", attempt,
			"error", err,
		)
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInterval
	policy.RandomizationFactor = 0
	policy.Multiplier = 2
	policy.MaxInterval = 10 * c.retryInterval
	policy.MaxElapsedTime = 0

	err := backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(policy, exemptionFetchAttempts-1), ctx))
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// GetJobSearchDefinition fetches the requirement record for a citizen.
func (c *Client) GetJobSearchDefinition(ctx context.Context, cpr string) (*JobSearchDefinition, error) {
	var def JobSearchDefinition
	path := "/citizens/" + url.PathEscape(cpr) + "/job-search-definition"
	if err := c.do(ctx, http.MethodGet, path, nil, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// GetJobLog fetches the citizen's full job-search log. An existing but empty
// log returns an empty slice; an absent log returns sentinel.ErrNotFound.
// The API expresses the difference as `[]` versus `null`/404 and the client
// keeps it intact.
func (c *Client) GetJobLog(ctx context.Context, cpr string) ([]JobLogEntry, error) {
	var entries []JobLogEntry
	path := "/citizens/" + url.PathEscape(cpr) + "/joblog"
	if err := c.do(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// FindCaseworker resolves a caseworker by alias.
func (c *Client) FindCaseworker(ctx context.Context, alias string) (*Caseworker, error) {
	var cw Caseworker
	if err := c.do(ctx, http.MethodGet, "/caseworkers/"+url.PathEscape(alias), nil, &cw); err != nil {
		return nil, err
	}
	return &cw, nil
}
