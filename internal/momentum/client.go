// Package momentum is the HTTP client for the Momentum case-management API.
// It authenticates with client credentials plus a static API key, decodes
// responses, and classifies failures so callers can distinguish missing
// records from transient infrastructure faults.
package momentum

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"joblog-audit/internal/sentinel"
)

const tracerName = "joblog-audit/momentum"

// Config holds client construction parameters. BaseURL, ClientID,
// ClientSecret, APIKey and Resource come from the issued credential.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	APIKey       string
	Resource     string
	Timeout      time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the Momentum API. All calls are single-attempt; the
// exemption-status fetch layers retry on top (see citizens.go).
type Client struct {
	baseURL    string
	clientID   string
	secret     string
	apiKey     string
	resource   string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer

	// retryInterval is the backoff base unit for the exemption-status
	// fetch: 1s in production, shortened by tests.
	retryInterval time.Duration

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// New constructs a Client. The logger may be nil.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("momentum base URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		clientID:      cfg.ClientID,
		secret:        cfg.ClientSecret,
		apiKey:        cfg.APIKey,
		resource:      cfg.Resource,
		httpClient:    httpClient,
		logger:        logger,
		tracer:        otel.Tracer(tracerName),
		retryInterval: time.Second,
	}, nil
}

// Health reports whether the API is reachable by exercising the token
// endpoint. A cached, unexpired token counts as healthy without a roundtrip.
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.bearerToken(ctx); err != nil {
		return fmt.Errorf("momentum unreachable: %w", err)
	}
	return nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// bearerToken returns a cached access token, refreshing it when it is within
// a minute of expiry.
func (c *Client) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.tokenExp) > time.Minute {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.secret},
		"resource":      {c.resource},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch token: %w: %w", sentinel.ErrTransient, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus("auth/token", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	c.token = tok.AccessToken
	c.tokenExp = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.token, nil
}

// classifyStatus turns a non-2xx status into a sentinel-wrapped error.
// 404 means the record does not exist; 5xx and 429 are transient.
func classifyStatus(path string, status int) error {
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("momentum %s: %w", path, sentinel.ErrNotFound)
	case status >= 500 || status == http.StatusTooManyRequests:
		return fmt.Errorf("momentum %s: status %d: %w", path, status, sentinel.ErrTransient)
	default:
		return fmt.Errorf("momentum %s: unexpected status %d", path, status)
	}
}

// do issues one authenticated request and decodes the response body into out.
// A JSON `null` body is reported as sentinel.ErrNotFound so callers never
// conflate "no record" with an empty collection.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, method+" "+path)
	defer span.End()
	span.SetAttributes(attribute.String("momentum.path", path))

	token, err := c.bearerToken(ctx)
	if err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("momentum %s: %w: %w", path, sentinel.ErrTransient, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyStatus(path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("momentum %s: read body: %w: %w", path, sentinel.ErrTransient, err)
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return fmt.Errorf("momentum %s: empty record: %w", path, sentinel.ErrNotFound)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("momentum %s: decode response: %w", path, err)
	}
	return nil
}
