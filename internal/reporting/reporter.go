// Package reporting emits structured audit events to the municipal BI
// pipeline. Emission is fire-and-forget: the audit never depends on a
// report's delivery or success.
package reporting

import (
	"context"
	"sync"
	"time"
)

// Event is one emitted report.
type Event struct {
	Timestamp time.Time
	ReportID  string
	Group     string
	Payload   map[string]any
}

// Reporter captures structured report events.
type Reporter interface {
	Report(ctx context.Context, reportID, group string, payload map[string]any)
}

// InMemory retains events for tests and local runs.
type InMemory struct {
	mu     sync.Mutex
	events []Event
}

// NewInMemory creates an in-memory reporter.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// Report appends the event.
func (r *InMemory) Report(_ context.Context, reportID, group string, payload map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{
		Timestamp: time.Now(),
		ReportID:  reportID,
		Group:     group,
		Payload:   payload,
	})
}

// Events returns a copy of everything reported so far.
func (r *InMemory) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Noop discards all events. Used when no brokers are configured.
type Noop struct{}

// Report discards the event.
func (Noop) Report(context.Context, string, string, map[string]any) {}
