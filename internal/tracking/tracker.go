// Package tracking records process completions for the automation platform's
// run statistics. A full completion means the process did real work for the
// citizen; a partial completion means it correctly decided there was nothing
// to do.
package tracking

import (
	"context"
	"sync"
)

// Kind distinguishes the two completion flavors.
type Kind string

const (
	KindFull    Kind = "full"
	KindPartial Kind = "partial"
)

// Tracker records completions, one call per terminal outcome per citizen.
type Tracker interface {
	TrackTask(ctx context.Context, process string) error
	TrackPartialTask(ctx context.Context, process string) error
}

// InMemory counts completions for tests and local runs.
type InMemory struct {
	mu       sync.Mutex
	full     map[string]int
	partials map[string]int
}

// NewInMemory creates an in-memory tracker.
func NewInMemory() *InMemory {
	return &InMemory{
		full:     make(map[string]int),
		partials: make(map[string]int),
	}
}

// TrackTask records a full completion.
func (t *InMemory) TrackTask(_ context.Context, process string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.full[process]++
	return nil
}

// TrackPartialTask records a partial completion.
func (t *InMemory) TrackPartialTask(_ context.Context, process string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.partials[process]++
	return nil
}

// Full returns the full-completion count for a process.
func (t *InMemory) Full(process string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.full[process]
}

// Partial returns the partial-completion count for a process.
func (t *InMemory) Partial(process string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.partials[process]
}
