package workqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"joblog-audit/internal/sentinel"
)

// InMemory is the queue used by tests and local runs. Items keep insertion
// order so NextPending is deterministic.
type InMemory struct {
	mu    sync.Mutex
	items []*WorkItem
	now   func() time.Time
}

// NewInMemory creates an empty in-memory queue.
func NewInMemory() *InMemory {
	return &InMemory{now: time.Now}
}

// WithClock pins the store's clock for tests.
func (s *InMemory) WithClock(now func() time.Time) *InMemory {
	s.now = now
	return s
}

// Add enqueues a pending item.
func (s *InMemory) Add(_ context.Context, reference string) (*WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := &WorkItem{
		ID:        uuid.New(),
		Reference: reference,
		Status:    StatusPending,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	s.items = append(s.items, item)
	return copyItem(item), nil
}

// NextPending claims the oldest pending item.
func (s *InMemory) NextPending(_ context.Context) (*WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.Status == StatusPending {
			item.Status = StatusInProgress
			item.UpdatedAt = s.now()
			return copyItem(item), nil
		}
	}
	return nil, fmt.Errorf("no pending work items: %w", sentinel.ErrNotFound)
}

// MarkCompleted finalizes a claimed item.
func (s *InMemory) MarkCompleted(_ context.Context, id uuid.UUID) error {
	return s.finalize(id, StatusCompleted, "")
}

// MarkFailed finalizes a claimed item with a reason.
func (s *InMemory) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	return s.finalize(id, StatusFailed, reason)
}

func (s *InMemory) finalize(id uuid.UUID, status Status, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			item.Status = status
			item.FailReason = reason
			item.UpdatedAt = s.now()
			return nil
		}
	}
	return fmt.Errorf("work item %s: %w", id, sentinel.ErrNotFound)
}

// FindByReference lists items for a reference in the given status.
func (s *InMemory) FindByReference(_ context.Context, reference string, status Status) ([]WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []WorkItem
	for _, item := range s.items {
		if item.Reference == reference && item.Status == status {
			out = append(out, *item)
		}
	}
	return out, nil
}

// CountByStatus reports how many items are in the given status.
func (s *InMemory) CountByStatus(_ context.Context, status Status) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, item := range s.items {
		if item.Status == status {
			count++
		}
	}
	return count, nil
}

// ClearPending drops all pending items.
func (s *InMemory) ClearPending(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	for _, item := range s.items {
		if item.Status != StatusPending {
			kept = append(kept, item)
		}
	}
	s.items = kept
	return nil
}

func copyItem(item *WorkItem) *WorkItem {
	dup := *item
	return &dup
}
