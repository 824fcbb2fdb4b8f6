// Package workqueue holds the per-citizen work items one audit run drains.
// Items are referenced by CPR so a repopulation can see whether a citizen
// was already completed this month.
package workqueue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a work item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// WorkItem is one citizen queued for auditing.
type WorkItem struct {
	ID         uuid.UUID
	Reference  string
	Status     Status
	FailReason string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store is the queue contract. NextPending claims items strictly one at a
// time; the worker never holds more than one claim.
type Store interface {
	// Add enqueues a pending item for the given reference.
	Add(ctx context.Context, reference string) (*WorkItem, error)
	// NextPending claims the oldest pending item, moving it to in_progress.
	// Returns sentinel.ErrNotFound (wrapped) when the queue is drained.
	NextPending(ctx context.Context) (*WorkItem, error)
	// MarkCompleted finalizes a claimed item.
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	// MarkFailed finalizes a claimed item with a human-readable reason for
	// manual review.
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	// FindByReference lists items for a reference in the given status.
	FindByReference(ctx context.Context, reference string, status Status) ([]WorkItem, error)
	// CountByStatus reports how many items are in the given status.
	CountByStatus(ctx context.Context, status Status) (int, error)
	// ClearPending drops all pending items ahead of a repopulation.
	ClearPending(ctx context.Context) error
}
