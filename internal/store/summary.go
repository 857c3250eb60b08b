package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/pholn/mnemo/internal/domain"
)

// SummaryStore defines the interface for session summary persistence.
//
// Summaries are written once when a session ends and never modified, except
// for the stats_applied flag which StatsStore.ApplySummary flips when the
// summary is rolled into the user's aggregate stats.
type SummaryStore interface {
	// Create saves a new session summary with stats not yet applied.
	// Returns ErrDuplicate if a summary with the same ID already exists,
	// which callers retrying a failed finalization treat as success.
	// Returns validation errors from the domain SessionSummary if data is
	// invalid.
	Create(ctx context.Context, summary *domain.SessionSummary) error

	// GetByID retrieves a session summary by its unique ID.
	// Returns ErrSummaryNotFound if the summary does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SessionSummary, error)

	// ListUnapplied retrieves summaries whose stats have not been rolled
	// into user aggregates yet, oldest first. limit <= 0 means no limit.
	ListUnapplied(ctx context.Context, limit int) ([]*domain.SessionSummary, error)

	// ListByUser retrieves the user's summaries, most recent first.
	// limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.SessionSummary, error)
}
