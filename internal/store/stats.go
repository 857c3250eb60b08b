package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/pholn/mnemo/internal/domain"
)

// StatsUpdateFn computes the next state of a user's aggregate stats inside
// an atomic update. It receives the current stats, or nil when the user has
// no stats row yet, and returns the stats to persist. Returning an error
// aborts the update and rolls back the transaction.
type StatsUpdateFn func(current *domain.UserStats) (*domain.UserStats, error)

// StatsStore defines the interface for aggregate user statistics.
type StatsStore interface {
	// Get retrieves the aggregate stats for the given user.
	// Returns ErrStatsNotFound if the user has no stats row yet.
	Get(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)

	// ApplySummary rolls one session summary into the user's aggregate
	// stats exactly once. In a single transaction it claims the summary by
	// flipping its stats_applied flag from false to true, then applies fn
	// to the user's stats row and persists the result.
	//
	// Returns ErrSummaryApplied if the summary was already claimed, so
	// replaying the same summary is safe and leaves the stats untouched.
	// Returns ErrSummaryNotFound if the summary does not exist.
	// fn receives nil when the user has no stats row yet; the stats fn
	// returns are inserted in that case.
	ApplySummary(ctx context.Context, summaryID, userID uuid.UUID, fn StatsUpdateFn) error
}
