// Package stats rolls committed session summaries into per-user aggregate
// statistics: streaks, lifetime counts, and study time. Application is
// idempotent through the store's summary claim, so a summary can be replayed
// safely after a partial failure.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pholn/mnemo/internal/clock"
	"github.com/pholn/mnemo/internal/domain"
	"github.com/pholn/mnemo/internal/platform/logger"
	"github.com/pholn/mnemo/internal/store"
)

// Aggregator applies finished sessions to user aggregate stats. It is safe
// for concurrent use; all state lives in the store.
type Aggregator struct {
	stats  store.StatsStore
	logger *slog.Logger
}

// NewAggregator creates an Aggregator.
// If logger is nil, a default logger will be used.
func NewAggregator(stats store.StatsStore, logger *slog.Logger) *Aggregator {
	if stats == nil {
		panic("stats store cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Aggregator{
		stats:  stats,
		logger: logger.With(slog.String("component", "stats_aggregator")),
	}
}

// Record rolls one session summary into the user's aggregate stats exactly
// once. The streak rule works on UTC calendar days taken from the summary's
// end time: a second session on the same day leaves the streak unchanged,
// the first session exactly one day after the last study day extends it,
// and any larger gap resets it to 1.
//
// Returns store.ErrSummaryApplied when the summary was already rolled in;
// callers replaying summaries treat that as success.
func (a *Aggregator) Record(ctx context.Context, summary *domain.SessionSummary) error {
	log := logger.FromContextOrDefault(ctx, a.logger)

	err := a.stats.ApplySummary(ctx, summary.ID, summary.UserID,
		func(current *domain.UserStats) (*domain.UserStats, error) {
			return Apply(current, summary), nil
		})
	if err != nil {
		// Already-applied and missing-summary are contract outcomes the
		// caller dispatches on, not store faults.
		if errors.Is(err, store.ErrSummaryApplied) || store.IsNotFoundError(err) {
			return err
		}
		log.Error("failed to apply session summary",
			slog.String("error", err.Error()),
			slog.String("summary_id", summary.ID.String()),
			slog.String("user_id", summary.UserID.String()))
		return fmt.Errorf("failed to apply session summary: %w", err)
	}

	log.Debug("session summary applied",
		slog.String("summary_id", summary.ID.String()),
		slog.String("user_id", summary.UserID.String()),
		slog.Int("cards_rated", summary.CardsRated))

	return nil
}

// Apply computes the next aggregate stats after one summary. It is a pure
// function: current may be nil for a user with no stats row yet, and the
// input is never mutated.
func Apply(current *domain.UserStats, summary *domain.SessionSummary) *domain.UserStats {
	next := domain.NewUserStats(summary.UserID)
	if current != nil {
		copied := *current
		next = &copied
	}

	studyDay := clock.StartOfDay(summary.EndedAt)

	switch {
	case next.LastStudyDate.IsZero():
		next.CurrentStreak = 1
	case clock.DaysBetween(next.LastStudyDate, studyDay) == 0:
		// Second session of the day; streak already counted.
	case clock.DaysBetween(next.LastStudyDate, studyDay) == 1:
		next.CurrentStreak++
	default:
		next.CurrentStreak = 1
	}

	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}

	next.CardsStudied += int64(summary.CardsRated)
	next.StudyTime += summary.Duration
	next.LastStudyDate = studyDay
	next.UpdatedAt = summary.EndedAt

	return next
}
