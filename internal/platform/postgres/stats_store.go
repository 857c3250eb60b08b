package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pholn/mnemo/internal/domain"
	"github.com/pholn/mnemo/internal/platform/logger"
	"github.com/pholn/mnemo/internal/store"
)

// PostgresStatsStore implements the store.StatsStore interface
// using a PostgreSQL database as the storage backend.
//
// Like PostgresProgressStore it requires a full *sql.DB: ApplySummary opens
// its own transaction so the summary claim and the stats write commit or
// roll back together.
type PostgresStatsStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStatsStore creates a new PostgreSQL implementation of the StatsStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresStatsStore(db *sql.DB, logger *slog.Logger) *PostgresStatsStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "stats_store")),
	}
}

// Ensure PostgresStatsStore implements store.StatsStore interface
var _ store.StatsStore = (*PostgresStatsStore)(nil)

// Get implements store.StatsStore.Get
// Returns store.ErrStatsNotFound if the user has no stats row yet.
func (s *PostgresStatsStore) Get(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	stats, err := getStats(ctx, s.db, userID, false)
	if err != nil {
		if errors.Is(err, store.ErrStatsNotFound) {
			log.Debug("stats not found", slog.String("user_id", userID.String()))
			return nil, err
		}
		log.Error("failed to get stats",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	return stats, nil
}

// ApplySummary implements store.StatsStore.ApplySummary
//
// The claim is a conditional update flipping stats_applied from false to
// true. Zero rows affected means another worker already applied the summary
// (ErrSummaryApplied) or the summary never existed (ErrSummaryNotFound).
// Because the claim and the stats write share one transaction, a failure
// anywhere releases the claim and the summary stays replayable.
func (s *PostgresStatsStore) ApplySummary(
	ctx context.Context,
	summaryID, userID uuid.UUID,
	fn store.StatsUpdateFn,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		claim := `
			UPDATE session_summaries
			SET stats_applied = TRUE
			WHERE id = $1 AND user_id = $2 AND NOT stats_applied
		`
		result, err := tx.ExecContext(ctx, claim, summaryID, userID)
		if err != nil {
			return MapError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			var applied bool
			err := tx.QueryRowContext(ctx,
				`SELECT stats_applied FROM session_summaries WHERE id = $1 AND user_id = $2`,
				summaryID, userID,
			).Scan(&applied)
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrSummaryNotFound
			}
			if err != nil {
				return err
			}
			if applied {
				return store.ErrSummaryApplied
			}
			return store.ErrSummaryNotFound
		}

		current, err := getStats(ctx, tx, userID, true)
		if err != nil {
			if !errors.Is(err, store.ErrStatsNotFound) {
				return err
			}
			current = nil // first session for this user
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			return fmt.Errorf("%w: stats update produced no record", store.ErrInvalidEntity)
		}
		if err := next.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}

		return upsertStats(ctx, tx, next)
	})

	if err != nil {
		if errors.Is(err, store.ErrSummaryApplied) {
			log.Debug("summary already applied",
				slog.String("summary_id", summaryID.String()),
				slog.String("user_id", userID.String()))
			return err
		}
		log.Error("failed to apply summary to stats",
			slog.String("error", err.Error()),
			slog.String("summary_id", summaryID.String()),
			slog.String("user_id", userID.String()))
		return err
	}

	log.Info("summary applied to stats",
		slog.String("summary_id", summaryID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// getStats reads one stats row, optionally locking it for update.
// Returns store.ErrStatsNotFound if no row exists.
func getStats(ctx context.Context, q store.DBTX, userID uuid.UUID, lock bool) (*domain.UserStats, error) {
	query := `
		SELECT user_id, current_streak, longest_streak, cards_studied, study_time_ms, last_study_date, created_at, updated_at
		FROM user_stats
		WHERE user_id = $1
	`
	if lock {
		query += " FOR UPDATE"
	}

	var stats domain.UserStats
	var studyTimeMs int64
	var lastStudyDate sql.NullTime

	err := q.QueryRowContext(ctx, query, userID).Scan(
		&stats.UserID,
		&stats.CurrentStreak,
		&stats.LongestStreak,
		&stats.CardsStudied,
		&studyTimeMs,
		&lastStudyDate,
		&stats.CreatedAt,
		&stats.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrStatsNotFound
		}
		return nil, err
	}

	stats.StudyTime = time.Duration(studyTimeMs) * time.Millisecond
	if lastStudyDate.Valid {
		stats.LastStudyDate = lastStudyDate.Time.UTC()
	}

	return &stats, nil
}

// upsertStats writes a stats record, inserting or replacing the user's row.
func upsertStats(ctx context.Context, q store.DBTX, stats *domain.UserStats) error {
	query := `
		INSERT INTO user_stats (user_id, current_streak, longest_streak, cards_studied, study_time_ms, last_study_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			cards_studied = EXCLUDED.cards_studied,
			study_time_ms = EXCLUDED.study_time_ms,
			last_study_date = EXCLUDED.last_study_date,
			updated_at = EXCLUDED.updated_at
	`

	lastStudyDate := sql.NullTime{Time: stats.LastStudyDate, Valid: !stats.LastStudyDate.IsZero()}

	_, err := q.ExecContext(
		ctx,
		query,
		stats.UserID,
		stats.CurrentStreak,
		stats.LongestStreak,
		stats.CardsStudied,
		stats.StudyTime.Milliseconds(),
		lastStudyDate,
		stats.CreatedAt,
		stats.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: user missing for stats record: %v",
				store.ErrInvalidEntity, err)
		}
		return MapError(err)
	}

	return nil
}
