package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pholn/mnemo/internal/domain"
	"github.com/pholn/mnemo/internal/platform/logger"
	"github.com/pholn/mnemo/internal/store"
)

// SQLiteStatsStore implements the store.StatsStore interface
// using an embedded SQLite database as the storage backend.
// It holds the full pool rather than a single handle because ApplySummary
// opens its own transaction.
type SQLiteStatsStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewSQLiteStatsStore creates a new SQLite implementation of the StatsStore interface.
// If logger is nil, a default logger will be used.
func NewSQLiteStatsStore(db *sqlx.DB, logger *slog.Logger) *SQLiteStatsStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "stats_store")),
	}
}

// Ensure SQLiteStatsStore implements store.StatsStore interface
var _ store.StatsStore = (*SQLiteStatsStore)(nil)

// Get implements store.StatsStore.Get
// Returns store.ErrStatsNotFound for users with no completed sessions.
func (s *SQLiteStatsStore) Get(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row, err := getStatsRow(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, store.ErrStatsNotFound) {
			log.Debug("stats not found", slog.String("user_id", userID.String()))
			return nil, err
		}
		log.Error("failed to get user stats",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	return row.toDomain(), nil
}

// ApplySummary implements store.StatsStore.ApplySummary
// The summary's stats_applied flag is claimed and the stats upserted in one
// transaction, so each summary is rolled into the aggregates exactly once.
// Returns store.ErrSummaryApplied when the summary was already claimed and
// store.ErrSummaryNotFound when it does not exist or belongs to another user.
func (s *SQLiteStatsStore) ApplySummary(
	ctx context.Context,
	summaryID, userID uuid.UUID,
	fn store.StatsUpdateFn,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := runInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE session_summaries
			SET stats_applied = 1
			WHERE id = ? AND user_id = ? AND stats_applied = 0
		`, summaryID, userID)
		if err != nil {
			return mapError(err)
		}

		claimed, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if claimed == 0 {
			var applied bool
			err := tx.GetContext(ctx, &applied,
				`SELECT stats_applied FROM session_summaries WHERE id = ? AND user_id = ?`,
				summaryID, userID)
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

		var current *domain.UserStats
		row, err := getStatsRow(ctx, tx, userID)
		switch {
		case err == nil:
			current = row.toDomain()
		case errors.Is(err, store.ErrStatsNotFound):
			// First session for this user; fn receives nil.
		default:
			return err
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
			log.Debug("summary already applied to stats",
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

// getStatsRow fetches the stats row through any sqlx handle so it works both
// on the pool and inside ApplySummary's transaction.
func getStatsRow(ctx context.Context, q sqlx.QueryerContext, userID uuid.UUID) (statsRow, error) {
	query := `
		SELECT user_id, current_streak, longest_streak, cards_studied, study_time_ms, last_study_date, created_at, updated_at
		FROM user_stats
		WHERE user_id = ?
	`

	var row statsRow
	if err := sqlx.GetContext(ctx, q, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return statsRow{}, store.ErrStatsNotFound
		}
		return statsRow{}, err
	}
	return row, nil
}

func upsertStats(ctx context.Context, tx *sqlx.Tx, stats *domain.UserStats) error {
	query := `
		INSERT INTO user_stats (user_id, current_streak, longest_streak, cards_studied, study_time_ms, last_study_date, created_at, updated_at)
		VALUES (:user_id, :current_streak, :longest_streak, :cards_studied, :study_time_ms, :last_study_date, :created_at, :updated_at)
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			cards_studied = excluded.cards_studied,
			study_time_ms = excluded.study_time_ms,
			last_study_date = excluded.last_study_date,
			updated_at = excluded.updated_at
	`

	if _, err := tx.NamedExecContext(ctx, query, newStatsRow(stats)); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: user missing for stats record", store.ErrInvalidEntity)
		}
		return mapError(err)
	}
	return nil
}
