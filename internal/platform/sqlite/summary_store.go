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

// SQLiteSummaryStore implements the store.SummaryStore interface
// using an embedded SQLite database as the storage backend.
type SQLiteSummaryStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewSQLiteSummaryStore creates a new SQLite implementation of the SummaryStore interface.
// If logger is nil, a default logger will be used.
func NewSQLiteSummaryStore(db *sqlx.DB, logger *slog.Logger) *SQLiteSummaryStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteSummaryStore{
		db:     db,
		logger: logger.With(slog.String("component", "summary_store")),
	}
}

// Ensure SQLiteSummaryStore implements store.SummaryStore interface
var _ store.SummaryStore = (*SQLiteSummaryStore)(nil)

// Create implements store.SummaryStore.Create
// Returns store.ErrDuplicate if a summary with the same ID already exists,
// which retrying callers treat as success.
func (s *SQLiteSummaryStore) Create(ctx context.Context, summary *domain.SessionSummary) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := summary.Validate(); err != nil {
		log.Warn("summary validation failed during create",
			slog.String("error", err.Error()),
			slog.String("summary_id", summary.ID.String()))
		return err
	}

	query := `
		INSERT INTO session_summaries (id, user_id, deck_id, started_at, ended_at, cards_seen, cards_rated, cards_known, accuracy, duration_ms, stats_applied, created_at)
		VALUES (:id, :user_id, :deck_id, :started_at, :ended_at, :cards_seen, :cards_rated, :cards_known, :accuracy, :duration_ms, :stats_applied, :created_at)
	`
	_, err := s.db.NamedExecContext(ctx, query, newSummaryRow(summary))
	if err != nil {
		if isUniqueViolation(err) {
			log.Debug("summary already committed",
				slog.String("summary_id", summary.ID.String()))
			return fmt.Errorf("%w: session summary", store.ErrDuplicate)
		}
		if isForeignKeyViolation(err) {
			log.Warn("summary references missing user or deck",
				slog.String("summary_id", summary.ID.String()),
				slog.String("user_id", summary.UserID.String()))
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}

		log.Error("failed to create session summary",
			slog.String("error", err.Error()),
			slog.String("summary_id", summary.ID.String()))
		return mapError(err)
	}

	log.Info("session summary committed",
		slog.String("summary_id", summary.ID.String()),
		slog.String("user_id", summary.UserID.String()),
		slog.Int("cards_seen", summary.CardsSeen))
	return nil
}

// GetByID implements store.SummaryStore.GetByID
// Returns store.ErrSummaryNotFound if the summary does not exist.
func (s *SQLiteSummaryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SessionSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, deck_id, started_at, ended_at, cards_seen, cards_rated, cards_known, accuracy, duration_ms, stats_applied, created_at
		FROM session_summaries
		WHERE id = ?
	`

	var row summaryRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("summary not found", slog.String("summary_id", id.String()))
			return nil, store.ErrSummaryNotFound
		}
		log.Error("failed to get summary by ID",
			slog.String("error", err.Error()),
			slog.String("summary_id", id.String()))
		return nil, err
	}

	return row.toDomain(), nil
}

// ListUnapplied implements store.SummaryStore.ListUnapplied
// Summaries come back oldest first so replay preserves session order.
func (s *SQLiteSummaryStore) ListUnapplied(ctx context.Context, limit int) ([]*domain.SessionSummary, error) {
	limitArg := -1
	if limit > 0 {
		limitArg = limit
	}

	return s.listSummaries(ctx, `
		SELECT id, user_id, deck_id, started_at, ended_at, cards_seen, cards_rated, cards_known, accuracy, duration_ms, stats_applied, created_at
		FROM session_summaries
		WHERE stats_applied = 0
		ORDER BY ended_at ASC, id ASC
		LIMIT ?
	`, limitArg)
}

// ListByUser implements store.SummaryStore.ListByUser
// Summaries come back most recent first.
func (s *SQLiteSummaryStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.SessionSummary, error) {
	limitArg := -1
	if limit > 0 {
		limitArg = limit
	}

	return s.listSummaries(ctx, `
		SELECT id, user_id, deck_id, started_at, ended_at, cards_seen, cards_rated, cards_known, accuracy, duration_ms, stats_applied, created_at
		FROM session_summaries
		WHERE user_id = ?
		ORDER BY ended_at DESC, id DESC
		LIMIT ?
	`, userID, limitArg)
}

func (s *SQLiteSummaryStore) listSummaries(ctx context.Context, query string, args ...any) ([]*domain.SessionSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var rows []summaryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		log.Error("failed to list session summaries",
			slog.String("error", err.Error()))
		return nil, err
	}

	summaries := make([]*domain.SessionSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, row.toDomain())
	}
	return summaries, nil
}
