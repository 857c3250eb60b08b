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

// PostgresSummaryStore implements the store.SummaryStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSummaryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSummaryStore creates a new PostgreSQL implementation of the SummaryStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresSummaryStore(db store.DBTX, logger *slog.Logger) *PostgresSummaryStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSummaryStore{
		db:     db,
		logger: logger.With(slog.String("component", "summary_store")),
	}
}

// Ensure PostgresSummaryStore implements store.SummaryStore interface
var _ store.SummaryStore = (*PostgresSummaryStore)(nil)

// Create implements store.SummaryStore.Create
// Returns store.ErrDuplicate if a summary with the same ID already exists,
// which finalization retries rely on to detect an earlier successful commit.
func (s *PostgresSummaryStore) Create(ctx context.Context, summary *domain.SessionSummary) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := summary.Validate(); err != nil {
		log.Warn("summary validation failed during create",
			slog.String("error", err.Error()),
			slog.String("summary_id", summary.ID.String()))
		return err
	}

	query := `
		INSERT INTO session_summaries (id, user_id, deck_id, started_at, ended_at, cards_seen, cards_rated, cards_known, accuracy, duration_ms, stats_applied, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	deckID := uuid.NullUUID{UUID: summary.DeckID, Valid: summary.DeckID != uuid.Nil}

	_, err := s.db.ExecContext(
		ctx,
		query,
		summary.ID,
		summary.UserID,
		deckID,
		summary.StartedAt,
		summary.EndedAt,
		summary.CardsSeen,
		summary.CardsRated,
		summary.CardsKnown,
		summary.Accuracy,
		summary.Duration.Milliseconds(),
		summary.StatsApplied,
		summary.CreatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("summary already committed",
				slog.String("summary_id", summary.ID.String()))
			return fmt.Errorf("%w: session summary: %v", store.ErrDuplicate, err)
		}
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: user or deck missing for summary: %v",
				store.ErrInvalidEntity, err)
		}

		log.Error("failed to create summary",
			slog.String("error", err.Error()),
			slog.String("summary_id", summary.ID.String()))
		return MapError(err)
	}

	log.Info("session summary committed",
		slog.String("summary_id", summary.ID.String()),
		slog.String("user_id", summary.UserID.String()),
		slog.Int("cards_seen", summary.CardsSeen),
		slog.Int("cards_rated", summary.CardsRated))
	return nil
}

// GetByID implements store.SummaryStore.GetByID
// Returns store.ErrSummaryNotFound if the summary does not exist.
func (s *PostgresSummaryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SessionSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, deck_id, started_at, ended_at, cards_seen, cards_rated, cards_known, accuracy, duration_ms, stats_applied, created_at
		FROM session_summaries
		WHERE id = $1
	`

	summary, err := scanSummary(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("summary not found", slog.String("summary_id", id.String()))
			return nil, store.ErrSummaryNotFound
		}
		log.Error("failed to get summary by ID",
			slog.String("error", err.Error()),
			slog.String("summary_id", id.String()))
		return nil, err
	}

	return summary, nil
}

// ListUnapplied implements store.SummaryStore.ListUnapplied
// Summaries come back oldest first so replay preserves session order.
func (s *PostgresSummaryStore) ListUnapplied(ctx context.Context, limit int) ([]*domain.SessionSummary, error) {
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	query := `
		SELECT id, user_id, deck_id, started_at, ended_at, cards_seen, cards_rated, cards_known, accuracy, duration_ms, stats_applied, created_at
		FROM session_summaries
		WHERE NOT stats_applied
		ORDER BY ended_at ASC, id ASC
		LIMIT $1
	`
	return s.listSummaries(ctx, query, limitArg)
}

// ListByUser implements store.SummaryStore.ListByUser
func (s *PostgresSummaryStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.SessionSummary, error) {
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	query := `
		SELECT id, user_id, deck_id, started_at, ended_at, cards_seen, cards_rated, cards_known, accuracy, duration_ms, stats_applied, created_at
		FROM session_summaries
		WHERE user_id = $1
		ORDER BY ended_at DESC, id DESC
		LIMIT $2
	`
	return s.listSummaries(ctx, query, userID, limitArg)
}

// listSummaries runs a summary query and scans all rows.
func (s *PostgresSummaryStore) listSummaries(ctx context.Context, query string, args ...any) ([]*domain.SessionSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query summaries",
			slog.String("error", err.Error()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	summaries := []*domain.SessionSummary{}
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			log.Error("failed to scan summary row",
				slog.String("error", err.Error()))
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	return summaries, nil
}

func scanSummary(row rowScanner) (*domain.SessionSummary, error) {
	var summary domain.SessionSummary
	var deckID uuid.NullUUID
	var durationMs int64

	err := row.Scan(
		&summary.ID,
		&summary.UserID,
		&deckID,
		&summary.StartedAt,
		&summary.EndedAt,
		&summary.CardsSeen,
		&summary.CardsRated,
		&summary.CardsKnown,
		&summary.Accuracy,
		&durationMs,
		&summary.StatsApplied,
		&summary.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if deckID.Valid {
		summary.DeckID = deckID.UUID
	}
	summary.Duration = time.Duration(durationMs) * time.Millisecond

	return &summary, nil
}
