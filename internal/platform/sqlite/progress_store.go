package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pholn/mnemo/internal/domain"
	"github.com/pholn/mnemo/internal/platform/logger"
	"github.com/pholn/mnemo/internal/store"
)

// SQLiteProgressStore implements the store.ProgressStore interface
// using an embedded SQLite database as the storage backend.
// It holds the full pool rather than a single handle because Update opens
// its own transaction.
type SQLiteProgressStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewSQLiteProgressStore creates a new SQLite implementation of the ProgressStore interface.
// If logger is nil, a default logger will be used.
func NewSQLiteProgressStore(db *sqlx.DB, logger *slog.Logger) *SQLiteProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure SQLiteProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*SQLiteProgressStore)(nil)

// Get implements store.ProgressStore.Get
// Returns store.ErrProgressNotFound if the user has never reviewed the card.
func (s *SQLiteProgressStore) Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.Progress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row, err := getProgressRow(ctx, s.db, userID, cardID)
	if err != nil {
		if errors.Is(err, store.ErrProgressNotFound) {
			log.Debug("progress not found",
				slog.String("user_id", userID.String()),
				slog.String("card_id", cardID.String()))
			return nil, err
		}
		log.Error("failed to get progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return nil, err
	}

	return row.toDomain(), nil
}

// Update implements store.ProgressStore.Update
// The read-modify-write runs in one transaction. SQLite's single writer
// means no row lock is needed: the transaction owns the only connection.
func (s *SQLiteProgressStore) Update(
	ctx context.Context,
	userID, cardID uuid.UUID,
	fn store.ProgressUpdateFn,
) (*domain.Progress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Progress
	err := runInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var current *domain.Progress
		row, err := getProgressRow(ctx, tx, userID, cardID)
		switch {
		case err == nil:
			current = row.toDomain()
		case errors.Is(err, store.ErrProgressNotFound):
			// First review of this card; fn receives nil.
		default:
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			return fmt.Errorf("%w: progress update produced no record", store.ErrInvalidEntity)
		}

		if err := next.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}

		if err := upsertProgress(ctx, tx, next); err != nil {
			return err
		}

		updated = next
		return nil
	})
	if err != nil {
		log.Error("failed to update progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return nil, err
	}

	log.Debug("progress updated",
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()),
		slog.Int("repetition", updated.Repetition),
		slog.Int("interval_days", updated.IntervalDays))
	return updated, nil
}

// DueCards implements store.ProgressStore.DueCards
// Results are ordered most-overdue first, lapse-heavy cards breaking ties.
// A limit of zero or less returns every due card.
func (s *SQLiteProgressStore) DueCards(
	ctx context.Context,
	userID uuid.UUID,
	scope domain.DeckScope,
	asOf time.Time,
	limit int,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// LIMIT -1 means "no limit" in SQLite.
	limitArg := -1
	if limit > 0 {
		limitArg = limit
	}

	var query string
	var args []any

	if scope.All() {
		query = `
			SELECT c.id, c.deck_id, c.card_type, c.prompt, c.answer, c.translation, c.example, c.media_ref, c.position, c.created_at
			FROM progress p
			JOIN cards c ON c.id = p.card_id
			WHERE p.user_id = ? AND p.due_at <= ?
			ORDER BY p.due_at ASC, p.lapse_count DESC, c.id ASC
			LIMIT ?
		`
		args = []any{userID, toUnix(asOf), limitArg}
	} else {
		query = `
			SELECT c.id, c.deck_id, c.card_type, c.prompt, c.answer, c.translation, c.example, c.media_ref, c.position, c.created_at
			FROM progress p
			JOIN cards c ON c.id = p.card_id
			WHERE p.user_id = ? AND p.due_at <= ? AND c.deck_id = ?
			ORDER BY p.due_at ASC, p.lapse_count DESC, c.id ASC
			LIMIT ?
		`
		args = []any{userID, toUnix(asOf), scope.DeckID, limitArg}
	}

	cards, err := s.queryCards(ctx, query, args...)
	if err != nil {
		log.Error("failed to query due cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	log.Debug("due cards fetched",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(cards)))
	return cards, nil
}

// NewCards implements store.ProgressStore.NewCards
// All-decks scope draws from the user's own decks; a deck scope also admits
// shared decks. Cards follow deck insertion order.
func (s *SQLiteProgressStore) NewCards(
	ctx context.Context,
	userID uuid.UUID,
	scope domain.DeckScope,
	limit int,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	limitArg := -1
	if limit > 0 {
		limitArg = limit
	}

	var query string
	var args []any

	if scope.All() {
		query = `
			SELECT c.id, c.deck_id, c.card_type, c.prompt, c.answer, c.translation, c.example, c.media_ref, c.position, c.created_at
			FROM cards c
			JOIN decks d ON d.id = c.deck_id
			WHERE d.owner_id = ?
			  AND NOT EXISTS (SELECT 1 FROM progress p WHERE p.user_id = ? AND p.card_id = c.id)
			ORDER BY d.created_at ASC, c.position ASC, c.created_at ASC, c.id ASC
			LIMIT ?
		`
		args = []any{userID, userID, limitArg}
	} else {
		query = `
			SELECT c.id, c.deck_id, c.card_type, c.prompt, c.answer, c.translation, c.example, c.media_ref, c.position, c.created_at
			FROM cards c
			JOIN decks d ON d.id = c.deck_id
			WHERE c.deck_id = ?
			  AND (d.owner_id = ? OR d.visibility = 'shared')
			  AND NOT EXISTS (SELECT 1 FROM progress p WHERE p.user_id = ? AND p.card_id = c.id)
			ORDER BY c.position ASC, c.created_at ASC, c.id ASC
			LIMIT ?
		`
		args = []any{scope.DeckID, userID, userID, limitArg}
	}

	cards, err := s.queryCards(ctx, query, args...)
	if err != nil {
		log.Error("failed to query new cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	log.Debug("new cards fetched",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(cards)))
	return cards, nil
}

// DueCount implements store.ProgressStore.DueCount
func (s *SQLiteProgressStore) DueCount(ctx context.Context, userID uuid.UUID, asOf time.Time) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM progress WHERE user_id = ? AND due_at <= ?`,
		userID, toUnix(asOf))
	if err != nil {
		log.Error("failed to count due cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, err
	}

	return count, nil
}

func (s *SQLiteProgressStore) queryCards(ctx context.Context, query string, args ...any) ([]*domain.Card, error) {
	var rows []cardRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	cards := make([]*domain.Card, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, row.toDomain())
	}
	return cards, nil
}

// getProgressRow fetches one progress row through any sqlx handle so it
// works both on the pool and inside Update's transaction.
func getProgressRow(ctx context.Context, q sqlx.QueryerContext, userID, cardID uuid.UUID) (progressRow, error) {
	query := `
		SELECT user_id, card_id, repetition, ease_factor, interval_days, due_at, lapse_count, last_reviewed_at, times_seen, created_at, updated_at
		FROM progress
		WHERE user_id = ? AND card_id = ?
	`

	var row progressRow
	if err := sqlx.GetContext(ctx, q, &row, query, userID, cardID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return progressRow{}, store.ErrProgressNotFound
		}
		return progressRow{}, err
	}
	return row, nil
}

func upsertProgress(ctx context.Context, tx *sqlx.Tx, p *domain.Progress) error {
	query := `
		INSERT INTO progress (user_id, card_id, repetition, ease_factor, interval_days, due_at, lapse_count, last_reviewed_at, times_seen, created_at, updated_at)
		VALUES (:user_id, :card_id, :repetition, :ease_factor, :interval_days, :due_at, :lapse_count, :last_reviewed_at, :times_seen, :created_at, :updated_at)
		ON CONFLICT (user_id, card_id) DO UPDATE SET
			repetition = excluded.repetition,
			ease_factor = excluded.ease_factor,
			interval_days = excluded.interval_days,
			due_at = excluded.due_at,
			lapse_count = excluded.lapse_count,
			last_reviewed_at = excluded.last_reviewed_at,
			times_seen = excluded.times_seen,
			updated_at = excluded.updated_at
	`

	if _, err := tx.NamedExecContext(ctx, query, newProgressRow(p)); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: user or card missing for progress record", store.ErrInvalidEntity)
		}
		return mapError(err)
	}
	return nil
}
