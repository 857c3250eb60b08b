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

// PostgresProgressStore implements the store.ProgressStore interface
// using a PostgreSQL database as the storage backend.
//
// Unlike the stores that accept a store.DBTX, this store requires a full
// *sql.DB because Update opens its own transaction to make the
// read-modify-write cycle atomic.
type PostgresProgressStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of the ProgressStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresProgressStore(db *sql.DB, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure PostgresProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

// Get implements store.ProgressStore.Get
// Returns store.ErrProgressNotFound if the user has never reviewed the card.
func (s *PostgresProgressStore) Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.Progress, error) {
	return s.getProgress(ctx, s.db, userID, cardID, false)
}

// Update implements store.ProgressStore.Update
// The current record is read with a row lock, fn derives the next record,
// and the result is upserted, all within one transaction. fn receives nil
// when the user has never reviewed the card.
func (s *PostgresProgressStore) Update(
	ctx context.Context,
	userID, cardID uuid.UUID,
	fn store.ProgressUpdateFn,
) (*domain.Progress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Progress
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		current, err := s.getProgress(ctx, tx, userID, cardID, true)
		if err != nil {
			if !errors.Is(err, store.ErrProgressNotFound) {
				return err
			}
			current = nil // first review of this card
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
// Results are ordered by due date, then lapse count (most lapsed first),
// then card ID as a stable tiebreak.
func (s *PostgresProgressStore) DueCards(
	ctx context.Context,
	userID uuid.UUID,
	scope domain.DeckScope,
	asOf time.Time,
	limit int,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// LIMIT NULL means "no limit" in PostgreSQL.
	var limitArg any
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
			WHERE p.user_id = $1 AND p.due_at <= $2
			ORDER BY p.due_at ASC, p.lapse_count DESC, c.id ASC
			LIMIT $3
		`
		args = []any{userID, asOf, limitArg}
	} else {
		query = `
			SELECT c.id, c.deck_id, c.card_type, c.prompt, c.answer, c.translation, c.example, c.media_ref, c.position, c.created_at
			FROM progress p
			JOIN cards c ON c.id = p.card_id
			WHERE p.user_id = $1 AND p.due_at <= $2 AND c.deck_id = $3
			ORDER BY p.due_at ASC, p.lapse_count DESC, c.id ASC
			LIMIT $4
		`
		args = []any{userID, asOf, scope.DeckID, limitArg}
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
// Across all decks only cards in decks the user owns are considered; with a
// single-deck scope the deck may also be shared by another user.
func (s *PostgresProgressStore) NewCards(
	ctx context.Context,
	userID uuid.UUID,
	scope domain.DeckScope,
	limit int,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var limitArg any
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
			WHERE d.owner_id = $1
			  AND NOT EXISTS (SELECT 1 FROM progress p WHERE p.user_id = $1 AND p.card_id = c.id)
			ORDER BY d.created_at ASC, c.position ASC, c.created_at ASC, c.id ASC
			LIMIT $2
		`
		args = []any{userID, limitArg}
	} else {
		query = `
			SELECT c.id, c.deck_id, c.card_type, c.prompt, c.answer, c.translation, c.example, c.media_ref, c.position, c.created_at
			FROM cards c
			JOIN decks d ON d.id = c.deck_id
			WHERE c.deck_id = $2
			  AND (d.owner_id = $1 OR d.visibility = 'shared')
			  AND NOT EXISTS (SELECT 1 FROM progress p WHERE p.user_id = $1 AND p.card_id = c.id)
			ORDER BY c.position ASC, c.created_at ASC, c.id ASC
			LIMIT $3
		`
		args = []any{userID, scope.DeckID, limitArg}
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
func (s *PostgresProgressStore) DueCount(ctx context.Context, userID uuid.UUID, asOf time.Time) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT COUNT(*) FROM progress WHERE user_id = $1 AND due_at <= $2`

	var count int
	err := s.db.QueryRowContext(ctx, query, userID, asOf).Scan(&count)
	if err != nil {
		log.Error("failed to count due cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, err
	}

	return count, nil
}

// getProgress reads one progress row, optionally locking it for update.
// Returns store.ErrProgressNotFound if no row exists.
func (s *PostgresProgressStore) getProgress(
	ctx context.Context,
	q store.DBTX,
	userID, cardID uuid.UUID,
	lock bool,
) (*domain.Progress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, card_id, repetition, ease_factor, interval_days, due_at, lapse_count, last_reviewed_at, times_seen, created_at, updated_at
		FROM progress
		WHERE user_id = $1 AND card_id = $2
	`
	if lock {
		query += " FOR UPDATE"
	}

	progress, err := scanProgress(q.QueryRowContext(ctx, query, userID, cardID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProgressNotFound
		}
		log.Error("failed to get progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return nil, err
	}

	return progress, nil
}

// upsertProgress writes a progress record, inserting or replacing the row
// for its (user, card) pair.
func upsertProgress(ctx context.Context, q store.DBTX, p *domain.Progress) error {
	query := `
		INSERT INTO progress (user_id, card_id, repetition, ease_factor, interval_days, due_at, lapse_count, last_reviewed_at, times_seen, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, card_id) DO UPDATE SET
			repetition = EXCLUDED.repetition,
			ease_factor = EXCLUDED.ease_factor,
			interval_days = EXCLUDED.interval_days,
			due_at = EXCLUDED.due_at,
			lapse_count = EXCLUDED.lapse_count,
			last_reviewed_at = EXCLUDED.last_reviewed_at,
			times_seen = EXCLUDED.times_seen,
			updated_at = EXCLUDED.updated_at
	`

	lastReviewed := sql.NullTime{Time: p.LastReviewedAt, Valid: !p.LastReviewedAt.IsZero()}

	_, err := q.ExecContext(
		ctx,
		query,
		p.UserID,
		p.CardID,
		p.Repetition,
		p.EaseFactor,
		p.IntervalDays,
		p.DueAt,
		p.LapseCount,
		lastReviewed,
		p.TimesSeen,
		p.CreatedAt,
		p.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: user or card missing for progress record: %v",
				store.ErrInvalidEntity, err)
		}
		return MapError(err)
	}

	return nil
}

// queryCards runs a card query and scans all rows.
func (s *PostgresProgressStore) queryCards(ctx context.Context, query string, args ...any) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	cards := []*domain.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

func scanProgress(row rowScanner) (*domain.Progress, error) {
	var progress domain.Progress
	var lastReviewed sql.NullTime

	err := row.Scan(
		&progress.UserID,
		&progress.CardID,
		&progress.Repetition,
		&progress.EaseFactor,
		&progress.IntervalDays,
		&progress.DueAt,
		&progress.LapseCount,
		&lastReviewed,
		&progress.TimesSeen,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastReviewed.Valid {
		progress.LastReviewedAt = lastReviewed.Time
	}

	return &progress, nil
}
