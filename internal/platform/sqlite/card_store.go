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

// SQLiteCardStore implements the store.CardStore interface
// using an embedded SQLite database as the storage backend.
type SQLiteCardStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewSQLiteCardStore creates a new SQLite implementation of the CardStore interface.
// If logger is nil, a default logger will be used.
func NewSQLiteCardStore(db *sqlx.DB, logger *slog.Logger) *SQLiteCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure SQLiteCardStore implements store.CardStore interface
var _ store.CardStore = (*SQLiteCardStore)(nil)

// Create implements store.CardStore.Create
// A zero Position is replaced with the next free position in the deck.
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *SQLiteCardStore) Create(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	query := `
		INSERT INTO cards (id, deck_id, card_type, prompt, answer, translation, example, media_ref, position, created_at)
		VALUES (:id, :deck_id, :card_type, :prompt, :answer, :translation, :example, :media_ref,
		        CASE WHEN :position > 0 THEN :position ELSE (SELECT COALESCE(MAX(position), 0) + 1 FROM cards WHERE deck_id = :deck_id) END,
		        :created_at)
	`
	_, err := s.db.NamedExecContext(ctx, query, newCardRow(card))
	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during card creation",
				slog.String("card_id", card.ID.String()),
				slog.String("deck_id", card.DeckID.String()))
			return fmt.Errorf("%w: %v", store.ErrDeckNotFound, err)
		}

		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return mapError(err)
	}

	log.Debug("card created successfully",
		slog.String("card_id", card.ID.String()),
		slog.String("deck_id", card.DeckID.String()))
	return nil
}

// GetByID implements store.CardStore.GetByID
// Returns store.ErrCardNotFound if the card does not exist.
func (s *SQLiteCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, deck_id, card_type, prompt, answer, translation, example, media_ref, position, created_at
		FROM cards
		WHERE id = ?
	`

	var row cardRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card not found", slog.String("card_id", id.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card by ID",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, err
	}

	return row.toDomain(), nil
}

// Update implements store.CardStore.Update
// Only content fields change; position and deck membership are fixed at creation.
// Returns store.ErrCardNotFound if the card does not exist.
func (s *SQLiteCardStore) Update(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during update",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	query := `
		UPDATE cards
		SET card_type = :card_type, prompt = :prompt, answer = :answer,
		    translation = :translation, example = :example, media_ref = :media_ref
		WHERE id = :id
	`

	result, err := s.db.NamedExecContext(ctx, query, newCardRow(card))
	if err != nil {
		log.Error("failed to update card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("card not found for update",
			slog.String("card_id", card.ID.String()))
		return store.ErrCardNotFound
	}

	log.Debug("card updated successfully",
		slog.String("card_id", card.ID.String()))
	return nil
}

// Delete implements store.CardStore.Delete
// Progress records for the card are removed by ON DELETE CASCADE.
// Returns store.ErrCardNotFound if the card does not exist.
func (s *SQLiteCardStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("card not found for delete",
			slog.String("card_id", id.String()))
		return store.ErrCardNotFound
	}

	log.Info("card deleted successfully",
		slog.String("card_id", id.String()))
	return nil
}

// ListByDeck implements store.CardStore.ListByDeck
// Cards are returned in deck order: position, then creation time.
func (s *SQLiteCardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, deck_id, card_type, prompt, answer, translation, example, media_ref, position, created_at
		FROM cards
		WHERE deck_id = ?
		ORDER BY position ASC, created_at ASC, id ASC
	`

	var rows []cardRow
	if err := s.db.SelectContext(ctx, &rows, query, deckID); err != nil {
		log.Error("failed to list cards by deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, err
	}

	cards := make([]*domain.Card, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, row.toDomain())
	}
	return cards, nil
}
