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

// SQLiteDeckStore implements the store.DeckStore interface
// using an embedded SQLite database as the storage backend.
type SQLiteDeckStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewSQLiteDeckStore creates a new SQLite implementation of the DeckStore interface.
// If logger is nil, a default logger will be used.
func NewSQLiteDeckStore(db *sqlx.DB, logger *slog.Logger) *SQLiteDeckStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteDeckStore{
		db:     db,
		logger: logger.With(slog.String("component", "deck_store")),
	}
}

// Ensure SQLiteDeckStore implements store.DeckStore interface
var _ store.DeckStore = (*SQLiteDeckStore)(nil)

// Create implements store.DeckStore.Create
func (s *SQLiteDeckStore) Create(ctx context.Context, deck *domain.Deck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := deck.Validate(); err != nil {
		log.Warn("deck validation failed during create",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return err
	}

	query := `
		INSERT INTO decks (id, owner_id, name, description, category, visibility, created_at)
		VALUES (:id, :owner_id, :name, :description, :category, :visibility, :created_at)
	`
	_, err := s.db.NamedExecContext(ctx, query, newDeckRow(deck))
	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("deck owner does not exist",
				slog.String("deck_id", deck.ID.String()),
				slog.String("owner_id", deck.OwnerID.String()))
			return fmt.Errorf("%w: owner with ID %s not found", store.ErrInvalidEntity, deck.OwnerID)
		}

		log.Error("failed to create deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return mapError(err)
	}

	log.Info("deck created successfully",
		slog.String("deck_id", deck.ID.String()),
		slog.String("owner_id", deck.OwnerID.String()))
	return nil
}

// GetByID implements store.DeckStore.GetByID
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *SQLiteDeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, name, description, category, visibility, created_at
		FROM decks
		WHERE id = ?
	`

	var row deckRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("deck not found", slog.String("deck_id", id.String()))
			return nil, store.ErrDeckNotFound
		}
		log.Error("failed to get deck by ID",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return nil, err
	}

	return row.toDomain(), nil
}

// Update implements store.DeckStore.Update
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *SQLiteDeckStore) Update(ctx context.Context, deck *domain.Deck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := deck.Validate(); err != nil {
		log.Warn("deck validation failed during update",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return err
	}

	query := `
		UPDATE decks
		SET name = :name, description = :description, category = :category, visibility = :visibility
		WHERE id = :id
	`

	result, err := s.db.NamedExecContext(ctx, query, newDeckRow(deck))
	if err != nil {
		log.Error("failed to update deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("deck not found for update",
			slog.String("deck_id", deck.ID.String()))
		return store.ErrDeckNotFound
	}

	log.Debug("deck updated successfully",
		slog.String("deck_id", deck.ID.String()))
	return nil
}

// Delete implements store.DeckStore.Delete
// Cards and progress records in the deck are removed by ON DELETE CASCADE.
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *SQLiteDeckStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("deck not found for delete",
			slog.String("deck_id", id.String()))
		return store.ErrDeckNotFound
	}

	log.Info("deck deleted successfully",
		slog.String("deck_id", id.String()))
	return nil
}

// ListByOwner implements store.DeckStore.ListByOwner
// Decks are ordered by creation time.
func (s *SQLiteDeckStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Deck, error) {
	return s.listDecks(ctx, `
		SELECT id, owner_id, name, description, category, visibility, created_at
		FROM decks
		WHERE owner_id = ?
		ORDER BY created_at ASC, id ASC
	`, ownerID)
}

// ListShared implements store.DeckStore.ListShared
// Decks are ordered by creation time.
func (s *SQLiteDeckStore) ListShared(ctx context.Context) ([]*domain.Deck, error) {
	return s.listDecks(ctx, `
		SELECT id, owner_id, name, description, category, visibility, created_at
		FROM decks
		WHERE visibility = 'shared'
		ORDER BY created_at ASC, id ASC
	`)
}

func (s *SQLiteDeckStore) listDecks(ctx context.Context, query string, args ...any) ([]*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var rows []deckRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		log.Error("failed to list decks",
			slog.String("error", err.Error()))
		return nil, err
	}

	decks := make([]*domain.Deck, 0, len(rows))
	for _, row := range rows {
		decks = append(decks, row.toDomain())
	}
	return decks, nil
}
