package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pholn/mnemo/internal/domain"
	"github.com/pholn/mnemo/internal/platform/logger"
	"github.com/pholn/mnemo/internal/store"
)

// PostgresDeckStore implements the store.DeckStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDeckStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDeckStore creates a new PostgreSQL implementation of the DeckStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresDeckStore(db store.DBTX, logger *slog.Logger) *PostgresDeckStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDeckStore{
		db:     db,
		logger: logger.With(slog.String("component", "deck_store")),
	}
}

// Ensure PostgresDeckStore implements store.DeckStore interface
var _ store.DeckStore = (*PostgresDeckStore)(nil)

// Create implements store.DeckStore.Create
// Returns store.ErrInvalidEntity if the owner does not exist (foreign key violation).
func (s *PostgresDeckStore) Create(ctx context.Context, deck *domain.Deck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := deck.Validate(); err != nil {
		log.Warn("deck validation failed during create",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return err
	}

	query := `
		INSERT INTO decks (id, owner_id, name, description, category, visibility, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		deck.ID,
		deck.OwnerID,
		deck.Name,
		deck.Description,
		deck.Category,
		deck.Visibility,
		deck.CreatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during deck creation",
				slog.String("deck_id", deck.ID.String()),
				slog.String("owner_id", deck.OwnerID.String()))
			return fmt.Errorf("%w: owner with ID %s not found",
				store.ErrInvalidEntity, deck.OwnerID)
		}

		log.Error("failed to create deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return MapError(err)
	}

	log.Info("deck created successfully",
		slog.String("deck_id", deck.ID.String()),
		slog.String("owner_id", deck.OwnerID.String()),
		slog.String("name", deck.Name))
	return nil
}

// GetByID implements store.DeckStore.GetByID
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, name, description, category, visibility, created_at
		FROM decks
		WHERE id = $1
	`

	deck, err := scanDeck(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("deck not found", slog.String("deck_id", id.String()))
			return nil, store.ErrDeckNotFound
		}
		log.Error("failed to get deck by ID",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return nil, err
	}

	return deck, nil
}

// Update implements store.DeckStore.Update
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) Update(ctx context.Context, deck *domain.Deck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := deck.Validate(); err != nil {
		log.Warn("deck validation failed during update",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return err
	}

	query := `
		UPDATE decks
		SET name = $1, description = $2, category = $3, visibility = $4
		WHERE id = $5
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		deck.Name,
		deck.Description,
		deck.Category,
		deck.Visibility,
		deck.ID,
	)

	if err != nil {
		log.Error("failed to update deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return MapError(err)
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
// Returns store.ErrDeckNotFound if the deck does not exist.
// Cards and progress rows are removed by ON DELETE CASCADE.
func (s *PostgresDeckStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM decks WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return MapError(err)
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
func (s *PostgresDeckStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Deck, error) {
	query := `
		SELECT id, owner_id, name, description, category, visibility, created_at
		FROM decks
		WHERE owner_id = $1
		ORDER BY created_at ASC, id ASC
	`
	return s.listDecks(ctx, query, ownerID)
}

// ListShared implements store.DeckStore.ListShared
func (s *PostgresDeckStore) ListShared(ctx context.Context) ([]*domain.Deck, error) {
	query := `
		SELECT id, owner_id, name, description, category, visibility, created_at
		FROM decks
		WHERE visibility = 'shared'
		ORDER BY created_at ASC, id ASC
	`
	return s.listDecks(ctx, query)
}

// listDecks runs a deck query and scans all rows.
func (s *PostgresDeckStore) listDecks(ctx context.Context, query string, args ...any) ([]*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query decks",
			slog.String("error", err.Error()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	decks := []*domain.Deck{}
	for rows.Next() {
		deck, err := scanDeck(rows)
		if err != nil {
			log.Error("failed to scan deck row",
				slog.String("error", err.Error()))
			return nil, err
		}
		decks = append(decks, deck)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	return decks, nil
}

func scanDeck(row rowScanner) (*domain.Deck, error) {
	var deck domain.Deck
	var visibility string

	err := row.Scan(
		&deck.ID,
		&deck.OwnerID,
		&deck.Name,
		&deck.Description,
		&deck.Category,
		&visibility,
		&deck.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	deck.Visibility = domain.Visibility(visibility)
	return &deck, nil
}
