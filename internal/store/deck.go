package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/pholn/mnemo/internal/domain"
)

// DeckStore defines the interface for deck data persistence.
type DeckStore interface {
	// Create saves a new deck to the store.
	// Returns validation errors from the domain Deck if data is invalid.
	Create(ctx context.Context, deck *domain.Deck) error

	// GetByID retrieves a deck by its unique ID.
	// Returns ErrDeckNotFound if the deck does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// Update modifies an existing deck's details.
	// Returns ErrDeckNotFound if the deck does not exist.
	// Returns validation errors from the domain Deck if data is invalid.
	Update(ctx context.Context, deck *domain.Deck) error

	// Delete removes a deck from the store by its ID.
	// Returns ErrDeckNotFound if the deck does not exist.
	//
	// Deleting a deck also removes its cards and any per-user progress on
	// those cards. Implementations rely on ON DELETE CASCADE foreign key
	// constraints in the schema rather than deleting related rows in
	// application code.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByOwner retrieves all decks owned by the given user, ordered by
	// creation time.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Deck, error)

	// ListShared retrieves all decks with shared visibility, ordered by
	// creation time.
	ListShared(ctx context.Context) ([]*domain.Deck, error)
}
