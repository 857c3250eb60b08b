package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/pholn/mnemo/internal/domain"
)

// CardStore defines the interface for card data persistence.
type CardStore interface {
	// Create saves a new card to the store. If the card's Position is zero,
	// the store assigns the next position in the deck so cards retain their
	// insertion order.
	// Returns ErrDeckNotFound if the referenced deck does not exist.
	// Returns validation errors from the domain Card if data is invalid.
	Create(ctx context.Context, card *domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// Update modifies an existing card's content fields. Position and deck
	// membership are not changed by Update.
	// Returns ErrCardNotFound if the card does not exist.
	// Returns validation errors from the domain Card if data is invalid.
	Update(ctx context.Context, card *domain.Card) error

	// Delete removes a card from the store by its ID.
	// Returns ErrCardNotFound if the card does not exist.
	// Per-user progress on the card is removed through ON DELETE CASCADE.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByDeck retrieves all cards in the given deck in insertion order
	// (position, then creation time).
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error)
}
