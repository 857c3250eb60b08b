package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Deck-specific validation errors
var (
	// ErrDeckIDEmpty is returned when a deck ID is empty or nil.
	ErrDeckIDEmpty = errors.New("deck ID cannot be empty")

	// ErrDeckOwnerEmpty is returned when a deck's owner ID is empty or nil.
	ErrDeckOwnerEmpty = errors.New("deck owner ID cannot be empty")

	// ErrDeckNameEmpty is returned when a deck name is empty.
	ErrDeckNameEmpty = errors.New("deck name cannot be empty")
)

// Visibility controls who may study a deck.
type Visibility string

const (
	// VisibilityPrivate restricts a deck to its owner.
	VisibilityPrivate Visibility = "private"

	// VisibilityShared lets other users study the deck read-only; each
	// studier keeps independent progress records.
	VisibilityShared Visibility = "shared"
)

// IsValid reports whether v is a known visibility.
func (v Visibility) IsValid() bool {
	return v == VisibilityPrivate || v == VisibilityShared
}

// Deck is a named collection of cards owned by one user. Deleting a deck
// cascades to its cards and their progress records.
type Deck struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Visibility  Visibility `json:"visibility"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewDeck creates a private Deck with the given owner and name.
// Returns an error if validation fails.
func NewDeck(ownerID uuid.UUID, name string, now time.Time) (*Deck, error) {
	deck := &Deck{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Name:       name,
		Visibility: VisibilityPrivate,
		CreatedAt:  now.UTC(),
	}

	if err := deck.Validate(); err != nil {
		return nil, err
	}

	return deck, nil
}

// Validate checks if the Deck has valid data.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDeckIDEmpty
	}

	if d.OwnerID == uuid.Nil {
		return ErrDeckOwnerEmpty
	}

	if d.Name == "" {
		return ErrDeckNameEmpty
	}

	if !d.Visibility.IsValid() {
		return ErrInvalidVisibility
	}

	return nil
}
