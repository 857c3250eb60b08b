package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pholn/mnemo/internal/domain"
)

// ProgressUpdateFn computes the next state of a progress record inside an
// atomic update. It receives the current record, or nil when the user has
// never reviewed the card, and returns the record to persist. Returning an
// error aborts the update and rolls back the transaction.
//
// The function must not retain or mutate the current record; it should
// derive a new record and return it.
type ProgressUpdateFn func(current *domain.Progress) (*domain.Progress, error)

// ProgressStore defines the interface for per-user card review progress.
type ProgressStore interface {
	// Get retrieves the progress record for the given user and card.
	// Returns ErrProgressNotFound if the user has never reviewed the card.
	Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.Progress, error)

	// Update atomically applies fn to the progress record for the given
	// user and card. The read, the call to fn, and the write all happen
	// inside a single transaction with the row locked, so concurrent
	// reviews of the same card by the same user serialize cleanly.
	//
	// fn receives nil when no record exists yet; the record fn returns is
	// inserted in that case. Returns the persisted record.
	Update(ctx context.Context, userID, cardID uuid.UUID, fn ProgressUpdateFn) (*domain.Progress, error)

	// DueCards retrieves cards the user has reviewed before whose due date
	// has arrived, ordered by due date (oldest first), then by lapse count
	// (most lapsed first), then by card ID for a stable tiebreak.
	//
	// scope restricts results to a single deck; a scope covering all decks
	// returns due cards across every deck the user has progress in.
	// limit <= 0 means no limit.
	DueCards(ctx context.Context, userID uuid.UUID, scope domain.DeckScope, asOf time.Time, limit int) ([]*domain.Card, error)

	// NewCards retrieves cards the user has never reviewed, in deck
	// insertion order. With a scope covering all decks, only cards in
	// decks owned by the user are considered; with a single-deck scope,
	// the deck may be owned by the user or shared.
	// limit <= 0 means no limit.
	NewCards(ctx context.Context, userID uuid.UUID, scope domain.DeckScope, limit int) ([]*domain.Card, error)

	// DueCount reports how many cards are due for the user across all
	// decks as of the given time.
	DueCount(ctx context.Context, userID uuid.UUID, asOf time.Time) (int, error)
}
