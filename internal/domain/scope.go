package domain

import "github.com/google/uuid"

// DeckScope selects which of a user's decks an operation covers: a single
// deck, or every deck the user studies. The zero value means all decks.
type DeckScope struct {
	DeckID uuid.UUID
}

// ScopeAll returns a scope covering every deck the user studies.
func ScopeAll() DeckScope {
	return DeckScope{}
}

// ScopeDeck returns a scope restricted to a single deck.
func ScopeDeck(deckID uuid.UUID) DeckScope {
	return DeckScope{DeckID: deckID}
}

// All reports whether the scope covers every deck.
func (s DeckScope) All() bool {
	return s.DeckID == uuid.Nil
}
