package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardDeckIDEmpty is returned when a card's deck ID is empty or nil.
	ErrCardDeckIDEmpty = errors.New("card deck ID cannot be empty")

	// ErrCardPromptEmpty is returned when a card's prompt is empty.
	ErrCardPromptEmpty = errors.New("card prompt cannot be empty")

	// ErrCardAnswerEmpty is returned when a card's answer is empty.
	ErrCardAnswerEmpty = errors.New("card answer cannot be empty")
)

// CardType tags a card with the kind of material it drills. The set is
// closed; unknown tags fail validation.
type CardType string

const (
	CardTypeVocabulary CardType = "vocabulary"
	CardTypeGrammar    CardType = "grammar"
	CardTypePhrase     CardType = "phrase"
	CardTypeSpeaking   CardType = "speaking"
)

// IsValid reports whether t is a known card type.
func (t CardType) IsValid() bool {
	switch t {
	case CardTypeVocabulary, CardTypeGrammar, CardTypePhrase, CardTypeSpeaking:
		return true
	}
	return false
}

// Card is one study item in a deck. Prompt and Answer are the shared base
// fields; Translation, Example, and MediaRef are optional extras whose use
// depends on the card type. Position is the card's deck-insertion rank,
// assigned by the store on create.
type Card struct {
	ID          uuid.UUID `json:"id"`
	DeckID      uuid.UUID `json:"deck_id"`
	Type        CardType  `json:"type"`
	Prompt      string    `json:"prompt"`
	Answer      string    `json:"answer"`
	Translation string    `json:"translation,omitempty"`
	Example     string    `json:"example,omitempty"`
	MediaRef    string    `json:"media_ref,omitempty"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCard creates a Card of the given type with the required prompt and
// answer. Optional fields are set directly on the returned card before it is
// stored. Returns an error if validation fails.
func NewCard(deckID uuid.UUID, cardType CardType, prompt, answer string, now time.Time) (*Card, error) {
	card := &Card{
		ID:        uuid.New(),
		DeckID:    deckID,
		Type:      cardType,
		Prompt:    prompt,
		Answer:    answer,
		CreatedAt: now.UTC(),
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.DeckID == uuid.Nil {
		return ErrCardDeckIDEmpty
	}

	if !c.Type.IsValid() {
		return ErrInvalidCardType
	}

	if c.Prompt == "" {
		return ErrCardPromptEmpty
	}

	if c.Answer == "" {
		return ErrCardAnswerEmpty
	}

	return nil
}
