package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pholn/mnemo/internal/clock"
)

// Progress-specific validation errors
var (
	// ErrProgressUserIDEmpty is returned when a progress record's user ID
	// is empty or nil.
	ErrProgressUserIDEmpty = errors.New("progress user ID cannot be empty")

	// ErrProgressCardIDEmpty is returned when a progress record's card ID
	// is empty or nil.
	ErrProgressCardIDEmpty = errors.New("progress card ID cannot be empty")

	// ErrProgressEaseInvalid is returned when an ease factor is not positive.
	ErrProgressEaseInvalid = errors.New("ease factor must be positive")

	// ErrProgressCountsInvalid is returned when a repetition, interval,
	// lapse, or times-seen value is negative.
	ErrProgressCountsInvalid = errors.New("progress counts cannot be negative")
)

// DefaultEaseFactor is the ease assigned to a card the first time a user
// reviews it.
const DefaultEaseFactor = 2.5

// Progress is the mutable scheduling state for one (user, card) pair. At
// most one record exists per pair; it is created lazily on first review. A
// card with no record is "new" for that user.
type Progress struct {
	UserID         uuid.UUID `json:"user_id"`
	CardID         uuid.UUID `json:"card_id"`
	Repetition     int       `json:"repetition"`
	EaseFactor     float64   `json:"ease_factor"`
	IntervalDays   int       `json:"interval_days"`
	DueAt          time.Time `json:"due_at"` // midnight UTC of the due day
	LapseCount     int       `json:"lapse_count"`
	LastReviewedAt time.Time `json:"last_reviewed_at"`
	TimesSeen      int       `json:"times_seen"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewProgress returns a fresh record for a card the user has never reviewed:
// due immediately, default ease, zero interval.
func NewProgress(userID, cardID uuid.UUID, now time.Time) *Progress {
	now = now.UTC()
	return &Progress{
		UserID:     userID,
		CardID:     cardID,
		EaseFactor: DefaultEaseFactor,
		DueAt:      clock.StartOfDay(now),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate checks if the Progress record has valid data.
func (p *Progress) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrProgressUserIDEmpty
	}

	if p.CardID == uuid.Nil {
		return ErrProgressCardIDEmpty
	}

	if p.EaseFactor <= 0 {
		return ErrProgressEaseInvalid
	}

	if p.Repetition < 0 || p.IntervalDays < 0 || p.LapseCount < 0 || p.TimesSeen < 0 {
		return ErrProgressCountsInvalid
	}

	return nil
}

// IsDue reports whether the card is due for review at the given instant.
func (p *Progress) IsDue(asOf time.Time) bool {
	return !p.DueAt.After(asOf)
}
