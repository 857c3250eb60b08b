package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Summary-specific validation errors
var (
	// ErrSummaryIDEmpty is returned when a session summary ID is empty or nil.
	ErrSummaryIDEmpty = errors.New("summary ID cannot be empty")

	// ErrSummaryUserIDEmpty is returned when a summary's user ID is empty or nil.
	ErrSummaryUserIDEmpty = errors.New("summary user ID cannot be empty")

	// ErrSummaryTimesInvalid is returned when a summary ends before it starts.
	ErrSummaryTimesInvalid = errors.New("summary end time cannot precede start time")

	// ErrSummaryCountsInvalid is returned when summary counters are negative
	// or inconsistent with each other.
	ErrSummaryCountsInvalid = errors.New("summary counts are inconsistent")
)

// Outcome records the result of presenting one card during a session.
// Latency is the time the learner looked at the prompt before revealing the
// answer.
type Outcome struct {
	CardID  uuid.UUID     `json:"card_id"`
	Grade   Grade         `json:"grade"`
	Known   bool          `json:"known"`
	Latency time.Duration `json:"latency"`
	RatedAt time.Time     `json:"rated_at"`
}

// SessionSummary is the durable record of one completed (or abandoned) study
// session. StatsApplied marks whether the summary has been rolled into the
// user's aggregate stats; unapplied summaries are the replay unit after a
// partial finalization failure.
type SessionSummary struct {
	ID           uuid.UUID     `json:"id"`
	UserID       uuid.UUID     `json:"user_id"`
	DeckID       uuid.UUID     `json:"deck_id,omitempty"` // uuid.Nil when the session covered all decks
	StartedAt    time.Time     `json:"started_at"`
	EndedAt      time.Time     `json:"ended_at"`
	CardsSeen    int           `json:"cards_seen"`  // rated + skipped
	CardsRated   int           `json:"cards_rated"` // accuracy denominator
	CardsKnown   int           `json:"cards_known"`
	Accuracy     float64       `json:"accuracy"` // known/rated, 0 when nothing was rated
	Duration     time.Duration `json:"duration"`
	StatsApplied bool          `json:"stats_applied"`
	CreatedAt    time.Time     `json:"created_at"`
}

// NewSessionSummary builds the summary for a finished session from its
// recorded outcomes and skip count. Returns an error if validation fails.
func NewSessionSummary(
	userID uuid.UUID,
	scope DeckScope,
	outcomes []Outcome,
	skipped int,
	startedAt, endedAt time.Time,
) (*SessionSummary, error) {
	known := 0
	for _, o := range outcomes {
		if o.Known {
			known++
		}
	}

	accuracy := 0.0
	if len(outcomes) > 0 {
		accuracy = float64(known) / float64(len(outcomes))
	}

	summary := &SessionSummary{
		ID:         uuid.New(),
		UserID:     userID,
		DeckID:     scope.DeckID,
		StartedAt:  startedAt.UTC(),
		EndedAt:    endedAt.UTC(),
		CardsSeen:  len(outcomes) + skipped,
		CardsRated: len(outcomes),
		CardsKnown: known,
		Accuracy:   accuracy,
		Duration:   endedAt.Sub(startedAt),
		CreatedAt:  endedAt.UTC(),
	}

	if err := summary.Validate(); err != nil {
		return nil, err
	}

	return summary, nil
}

// Validate checks if the SessionSummary has valid data.
func (s *SessionSummary) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSummaryIDEmpty
	}

	if s.UserID == uuid.Nil {
		return ErrSummaryUserIDEmpty
	}

	if s.EndedAt.Before(s.StartedAt) {
		return ErrSummaryTimesInvalid
	}

	if s.CardsSeen < 0 || s.CardsRated < 0 || s.CardsKnown < 0 {
		return ErrSummaryCountsInvalid
	}

	if s.CardsKnown > s.CardsRated || s.CardsRated > s.CardsSeen {
		return ErrSummaryCountsInvalid
	}

	return nil
}
