// Package session drives one study run per user through a small state
// machine: present a card, reveal its answer, rate recall, repeat until the
// queue is exhausted or the learner abandons. Every committed rating is
// durable before the in-memory session advances, so abandoning never rolls
// back a review.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pholn/mnemo/internal/domain"
)

// State identifies where a session is in its lifecycle.
type State string

const (
	// StateIdle is reported when a user has no active session. It is never
	// stored; a session exists only between Start and Complete.
	StateIdle State = "idle"

	// StatePresenting means a card's prompt is being shown and the answer
	// is still hidden. Reveal and Skip are valid.
	StatePresenting State = "presenting"

	// StateAnswerRevealed means the answer is visible and the session is
	// waiting for a grade. Only Rate is valid.
	StateAnswerRevealed State = "answer_revealed"

	// StateFinalizing means the queue is done but the session summary has
	// not committed yet. Only Abandon is valid; it retries the commit.
	StateFinalizing State = "finalizing"

	// StateComplete is terminal: the summary is committed and the session
	// is removed from the registry.
	StateComplete State = "complete"
)

// Snapshot is the plain-data view of a session returned to the delivery
// layer after every operation. No transport concerns, no live references:
// the card pointer is read-only by convention.
type Snapshot struct {
	State     State                  `json:"state"`
	Position  int                    `json:"position"`   // index of the current card, == QueueSize when done
	QueueSize int                    `json:"queue_size"` // total cards in this session's queue
	Card      *domain.Card           `json:"card,omitempty"`
	Summary   *domain.SessionSummary `json:"summary,omitempty"` // set once the session completes
}

// session is the in-process state of one study run. All fields are guarded
// by mu; the manager locks it for the duration of each operation, so one
// user's operations are strictly sequential while different users proceed
// concurrently.
type session struct {
	mu sync.Mutex

	userID uuid.UUID
	scope  domain.DeckScope
	cards  []*domain.Card
	pos    int
	state  State

	outcomes []domain.Outcome
	skipped  int

	startedAt   time.Time
	presentedAt time.Time     // when the current card's prompt appeared
	latency     time.Duration // prompt-to-reveal time of the current card

	// summary is built once when finalization starts; committed marks the
	// summary row as durably written, so a finalization retry never
	// double-inserts.
	summary   *domain.SessionSummary
	committed bool
}

// snapshot renders the session's current state as plain data. Callers must
// hold s.mu.
func (s *session) snapshot() *Snapshot {
	snap := &Snapshot{
		State:     s.state,
		Position:  s.pos,
		QueueSize: len(s.cards),
	}

	switch s.state {
	case StatePresenting, StateAnswerRevealed:
		snap.Card = s.cards[s.pos]
	case StateComplete:
		snap.Summary = s.summary
	}

	return snap
}

// invalidState builds the error for an operation attempted out of sequence.
// Callers must hold s.mu.
func (s *session) invalidState(op string) error {
	return &InvalidStateError{Op: op, State: s.state}
}
