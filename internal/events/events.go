package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pholn/mnemo/internal/domain"
)

// SessionEvent announces one finalized study session. The summary is the
// committed record; subscribers must treat it as read-only.
type SessionEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// UserID is the learner whose session finished
	UserID uuid.UUID `json:"user_id"`

	// Summary is the committed session summary
	Summary *domain.SessionSummary `json:"summary"`

	// OccurredAt is the timestamp when the event was created
	OccurredAt time.Time `json:"occurred_at"`
}

// NewSessionEvent creates a SessionEvent for the given committed summary.
func NewSessionEvent(summary *domain.SessionSummary, now time.Time) *SessionEvent {
	return &SessionEvent{
		ID:         uuid.New(),
		UserID:     summary.UserID,
		Summary:    summary,
		OccurredAt: now.UTC(),
	}
}

// Handler defines an interface for components that consume session events.
type Handler interface {
	// HandleSessionEvent processes the given event within the provided
	// context. Returns an error if the event cannot be handled successfully.
	HandleSessionEvent(ctx context.Context, event *SessionEvent) error
}

// Publisher defines an interface for components that fan session events out
// to handlers. This allows the session manager to announce finalizations
// without direct knowledge of subscribers.
type Publisher interface {
	// Publish delivers the given event to all registered handlers. Returns
	// the first handler error encountered; every handler still sees the
	// event.
	Publish(ctx context.Context, event *SessionEvent) error
}
