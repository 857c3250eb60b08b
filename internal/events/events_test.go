package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pholn/mnemo/internal/domain"
)

// mockHandler implements the Handler interface for testing.
type mockHandler struct {
	// The last event received by this handler
	lastEvent *SessionEvent
	// Error to return from HandleSessionEvent
	handlerErr error
	// Count of events handled
	handled int
}

func (h *mockHandler) HandleSessionEvent(ctx context.Context, event *SessionEvent) error {
	h.lastEvent = event
	h.handled++
	return h.handlerErr
}

func testSummary(t *testing.T) *domain.SessionSummary {
	t.Helper()

	ended := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	outcomes := []domain.Outcome{
		{CardID: uuid.New(), Grade: domain.GradeGood, Known: true, RatedAt: ended},
	}

	summary, err := domain.NewSessionSummary(uuid.New(), domain.ScopeAll(), outcomes, 0, ended.Add(-time.Minute), ended)
	require.NoError(t, err)
	return summary
}

func TestNewSessionEvent(t *testing.T) {
	t.Parallel()

	summary := testSummary(t)
	now := time.Date(2024, 3, 10, 12, 0, 5, 0, time.UTC)

	event := NewSessionEvent(summary, now)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, summary.UserID, event.UserID)
	assert.Same(t, summary, event.Summary)
	assert.Equal(t, now, event.OccurredAt)
}
