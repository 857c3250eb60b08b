package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionSummary(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	started := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	ended := started.Add(4 * time.Minute)

	outcomes := []Outcome{
		{CardID: uuid.New(), Grade: GradeGood, Known: true, RatedAt: started.Add(time.Minute)},
		{CardID: uuid.New(), Grade: GradeAgain, Known: false, RatedAt: started.Add(2 * time.Minute)},
		{CardID: uuid.New(), Grade: GradeEasy, Known: true, RatedAt: started.Add(3 * time.Minute)},
	}

	summary, err := NewSessionSummary(userID, ScopeAll(), outcomes, 1, started, ended)
	require.NoError(t, err)

	assert.Equal(t, userID, summary.UserID)
	assert.Equal(t, uuid.Nil, summary.DeckID, "all-decks scope stores a nil deck ID")
	assert.Equal(t, 4, summary.CardsSeen, "3 rated + 1 skipped")
	assert.Equal(t, 3, summary.CardsRated)
	assert.Equal(t, 2, summary.CardsKnown)
	assert.InDelta(t, 2.0/3.0, summary.Accuracy, 1e-9)
	assert.Equal(t, 4*time.Minute, summary.Duration)
	assert.False(t, summary.StatsApplied)
}

func TestNewSessionSummaryNoOutcomes(t *testing.T) {
	t.Parallel()

	started := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	// Abandoning before rating anything still produces a valid summary.
	summary, err := NewSessionSummary(uuid.New(), ScopeAll(), nil, 2, started, started.Add(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.CardsSeen)
	assert.Zero(t, summary.CardsRated)
	assert.Zero(t, summary.Accuracy, "accuracy is zero when nothing was rated")
}

func TestNewSessionSummaryDeckScope(t *testing.T) {
	t.Parallel()

	deckID := uuid.New()
	started := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	summary, err := NewSessionSummary(uuid.New(), ScopeDeck(deckID), nil, 0, started, started)
	require.NoError(t, err)
	assert.Equal(t, deckID, summary.DeckID)
}

func TestSessionSummaryValidate(t *testing.T) {
	t.Parallel()

	started := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	t.Run("end before start", func(t *testing.T) {
		t.Parallel()

		_, err := NewSessionSummary(uuid.New(), ScopeAll(), nil, 0, started, started.Add(-time.Second))
		assert.ErrorIs(t, err, ErrSummaryTimesInvalid)
	})

	t.Run("known exceeding rated", func(t *testing.T) {
		t.Parallel()

		summary, err := NewSessionSummary(uuid.New(), ScopeAll(), nil, 0, started, started)
		require.NoError(t, err)

		summary.CardsKnown = 5
		assert.ErrorIs(t, summary.Validate(), ErrSummaryCountsInvalid)
	})
}
