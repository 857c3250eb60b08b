package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pholn/mnemo/internal/domain"
	"github.com/pholn/mnemo/internal/platform/postgres"
	"github.com/pholn/mnemo/internal/store"
)

// testTimeout is the maximum time allowed for a single store call.
const testTimeout = 5 * time.Second

// testContext returns a context that expires with the test's deadline budget.
func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)
	return ctx
}

// newTestUser builds a user with a collision-proof username so parallel
// tests sharing one database never trip the unique constraint.
func newTestUser(t *testing.T) *domain.User {
	t.Helper()

	user, err := domain.NewUser(
		fmt.Sprintf("learner-%s", uuid.NewString()[:8]),
		"Ada", "Lovelace", time.Now())
	require.NoError(t, err)
	return user
}

func mustCreateUser(ctx context.Context, t *testing.T, db store.DBTX) *domain.User {
	t.Helper()

	user := newTestUser(t)
	require.NoError(t, postgres.NewPostgresUserStore(db, nil).Create(ctx, user))
	return user
}

func mustCreateDeck(ctx context.Context, t *testing.T, db store.DBTX, ownerID uuid.UUID) *domain.Deck {
	t.Helper()

	deck, err := domain.NewDeck(ownerID, fmt.Sprintf("deck-%s", uuid.NewString()[:8]), time.Now())
	require.NoError(t, err)
	require.NoError(t, postgres.NewPostgresDeckStore(db, nil).Create(ctx, deck))
	return deck
}

func mustCreateCard(ctx context.Context, t *testing.T, db store.DBTX, deckID uuid.UUID, prompt string) *domain.Card {
	t.Helper()

	card, err := domain.NewCard(deckID, domain.CardTypeVocabulary, prompt, "answer: "+prompt, time.Now())
	require.NoError(t, err)
	require.NoError(t, postgres.NewPostgresCardStore(db, nil).Create(ctx, card))
	return card
}

// newTestSummary builds a valid two-card summary that ended at the given
// instant.
func newTestSummary(t *testing.T, userID uuid.UUID, scope domain.DeckScope, endedAt time.Time) *domain.SessionSummary {
	t.Helper()

	outcomes := []domain.Outcome{
		{CardID: uuid.New(), Grade: domain.GradeGood, Known: true, Latency: 3 * time.Second, RatedAt: endedAt},
		{CardID: uuid.New(), Grade: domain.GradeHard, Known: false, Latency: 8 * time.Second, RatedAt: endedAt},
	}

	summary, err := domain.NewSessionSummary(userID, scope, outcomes, 0, endedAt.Add(-4*time.Minute), endedAt)
	require.NoError(t, err)
	return summary
}

// seedCommittedUser creates a user outside any test transaction for stores
// that manage their own transactions. The row and everything cascading from
// it are removed when the test finishes.
func seedCommittedUser(t *testing.T, db *sql.DB) *domain.User {
	t.Helper()

	user := mustCreateUser(testContext(t), t, db)
	t.Cleanup(func() {
		if _, err := db.ExecContext(context.Background(),
			`DELETE FROM users WHERE id = $1`, user.ID); err != nil {
			t.Logf("warning: failed to clean up test user: %v", err)
		}
	})
	return user
}
