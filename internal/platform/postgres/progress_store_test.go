package postgres_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pholn/mnemo/internal/clock"
	"github.com/pholn/mnemo/internal/domain"
	"github.com/pholn/mnemo/internal/platform/postgres"
	"github.com/pholn/mnemo/internal/store"
	"github.com/pholn/mnemo/internal/testdb"
)

// reviewedProgress builds a valid reviewed-once record due the given number
// of days from today.
func reviewedProgress(userID, cardID uuid.UUID, dueInDays, lapses int) *domain.Progress {
	now := time.Now().UTC()
	return &domain.Progress{
		UserID:         userID,
		CardID:         cardID,
		Repetition:     1,
		EaseFactor:     domain.DefaultEaseFactor,
		IntervalDays:   1,
		DueAt:          clock.StartOfDay(now).AddDate(0, 0, dueInDays),
		LapseCount:     lapses,
		LastReviewedAt: now,
		TimesSeen:      1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// TestPostgresProgressStoreUpdate exercises the atomic read-modify-write
// against committed rows because the store runs its own transactions.
func TestPostgresProgressStoreUpdate(t *testing.T) {
	t.Parallel()

	db := testdb.GetTestDBWithT(t)
	progressStore := postgres.NewPostgresProgressStore(db, nil)
	ctx := testContext(t)

	user := seedCommittedUser(t, db)
	deck := mustCreateDeck(ctx, t, db, user.ID)
	card := mustCreateCard(ctx, t, db, deck.ID, "primero")

	var sawNil bool
	created, err := progressStore.Update(ctx, user.ID, card.ID,
		func(current *domain.Progress) (*domain.Progress, error) {
			sawNil = current == nil
			return domain.NewProgress(user.ID, card.ID, time.Now()), nil
		})
	require.NoError(t, err)
	assert.True(t, sawNil, "first review passes nil to the update function")
	assert.Equal(t, domain.DefaultEaseFactor, created.EaseFactor)

	updated, err := progressStore.Update(ctx, user.ID, card.ID,
		func(current *domain.Progress) (*domain.Progress, error) {
			require.NotNil(t, current, "existing record is passed in")

			next := *current
			next.Repetition = 1
			next.IntervalDays = 1
			next.DueAt = current.DueAt.AddDate(0, 0, 1)
			next.TimesSeen++
			next.LastReviewedAt = time.Now().UTC()
			next.UpdatedAt = next.LastReviewedAt
			return &next, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Repetition)

	got, err := progressStore.Get(ctx, user.ID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TimesSeen)
	assert.Equal(t, 1, got.IntervalDays)
}

func TestPostgresProgressStoreUpdateFnError(t *testing.T) {
	t.Parallel()

	db := testdb.GetTestDBWithT(t)
	progressStore := postgres.NewPostgresProgressStore(db, nil)
	ctx := testContext(t)

	user := seedCommittedUser(t, db)
	deck := mustCreateDeck(ctx, t, db, user.ID)
	card := mustCreateCard(ctx, t, db, deck.ID, "segundo")

	wantErr := errors.New("grade rejected")
	_, err := progressStore.Update(ctx, user.ID, card.ID,
		func(current *domain.Progress) (*domain.Progress, error) {
			return nil, wantErr
		})
	assert.ErrorIs(t, err, wantErr)

	_, err = progressStore.Get(ctx, user.ID, card.ID)
	assert.ErrorIs(t, err, store.ErrProgressNotFound, "failed update leaves no record")
}

func TestPostgresProgressStoreDueCards(t *testing.T) {
	t.Parallel()

	db := testdb.GetTestDBWithT(t)
	progressStore := postgres.NewPostgresProgressStore(db, nil)
	ctx := testContext(t)

	user := seedCommittedUser(t, db)
	deck := mustCreateDeck(ctx, t, db, user.ID)

	overdueCalm := mustCreateCard(ctx, t, db, deck.ID, "overdue-calm")
	overdueLapsed := mustCreateCard(ctx, t, db, deck.ID, "overdue-lapsed")
	dueTomorrow := mustCreateCard(ctx, t, db, deck.ID, "due-tomorrow")

	put := func(p *domain.Progress) {
		_, err := progressStore.Update(ctx, p.UserID, p.CardID,
			func(current *domain.Progress) (*domain.Progress, error) { return p, nil })
		require.NoError(t, err)
	}
	put(reviewedProgress(user.ID, overdueCalm.ID, -3, 0))
	put(reviewedProgress(user.ID, overdueLapsed.ID, -3, 4))
	put(reviewedProgress(user.ID, dueTomorrow.ID, 1, 0))

	asOf := time.Now().UTC()

	due, err := progressStore.DueCards(ctx, user.ID, domain.ScopeAll(), asOf, 0)
	require.NoError(t, err)
	require.Len(t, due, 2, "tomorrow's card is not due yet")
	assert.Equal(t, overdueLapsed.ID, due[0].ID, "lapses break the due-date tie")
	assert.Equal(t, overdueCalm.ID, due[1].ID)

	capped, err := progressStore.DueCards(ctx, user.ID, domain.ScopeAll(), asOf, 1)
	require.NoError(t, err)
	require.Len(t, capped, 1)
	assert.Equal(t, overdueLapsed.ID, capped[0].ID)

	count, err := progressStore.DueCount(ctx, user.ID, asOf)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPostgresProgressStoreNewCards(t *testing.T) {
	t.Parallel()

	db := testdb.GetTestDBWithT(t)
	progressStore := postgres.NewPostgresProgressStore(db, nil)
	deckStore := postgres.NewPostgresDeckStore(db, nil)
	ctx := testContext(t)

	alice := seedCommittedUser(t, db)
	bob := seedCommittedUser(t, db)

	aliceDeck := mustCreateDeck(ctx, t, db, alice.ID)
	first := mustCreateCard(ctx, t, db, aliceDeck.ID, "first")
	second := mustCreateCard(ctx, t, db, aliceDeck.ID, "second")
	reviewed := mustCreateCard(ctx, t, db, aliceDeck.ID, "reviewed")

	_, err := progressStore.Update(ctx, alice.ID, reviewed.ID,
		func(current *domain.Progress) (*domain.Progress, error) {
			return reviewedProgress(alice.ID, reviewed.ID, 1, 0), nil
		})
	require.NoError(t, err)

	bobShared := mustCreateDeck(ctx, t, db, bob.ID)
	bobShared.Visibility = domain.VisibilityShared
	require.NoError(t, deckStore.Update(ctx, bobShared))
	sharedCard := mustCreateCard(ctx, t, db, bobShared.ID, "shared")

	// All-decks scope draws only from decks the user owns.
	all, err := progressStore.NewCards(ctx, alice.ID, domain.ScopeAll(), 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID, "new cards follow deck insertion order")
	assert.Equal(t, second.ID, all[1].ID)

	// Naming a shared deck explicitly admits its cards.
	shared, err := progressStore.NewCards(ctx, alice.ID, domain.ScopeDeck(bobShared.ID), 0)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, sharedCard.ID, shared[0].ID)

	// A private deck owned by someone else stays invisible.
	bobPrivate := mustCreateDeck(ctx, t, db, bob.ID)
	mustCreateCard(ctx, t, db, bobPrivate.ID, "private")
	hidden, err := progressStore.NewCards(ctx, alice.ID, domain.ScopeDeck(bobPrivate.ID), 0)
	require.NoError(t, err)
	assert.Empty(t, hidden)
}
