package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pholn/mnemo/internal/clock"
	"github.com/pholn/mnemo/internal/domain"
	"github.com/pholn/mnemo/internal/store"
)

// putProgress writes a progress record through the store's atomic update.
func putProgress(t *testing.T, db *sqlx.DB, p *domain.Progress) {
	t.Helper()

	_, err := NewSQLiteProgressStore(db, nil).Update(context.Background(), p.UserID, p.CardID,
		func(current *domain.Progress) (*domain.Progress, error) {
			return p, nil
		})
	require.NoError(t, err)
}

// dueProgress builds a valid reviewed-once record due at the given day offset
// from the test origin.
func dueProgress(userID, cardID uuid.UUID, dueInDays, lapses int) *domain.Progress {
	day := clock.StartOfDay(testTime(0))
	return &domain.Progress{
		UserID:         userID,
		CardID:         cardID,
		Repetition:     1,
		EaseFactor:     domain.DefaultEaseFactor,
		IntervalDays:   1,
		DueAt:          day.AddDate(0, 0, dueInDays),
		LapseCount:     lapses,
		LastReviewedAt: testTime(0),
		TimesSeen:      1,
		CreatedAt:      testTime(0),
		UpdatedAt:      testTime(0),
	}
}

func TestProgressStoreUpdateFirstReview(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	progressStore := NewSQLiteProgressStore(db, nil)
	ctx := context.Background()

	owner := seedUser(t, db)
	deck := seedDeck(t, db, owner.ID)
	card := seedCard(t, db, deck.ID, "primero", testTime(1))

	var sawNil bool
	updated, err := progressStore.Update(ctx, owner.ID, card.ID,
		func(current *domain.Progress) (*domain.Progress, error) {
			sawNil = current == nil
			return domain.NewProgress(owner.ID, card.ID, testTime(2)), nil
		})
	require.NoError(t, err)
	assert.True(t, sawNil, "first review passes nil to the update function")
	require.NotNil(t, updated)

	got, err := progressStore.Get(ctx, owner.ID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
	assert.Equal(t, domain.DefaultEaseFactor, got.EaseFactor)
	assert.True(t, got.LastReviewedAt.IsZero(), "fresh record has no review timestamp")
}

func TestProgressStoreUpdateExisting(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	progressStore := NewSQLiteProgressStore(db, nil)
	ctx := context.Background()

	owner := seedUser(t, db)
	deck := seedDeck(t, db, owner.ID)
	card := seedCard(t, db, deck.ID, "segundo", testTime(1))

	putProgress(t, db, dueProgress(owner.ID, card.ID, 0, 0))

	updated, err := progressStore.Update(ctx, owner.ID, card.ID,
		func(current *domain.Progress) (*domain.Progress, error) {
			require.NotNil(t, current, "existing record is passed in")
			assert.Equal(t, 1, current.Repetition)

			next := *current
			next.Repetition = 2
			next.IntervalDays = 6
			next.DueAt = current.DueAt.AddDate(0, 0, 6)
			next.TimesSeen++
			next.LastReviewedAt = testTime(120)
			next.UpdatedAt = testTime(120)
			return &next, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Repetition)

	got, err := progressStore.Get(ctx, owner.ID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.IntervalDays)
	assert.Equal(t, 2, got.TimesSeen)
	assert.Equal(t, testTime(120), got.LastReviewedAt)
}

func TestProgressStoreUpdateFnErrorWritesNothing(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	progressStore := NewSQLiteProgressStore(db, nil)
	ctx := context.Background()

	owner := seedUser(t, db)
	deck := seedDeck(t, db, owner.ID)
	card := seedCard(t, db, deck.ID, "tercero", testTime(1))

	wantErr := errors.New("grade rejected")
	_, err := progressStore.Update(ctx, owner.ID, card.ID,
		func(current *domain.Progress) (*domain.Progress, error) {
			return nil, wantErr
		})
	assert.ErrorIs(t, err, wantErr)

	_, err = progressStore.Get(ctx, owner.ID, card.ID)
	assert.ErrorIs(t, err, store.ErrProgressNotFound, "failed update leaves no record")
}

func TestProgressStoreUpdateRejectsInvalidRecord(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	progressStore := NewSQLiteProgressStore(db, nil)
	ctx := context.Background()

	owner := seedUser(t, db)
	deck := seedDeck(t, db, owner.ID)
	card := seedCard(t, db, deck.ID, "cuarto", testTime(1))

	_, err := progressStore.Update(ctx, owner.ID, card.ID,
		func(current *domain.Progress) (*domain.Progress, error) {
			bad := domain.NewProgress(owner.ID, card.ID, testTime(2))
			bad.Repetition = -1
			return bad, nil
		})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)

	_, err = progressStore.Get(ctx, owner.ID, card.ID)
	assert.ErrorIs(t, err, store.ErrProgressNotFound)
}

func TestProgressStoreDueCardsOrderingAndLimit(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	progressStore := NewSQLiteProgressStore(db, nil)
	ctx := context.Background()

	owner := seedUser(t, db)
	deck := seedDeck(t, db, owner.ID)

	overdueCalm := seedCard(t, db, deck.ID, "overdue-calm", testTime(1))
	overdueLapsed := seedCard(t, db, deck.ID, "overdue-lapsed", testTime(2))
	dueToday := seedCard(t, db, deck.ID, "due-today", testTime(3))
	dueTomorrow := seedCard(t, db, deck.ID, "due-tomorrow", testTime(4))

	putProgress(t, db, dueProgress(owner.ID, overdueCalm.ID, -3, 0))
	putProgress(t, db, dueProgress(owner.ID, overdueLapsed.ID, -3, 5))
	putProgress(t, db, dueProgress(owner.ID, dueToday.ID, 0, 0))
	putProgress(t, db, dueProgress(owner.ID, dueTomorrow.ID, 1, 0))

	asOf := testTime(0)

	cards, err := progressStore.DueCards(ctx, owner.ID, domain.ScopeAll(), asOf, 0)
	require.NoError(t, err)
	require.Len(t, cards, 3, "tomorrow's card is not due yet")
	assert.Equal(t, overdueLapsed.ID, cards[0].ID, "most overdue first, lapses break the tie")
	assert.Equal(t, overdueCalm.ID, cards[1].ID)
	assert.Equal(t, dueToday.ID, cards[2].ID)

	capped, err := progressStore.DueCards(ctx, owner.ID, domain.ScopeAll(), asOf, 2)
	require.NoError(t, err)
	require.Len(t, capped, 2)
	assert.Equal(t, overdueLapsed.ID, capped[0].ID)

	otherDeck := seedDeck(t, db, owner.ID)
	scoped, err := progressStore.DueCards(ctx, owner.ID, domain.ScopeDeck(otherDeck.ID), asOf, 0)
	require.NoError(t, err)
	assert.Empty(t, scoped, "scope restricts due cards to the deck")
}

func TestProgressStoreNewCards(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	progressStore := NewSQLiteProgressStore(db, nil)
	ctx := context.Background()

	alice := seedUser(t, db)
	bob := seedUser(t, db)

	aliceDeck := seedDeck(t, db, alice.ID)
	first := seedCard(t, db, aliceDeck.ID, "first", testTime(1))
	second := seedCard(t, db, aliceDeck.ID, "second", testTime(2))
	reviewed := seedCard(t, db, aliceDeck.ID, "reviewed", testTime(3))
	putProgress(t, db, dueProgress(alice.ID, reviewed.ID, 1, 0))

	bobShared, err := domain.NewDeck(bob.ID, "bob-shared", testTime(4))
	require.NoError(t, err)
	bobShared.Visibility = domain.VisibilityShared
	require.NoError(t, NewSQLiteDeckStore(db, nil).Create(ctx, bobShared))
	sharedCard := seedCard(t, db, bobShared.ID, "shared", testTime(5))

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
	bobPrivate := seedDeck(t, db, bob.ID)
	seedCard(t, db, bobPrivate.ID, "private", testTime(6))
	hidden, err := progressStore.NewCards(ctx, alice.ID, domain.ScopeDeck(bobPrivate.ID), 0)
	require.NoError(t, err)
	assert.Empty(t, hidden)

	capped, err := progressStore.NewCards(ctx, alice.ID, domain.ScopeAll(), 1)
	require.NoError(t, err)
	require.Len(t, capped, 1)
	assert.Equal(t, first.ID, capped[0].ID)
}

func TestProgressStoreDueCount(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	progressStore := NewSQLiteProgressStore(db, nil)
	ctx := context.Background()

	owner := seedUser(t, db)
	deck := seedDeck(t, db, owner.ID)

	for i, dueIn := range []int{-2, 0, 3} {
		card := seedCard(t, db, deck.ID, fmt.Sprintf("card-%d", i), testTime(i+1))
		putProgress(t, db, dueProgress(owner.ID, card.ID, dueIn, 0))
	}

	count, err := progressStore.DueCount(ctx, owner.ID, testTime(0))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	later, err := progressStore.DueCount(ctx, owner.ID, testTime(0).AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, later)

	none, err := progressStore.DueCount(ctx, uuid.New(), testTime(0))
	require.NoError(t, err)
	assert.Equal(t, 0, none)
}
