package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pholn/mnemo/internal/clock"
	"github.com/pholn/mnemo/internal/domain"
	"github.com/pholn/mnemo/internal/store"
)

// fakeProgressStore serves canned due and new cards, honoring the limit
// contract of the real stores.
type fakeProgressStore struct {
	due   []*domain.Card
	fresh []*domain.Card

	dueErr   error
	freshErr error

	dueLimit   int
	dueAsOf    time.Time
	freshLimit int
	freshCalls int
}

var _ store.ProgressStore = (*fakeProgressStore)(nil)

func (f *fakeProgressStore) Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.Progress, error) {
	return nil, errors.New("not used in queue tests")
}

func (f *fakeProgressStore) Update(ctx context.Context, userID, cardID uuid.UUID, fn store.ProgressUpdateFn) (*domain.Progress, error) {
	return nil, errors.New("not used in queue tests")
}

func (f *fakeProgressStore) DueCards(ctx context.Context, userID uuid.UUID, scope domain.DeckScope, asOf time.Time, limit int) ([]*domain.Card, error) {
	f.dueLimit = limit
	f.dueAsOf = asOf
	if f.dueErr != nil {
		return nil, f.dueErr
	}
	return capped(f.due, limit), nil
}

func (f *fakeProgressStore) NewCards(ctx context.Context, userID uuid.UUID, scope domain.DeckScope, limit int) ([]*domain.Card, error) {
	f.freshCalls++
	f.freshLimit = limit
	if f.freshErr != nil {
		return nil, f.freshErr
	}
	return capped(f.fresh, limit), nil
}

func (f *fakeProgressStore) DueCount(ctx context.Context, userID uuid.UUID, asOf time.Time) (int, error) {
	return len(f.due), nil
}

func capped(cards []*domain.Card, limit int) []*domain.Card {
	if limit > 0 && len(cards) > limit {
		return cards[:limit]
	}
	return cards
}

func makeCards(n int) []*domain.Card {
	cards := make([]*domain.Card, n)
	for i := range cards {
		cards[i] = &domain.Card{ID: uuid.New()}
	}
	return cards
}

func cardIDs(cards []*domain.Card) []uuid.UUID {
	ids := make([]uuid.UUID, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}

func newTestBuilder(t *testing.T, fake *fakeProgressStore, cfg Config) *Builder {
	t.Helper()

	clk := clock.NewFake(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	b, err := NewBuilder(fake, cfg, clk, nil)
	require.NoError(t, err)
	return b
}

func TestNewBuilderValidatesConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"zero session size", Config{SessionSize: 0, MaxNew: 10}, ErrSessionSizeInvalid},
		{"negative max new", Config{SessionSize: 15, MaxNew: -1}, ErrLimitsInvalid},
		{"negative max due", Config{SessionSize: 15, MaxNew: 10, MaxDue: -2}, ErrLimitsInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt := tt
			t.Parallel()

			_, err := NewBuilder(&fakeProgressStore{}, tt.cfg, clock.NewSystem(), nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuildDueFirstThenNew(t *testing.T) {
	t.Parallel()

	fake := &fakeProgressStore{due: makeCards(3), fresh: makeCards(8)}
	b := newTestBuilder(t, fake, Config{SessionSize: 5, MaxNew: 10})

	cards, err := b.Build(context.Background(), uuid.New(), domain.ScopeAll())
	require.NoError(t, err)
	require.Len(t, cards, 5)

	assert.Equal(t, cardIDs(fake.due), cardIDs(cards[:3]), "due cards lead the queue in store order")
	assert.Equal(t, cardIDs(fake.fresh[:2]), cardIDs(cards[3:]), "new cards fill the remaining slots")
	assert.Equal(t, 2, fake.freshLimit)
}

func TestBuildDueCardsFillSession(t *testing.T) {
	t.Parallel()

	fake := &fakeProgressStore{due: makeCards(20), fresh: makeCards(5)}
	b := newTestBuilder(t, fake, Config{SessionSize: 15, MaxNew: 10})

	cards, err := b.Build(context.Background(), uuid.New(), domain.ScopeAll())
	require.NoError(t, err)
	assert.Len(t, cards, 15)
	assert.Equal(t, 15, fake.dueLimit, "due query is capped at the session size")
	assert.Zero(t, fake.freshCalls, "a full session never asks for new cards")
}

func TestBuildMaxNewCap(t *testing.T) {
	t.Parallel()

	fake := &fakeProgressStore{fresh: makeCards(10)}
	b := newTestBuilder(t, fake, Config{SessionSize: 15, MaxNew: 3})

	cards, err := b.Build(context.Background(), uuid.New(), domain.ScopeAll())
	require.NoError(t, err)
	assert.Len(t, cards, 3, "new cards never exceed the new-card limit")
	assert.Equal(t, 3, fake.freshLimit)
}

func TestBuildMaxDueCap(t *testing.T) {
	t.Parallel()

	fake := &fakeProgressStore{due: makeCards(9), fresh: makeCards(10)}
	b := newTestBuilder(t, fake, Config{SessionSize: 15, MaxNew: 10, MaxDue: 4})

	cards, err := b.Build(context.Background(), uuid.New(), domain.ScopeAll())
	require.NoError(t, err)
	require.Len(t, cards, 14)
	assert.Equal(t, 4, fake.dueLimit, "due query is capped at the due limit")
	assert.Equal(t, cardIDs(fake.due[:4]), cardIDs(cards[:4]))
	assert.Equal(t, 10, fake.freshLimit)
}

func TestBuildEmptyQueueIsValid(t *testing.T) {
	t.Parallel()

	fake := &fakeProgressStore{}
	b := newTestBuilder(t, fake, NewDefaultConfig())

	cards, err := b.Build(context.Background(), uuid.New(), domain.ScopeAll())
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestBuildUsesClockForDueness(t *testing.T) {
	t.Parallel()

	fake := &fakeProgressStore{}
	pinned := time.Date(2024, 7, 1, 8, 30, 0, 0, time.UTC)
	b, err := NewBuilder(fake, NewDefaultConfig(), clock.NewFake(pinned), nil)
	require.NoError(t, err)

	_, err = b.Build(context.Background(), uuid.New(), domain.ScopeAll())
	require.NoError(t, err)
	assert.True(t, fake.dueAsOf.Equal(pinned), "dueness is evaluated at the injected clock's now")
}

func TestBuildDeterministic(t *testing.T) {
	t.Parallel()

	fake := &fakeProgressStore{due: makeCards(4), fresh: makeCards(6)}
	b := newTestBuilder(t, fake, NewDefaultConfig())

	first, err := b.Build(context.Background(), uuid.New(), domain.ScopeAll())
	require.NoError(t, err)
	second, err := b.Build(context.Background(), uuid.New(), domain.ScopeAll())
	require.NoError(t, err)

	assert.Equal(t, cardIDs(first), cardIDs(second), "same snapshot, same queue")
}

func TestBuildStoreErrors(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("backend down")

	t.Run("due query fails", func(t *testing.T) {
		t.Parallel()

		fake := &fakeProgressStore{dueErr: wantErr}
		b := newTestBuilder(t, fake, NewDefaultConfig())

		_, err := b.Build(context.Background(), uuid.New(), domain.ScopeAll())
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("new query fails", func(t *testing.T) {
		t.Parallel()

		fake := &fakeProgressStore{freshErr: wantErr}
		b := newTestBuilder(t, fake, NewDefaultConfig())

		_, err := b.Build(context.Background(), uuid.New(), domain.ScopeAll())
		assert.ErrorIs(t, err, wantErr)
	})
}
