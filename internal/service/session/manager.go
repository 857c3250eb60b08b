package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/pholn/mnemo/internal/clock"
	"github.com/pholn/mnemo/internal/domain"
	"github.com/pholn/mnemo/internal/domain/srs"
	"github.com/pholn/mnemo/internal/events"
	"github.com/pholn/mnemo/internal/platform/logger"
	"github.com/pholn/mnemo/internal/service/queue"
	"github.com/pholn/mnemo/internal/service/stats"
	"github.com/pholn/mnemo/internal/store"
)

// Manager is the registry of active study sessions, at most one per user.
// Sessions for different users run fully concurrently; operations on one
// user's session serialize on that session's lock.
type Manager struct {
	queue      *queue.Builder
	progress   store.ProgressStore
	summaries  store.SummaryStore
	stats      store.StatsStore
	aggregator *stats.Aggregator
	scheduler  srs.Service
	publisher  events.Publisher
	clock      clock.Clock
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// NewManager creates a session Manager. publisher may be nil when no one
// subscribes to completed-session events.
// If logger is nil, a default logger will be used.
func NewManager(
	queueBuilder *queue.Builder,
	progress store.ProgressStore,
	summaries store.SummaryStore,
	statsStore store.StatsStore,
	aggregator *stats.Aggregator,
	scheduler srs.Service,
	publisher events.Publisher,
	clk clock.Clock,
	logger *slog.Logger,
) *Manager {
	if queueBuilder == nil {
		panic("queue builder cannot be nil")
	}
	if progress == nil {
		panic("progress store cannot be nil")
	}
	if summaries == nil {
		panic("summary store cannot be nil")
	}
	if statsStore == nil {
		panic("stats store cannot be nil")
	}
	if aggregator == nil {
		panic("aggregator cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if clk == nil {
		panic("clock cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		queue:      queueBuilder,
		progress:   progress,
		summaries:  summaries,
		stats:      statsStore,
		aggregator: aggregator,
		scheduler:  scheduler,
		publisher:  publisher,
		clock:      clk,
		logger:     logger.With(slog.String("component", "session_manager")),
		sessions:   make(map[uuid.UUID]*session),
	}
}

// Start begins a new study session for the user. Any unfinished prior
// session is discarded; its already-committed ratings stay committed.
// Returns ErrEmptyQueue when there is nothing to study.
func (m *Manager) Start(ctx context.Context, userID uuid.UUID, scope domain.DeckScope) (*Snapshot, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	cards, err := m.queue.Build(ctx, userID, scope)
	if err != nil {
		return nil, newSessionError("start", "failed to build queue", err)
	}

	if len(cards) == 0 {
		log.Debug("nothing to study", slog.String("user_id", userID.String()))
		return nil, ErrEmptyQueue
	}

	now := m.clock.Now()
	s := &session{
		userID:      userID,
		scope:       scope,
		cards:       cards,
		state:       StatePresenting,
		startedAt:   now,
		presentedAt: now,
	}

	m.mu.Lock()
	if prior, ok := m.sessions[userID]; ok {
		log.Info("discarding unfinished session",
			slog.String("user_id", userID.String()),
			slog.Int("cards_rated", len(prior.outcomes)))
	}
	m.sessions[userID] = s
	m.mu.Unlock()

	log.Info("session started",
		slog.String("user_id", userID.String()),
		slog.Int("queue_size", len(cards)))

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// Reveal shows the current card's answer. Valid only while a card is being
// presented; records how long the learner looked at the prompt. No
// persistence side effect.
func (m *Manager) Reveal(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	s, err := m.lookup(userID, "reveal")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePresenting {
		return nil, s.invalidState("reveal")
	}

	s.latency = m.clock.Now().Sub(s.presentedAt)
	s.state = StateAnswerRevealed

	return s.snapshot(), nil
}

// Rate applies the learner's recall grade to the current card. Valid only
// after Reveal. The progress record is loaded or lazily created, advanced
// through the scheduler, and persisted atomically before the session moves
// on; a store failure leaves the session unchanged so the call is safe to
// retry. Rating the last card finalizes the session.
func (m *Manager) Rate(ctx context.Context, userID uuid.UUID, grade domain.Grade) (*Snapshot, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	if !grade.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidGrade, grade)
	}

	s, err := m.lookup(userID, "rate")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAnswerRevealed {
		return nil, s.invalidState("rate")
	}

	card := s.cards[s.pos]
	now := m.clock.Now()

	updated, err := m.progress.Update(ctx, userID, card.ID,
		func(current *domain.Progress) (*domain.Progress, error) {
			if current == nil {
				current = domain.NewProgress(userID, card.ID, now)
			}
			return m.scheduler.Advance(current, grade, now)
		})
	if err != nil {
		log.Error("failed to persist rating",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("card_id", card.ID.String()))
		return nil, newSessionError("rate", "failed to persist rating", err)
	}

	log.Debug("card rated",
		slog.String("user_id", userID.String()),
		slog.String("card_id", card.ID.String()),
		slog.String("grade", grade.String()),
		slog.Int("interval_days", updated.IntervalDays))

	s.outcomes = append(s.outcomes, domain.Outcome{
		CardID:  card.ID,
		Grade:   grade,
		Known:   grade.Known(),
		Latency: s.latency,
		RatedAt: now,
	})
	s.latency = 0

	return m.advance(ctx, s)
}

// Skip moves past the current card without touching its progress record.
// Valid only while the prompt is shown; skipped cards count as seen but are
// excluded from the accuracy denominator.
func (m *Manager) Skip(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	s, err := m.lookup(userID, "skip")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePresenting {
		return nil, s.invalidState("skip")
	}

	s.skipped++
	return m.advance(ctx, s)
}

// Abandon ends the session now, finalizing with whatever outcomes were
// recorded. Valid from any non-terminal state; it is the cancellation path
// and also the retry path after a failed finalization.
func (m *Manager) Abandon(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	s, err := m.lookup(userID, "abandon")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return m.finalize(ctx, s)
}

// Active returns a snapshot of the user's current session, or a bare Idle
// snapshot when none exists.
func (m *Manager) Active(userID uuid.UUID) *Snapshot {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	m.mu.Unlock()

	if !ok {
		return &Snapshot{State: StateIdle}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// DueCount reports how many cards are due for the user right now, across
// all decks.
func (m *Manager) DueCount(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := m.progress.DueCount(ctx, userID, m.clock.Now())
	if err != nil {
		return 0, newSessionError("due_count", "failed to count due cards", err)
	}
	return count, nil
}

// Stats returns the user's aggregate learning stats. Users who have never
// completed a session get zeroed stats rather than an error.
func (m *Manager) Stats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	userStats, err := m.stats.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrStatsNotFound) {
			return domain.NewUserStats(userID), nil
		}
		return nil, newSessionError("stats", "failed to load user stats", err)
	}
	return userStats, nil
}

// lookup finds the user's active session. Returns an InvalidStateError in
// the Idle state when none exists.
func (m *Manager) lookup(userID uuid.UUID, op string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return nil, &InvalidStateError{Op: op, State: StateIdle}
	}
	return s, nil
}

// advance moves to the next card or finalizes when the queue is exhausted.
// Callers must hold s.mu.
func (m *Manager) advance(ctx context.Context, s *session) (*Snapshot, error) {
	s.pos++

	if s.pos < len(s.cards) {
		s.state = StatePresenting
		s.presentedAt = m.clock.Now()
		return s.snapshot(), nil
	}

	return m.finalize(ctx, s)
}

// finalize commits the session summary, rolls it into the user's aggregate
// stats, publishes the completion event, and removes the session from the
// registry. It runs exactly once: re-entry on a completed session is a
// no-op, and the summary commit is the only step that can abort it.
//
// The sequence is deliberate: the summary row is durable before stats are
// touched, and a stats failure after the commit is left to the replayer
// rather than failing the session. Callers must hold s.mu.
func (m *Manager) finalize(ctx context.Context, s *session) (*Snapshot, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	if s.state == StateComplete {
		return s.snapshot(), nil
	}

	s.state = StateFinalizing

	if s.summary == nil {
		now := m.clock.Now()
		summary, err := domain.NewSessionSummary(s.userID, s.scope, s.outcomes, s.skipped, s.startedAt, now)
		if err != nil {
			return nil, newSessionError("finalize", "failed to build summary", err)
		}
		s.summary = summary
	}

	if !s.committed {
		err := m.summaries.Create(ctx, s.summary)
		if err != nil && !store.IsDuplicateError(err) {
			log.Error("failed to commit session summary",
				slog.String("error", err.Error()),
				slog.String("user_id", s.userID.String()),
				slog.String("summary_id", s.summary.ID.String()))
			return nil, newSessionError("finalize", "failed to commit summary", err)
		}
		s.committed = true
	}

	if err := m.aggregator.Record(ctx, s.summary); err != nil && !errors.Is(err, store.ErrSummaryApplied) {
		// The summary row is durable; the replayer picks it up later.
		log.Warn("stats application deferred to replayer",
			slog.String("error", err.Error()),
			slog.String("user_id", s.userID.String()),
			slog.String("summary_id", s.summary.ID.String()))
	}

	if m.publisher != nil {
		event := events.NewSessionEvent(s.summary, m.clock.Now())
		if err := m.publisher.Publish(ctx, event); err != nil {
			log.Warn("session event handler failed",
				slog.String("error", err.Error()),
				slog.String("user_id", s.userID.String()))
		}
	}

	s.state = StateComplete

	m.mu.Lock()
	if m.sessions[s.userID] == s {
		delete(m.sessions, s.userID)
	}
	m.mu.Unlock()

	log.Info("session complete",
		slog.String("user_id", s.userID.String()),
		slog.Int("cards_seen", s.summary.CardsSeen),
		slog.Int("cards_rated", s.summary.CardsRated),
		slog.Float64("accuracy", s.summary.Accuracy))

	return s.snapshot(), nil
}
