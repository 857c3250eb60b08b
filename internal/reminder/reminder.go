// Package reminder periodically tells learners how many cards are waiting
// for them. The engine computes the due counts; delivery of the actual
// message is behind the Notifier interface, implemented by the chat/UI
// layer.
package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/pholn/mnemo/internal/clock"
	"github.com/pholn/mnemo/internal/domain"
	"github.com/pholn/mnemo/internal/store"
)

// Notifier delivers a due-card reminder to one user. Implementations must
// not block indefinitely; an error skips the user until the next sweep.
type Notifier interface {
	NotifyDue(ctx context.Context, user *domain.User, dueCount int) error
}

// Config holds reminder sweep settings.
type Config struct {
	// CheckInterval is how often the sweep runs. Hourly matches the
	// per-user reminder-hour granularity; tests inject shorter intervals.
	// If zero, defaults to one hour.
	CheckInterval time.Duration
}

// DefaultConfig returns the standard sweep settings.
func DefaultConfig() Config {
	return Config{CheckInterval: time.Hour}
}

// Scheduler runs the periodic due-card reminder sweep. Each sweep finds the
// users whose reminder hour matches the current UTC hour, counts their due
// cards, and notifies those with work waiting.
type Scheduler struct {
	users     store.UserStore
	progress  store.ProgressStore
	notifier  Notifier
	clock     clock.Clock
	scheduler *gocron.Scheduler
	config    Config
	logger    *slog.Logger
}

// NewScheduler creates a reminder Scheduler.
// If logger is nil, a default logger will be used.
func NewScheduler(
	users store.UserStore,
	progress store.ProgressStore,
	notifier Notifier,
	clk clock.Clock,
	config Config,
	logger *slog.Logger,
) *Scheduler {
	if users == nil {
		panic("user store cannot be nil")
	}
	if progress == nil {
		panic("progress store cannot be nil")
	}
	if notifier == nil {
		panic("notifier cannot be nil")
	}
	if clk == nil {
		panic("clock cannot be nil")
	}

	if config.CheckInterval == 0 {
		config.CheckInterval = time.Hour
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		users:     users,
		progress:  progress,
		notifier:  notifier,
		clock:     clk,
		scheduler: gocron.NewScheduler(time.UTC),
		config:    config,
		logger:    logger.With(slog.String("component", "reminder_scheduler")),
	}
}

// Start begins the periodic sweep in the background.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.config.CheckInterval).Do(func() {
		s.Sweep(context.Background())
	}); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("reminder sweep scheduled",
		slog.Duration("interval", s.config.CheckInterval))
	return nil
}

// Stop halts the periodic sweep, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Sweep runs one reminder pass for the current UTC hour. Per-user failures
// are logged and skipped; the sweep always visits every matching user.
func (s *Scheduler) Sweep(ctx context.Context) {
	now := s.clock.Now()
	hour := now.Hour()

	users, err := s.users.ListByReminderHour(ctx, hour)
	if err != nil {
		s.logger.Error("failed to list users for reminder hour",
			slog.String("error", err.Error()),
			slog.Int("hour", hour))
		return
	}

	if len(users) == 0 {
		return
	}

	s.logger.Debug("running reminder sweep",
		slog.Int("hour", hour),
		slog.Int("users", len(users)))

	for _, user := range users {
		count, err := s.progress.DueCount(ctx, user.ID, now)
		if err != nil {
			s.logger.Error("failed to count due cards",
				slog.String("error", err.Error()),
				slog.String("user_id", user.ID.String()))
			continue
		}

		if count == 0 {
			continue
		}

		if err := s.notifier.NotifyDue(ctx, user, count); err != nil {
			s.logger.Error("failed to notify user",
				slog.String("error", err.Error()),
				slog.String("user_id", user.ID.String()),
				slog.Int("due_count", count))
			continue
		}

		s.logger.Debug("reminder sent",
			slog.String("user_id", user.ID.String()),
			slog.Int("due_count", count))
	}
}
