// Package queue assembles the ordered card list a study session works
// through: due cards first, in the store's urgency order, then
// never-reviewed cards filling whatever room is left.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pholn/mnemo/internal/clock"
	"github.com/pholn/mnemo/internal/domain"
	"github.com/pholn/mnemo/internal/platform/logger"
	"github.com/pholn/mnemo/internal/store"
)

// Config-specific validation errors
var (
	// ErrSessionSizeInvalid is returned when the session size is not positive.
	ErrSessionSizeInvalid = errors.New("session size must be positive")

	// ErrLimitsInvalid is returned when a card-count limit is negative.
	ErrLimitsInvalid = errors.New("card limits cannot be negative")
)

// Config bounds the size and composition of a session queue.
type Config struct {
	// SessionSize caps the total queue length.
	SessionSize int

	// MaxNew caps how many never-reviewed cards join the queue.
	MaxNew int

	// MaxDue caps how many due cards join the queue. Zero means due cards
	// may fill the whole session.
	MaxDue int
}

// NewDefaultConfig returns the standard queue bounds.
func NewDefaultConfig() Config {
	return Config{
		SessionSize: 15,
		MaxNew:      10,
		MaxDue:      0,
	}
}

// Validate checks that the configuration describes a usable queue.
func (c Config) Validate() error {
	if c.SessionSize < 1 {
		return ErrSessionSizeInvalid
	}

	if c.MaxNew < 0 || c.MaxDue < 0 {
		return ErrLimitsInvalid
	}

	return nil
}

// Builder assembles study queues for users. The result is deterministic for
// a fixed store snapshot: no shuffling, ties broken by the store's ordering.
type Builder struct {
	progress store.ProgressStore
	cfg      Config
	clock    clock.Clock
	logger   *slog.Logger
}

// NewBuilder creates a queue Builder.
// If logger is nil, a default logger will be used.
func NewBuilder(progress store.ProgressStore, cfg Config, clk clock.Clock, logger *slog.Logger) (*Builder, error) {
	if progress == nil {
		panic("progress store cannot be nil")
	}
	if clk == nil {
		panic("clock cannot be nil")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid queue config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Builder{
		progress: progress,
		cfg:      cfg,
		clock:    clk,
		logger:   logger.With(slog.String("component", "queue_builder")),
	}, nil
}

// Build returns the cards for a new session in presentation order. Due cards
// come first; never-reviewed cards fill remaining slots up to the new-card
// limit. An empty result is valid and means there is nothing to study.
func (b *Builder) Build(ctx context.Context, userID uuid.UUID, scope domain.DeckScope) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, b.logger)

	dueLimit := b.cfg.SessionSize
	if b.cfg.MaxDue > 0 && b.cfg.MaxDue < dueLimit {
		dueLimit = b.cfg.MaxDue
	}

	due, err := b.progress.DueCards(ctx, userID, scope, b.clock.Now(), dueLimit)
	if err != nil {
		log.Error("failed to load due cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to load due cards: %w", err)
	}

	newLimit := b.cfg.SessionSize - len(due)
	if newLimit > b.cfg.MaxNew {
		newLimit = b.cfg.MaxNew
	}

	cards := due
	if newLimit > 0 {
		fresh, err := b.progress.NewCards(ctx, userID, scope, newLimit)
		if err != nil {
			log.Error("failed to load new cards",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
			return nil, fmt.Errorf("failed to load new cards: %w", err)
		}
		cards = append(cards, fresh...)
	}

	log.Debug("queue built",
		slog.String("user_id", userID.String()),
		slog.Int("due", len(due)),
		slog.Int("new", len(cards)-len(due)),
		slog.Int("total", len(cards)))

	return cards, nil
}
