package stats

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/pholn/mnemo/internal/domain"
	"github.com/pholn/mnemo/internal/store"
)

// ReplayerConfig holds configuration for the summary replayer.
type ReplayerConfig struct {
	// CheckInterval is how often the replayer scans for unapplied
	// summaries. If zero, defaults to 5 minutes.
	CheckInterval time.Duration

	// BatchSize caps how many summaries one sweep processes.
	// If zero, defaults to 50.
	BatchSize int
}

// DefaultReplayerConfig returns a ReplayerConfig with reasonable defaults.
func DefaultReplayerConfig() ReplayerConfig {
	return ReplayerConfig{
		CheckInterval: 5 * time.Minute,
		BatchSize:     50,
	}
}

// Replayer is a background loop that re-applies session summaries whose
// stats application failed after the summary itself was committed. The
// summary row is the retry unit: the store's claim makes each application
// exactly-once even when a sweep races a live finalization.
type Replayer struct {
	summaries  store.SummaryStore
	aggregator *Aggregator
	config     ReplayerConfig
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// NewReplayer creates a Replayer.
// If logger is nil, a default logger will be used.
func NewReplayer(
	summaries store.SummaryStore,
	aggregator *Aggregator,
	config ReplayerConfig,
	logger *slog.Logger,
) *Replayer {
	if summaries == nil {
		panic("summary store cannot be nil")
	}
	if aggregator == nil {
		panic("aggregator cannot be nil")
	}

	if config.CheckInterval == 0 {
		config.CheckInterval = 5 * time.Minute
	}
	if config.BatchSize == 0 {
		config.BatchSize = 50
	}

	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Replayer{
		summaries:  summaries,
		aggregator: aggregator,
		config:     config,
		ctx:        ctx,
		cancelFunc: cancel,
		logger:     logger.With(slog.String("component", "stats_replayer")),
	}
}

// Start launches the background sweep loop. The first sweep runs
// immediately so a restart drains any backlog without waiting a full
// interval.
func (r *Replayer) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		r.sweep(r.ctx)

		ticker := time.NewTicker(r.config.CheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				r.sweep(r.ctx)
			}
		}
	}()
}

// Stop gracefully shuts down the replayer, waiting for an in-flight sweep
// to finish.
func (r *Replayer) Stop() {
	r.cancelFunc()
	r.wg.Wait()
}

// ReplayOnce runs a single sweep synchronously and reports how many
// summaries were applied. Useful for startup drains and tests.
func (r *Replayer) ReplayOnce(ctx context.Context) (int, error) {
	pending, err := r.summaries.ListUnapplied(ctx, r.config.BatchSize)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, summary := range pending {
		if err := r.apply(ctx, summary); err != nil {
			return applied, err
		}
		applied++
	}

	return applied, nil
}

func (r *Replayer) sweep(ctx context.Context) {
	pending, err := r.summaries.ListUnapplied(ctx, r.config.BatchSize)
	if err != nil {
		r.logger.Error("failed to list unapplied summaries",
			slog.String("error", err.Error()))
		return
	}

	if len(pending) == 0 {
		return
	}

	r.logger.Info("replaying unapplied session summaries",
		slog.Int("count", len(pending)))

	for _, summary := range pending {
		if ctx.Err() != nil {
			return
		}

		if err := r.apply(ctx, summary); err != nil {
			r.logger.Error("failed to replay session summary",
				slog.String("error", err.Error()),
				slog.String("summary_id", summary.ID.String()),
				slog.String("user_id", summary.UserID.String()))
		}
	}
}

// apply records one summary, treating a lost claim race as success.
func (r *Replayer) apply(ctx context.Context, summary *domain.SessionSummary) error {
	err := r.aggregator.Record(ctx, summary)
	if errors.Is(err, store.ErrSummaryApplied) {
		r.logger.Debug("summary already applied",
			slog.String("summary_id", summary.ID.String()))
		return nil
	}
	return err
}
