package worker

import (
	"context"
	"errors"
	"time"

	"txn-store/internal/domain"
	"txn-store/internal/repo"

	"github.com/rs/zerolog"
)

// PendingSweeper cancels transactions that have stayed PENDING longer than ttl.
// Cancellation goes through the repo's UpdateStatus like any other caller, so a
// record completed concurrently is simply skipped.
type PendingSweeper struct {
	repo     repo.TransactionRepo
	ttl      time.Duration
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

func NewPendingSweeper(
	repo repo.TransactionRepo,
	ttl time.Duration,
	interval time.Duration,
	logger zerolog.Logger,
) *PendingSweeper {
	return &PendingSweeper{
		repo:     repo,
		ttl:      ttl,
		interval: interval,
		logger:   logger.With().Str("component", "pending_sweeper").Logger(),
		now:      time.Now,
	}
}

func (w *PendingSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().Dur("ttl", w.ttl).Dur("interval", w.interval).Msg("pending sweeper started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("pending sweeper stopped")
			return
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil {
				w.logger.Error().Err(err).Msg("sweep failed")
			}
		}
	}
}

// Sweep runs one pass and returns how many transactions it cancelled.
func (w *PendingSweeper) Sweep(ctx context.Context) (int, error) {
	pending := domain.StatusPending
	stale, err := w.repo.List(ctx, domain.ListFilter{Status: &pending})
	if err != nil {
		return 0, err
	}

	cutoff := w.now().Add(-w.ttl)
	cancelled := 0
	for _, txn := range stale {
		if !txn.CreatedAt.Before(cutoff) {
			continue
		}

		_, err := w.repo.UpdateStatus(ctx, txn.ID, domain.StatusCancelled)
		switch {
		case err == nil:
			cancelled++
			w.logger.Info().Stringer("id", txn.ID).Str("idempotency_key", txn.IdempotencyKey).Msg("cancelled stale pending transaction")
		case errors.Is(err, domain.ErrInvalidTransition):
			w.logger.Debug().Stringer("id", txn.ID).Msg("transaction left pending before sweep, skipping")
		default:
			w.logger.Error().Err(err).Stringer("id", txn.ID).Msg("failed to cancel stale transaction")
		}
	}

	if cancelled > 0 {
		w.logger.Info().Int("cancelled", cancelled).Msg("sweep finished")
	}
	return cancelled, nil
}
