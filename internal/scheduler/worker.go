package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type ReleaseUsecase interface {
	ReleaseDue(ctx context.Context) (int, error)
}

// ReleaseWorker drives the deferred seat releases. Jobs live in Postgres,
// so the worker picks up where it left off after a restart, and multiple
// instances can run side by side (due jobs are claimed with row locks).
type ReleaseWorker struct {
	usecase  ReleaseUsecase
	interval time.Duration
	logger   zerolog.Logger
}

func NewReleaseWorker(usecase ReleaseUsecase, interval time.Duration, logger zerolog.Logger) *ReleaseWorker {
	return &ReleaseWorker{
		usecase:  usecase,
		interval: interval,
		logger:   logger,
	}
}

// Run polls until the context is cancelled. Failures are logged and retried
// on the next tick; the worker never stops on a job error.
func (w *ReleaseWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			released, err := w.usecase.ReleaseDue(w.logger.WithContext(ctx))
			if err != nil {
				w.logger.Err(err).Msg("release pass failed")
			}
			if released > 0 {
				w.logger.Info().Int("released", released).Msg("released expired holds")
			}
		}
	}
}
