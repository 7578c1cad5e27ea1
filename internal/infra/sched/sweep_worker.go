package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"travel-itinerary-ai/internal/infra/worker"
)

// SweepWorker periodically runs a full processor sweep through the pool.
// It is one of the two sweep triggers; the other is the guarded HTTP
// endpoint for external schedulers.
type SweepWorker struct {
	interval  time.Duration
	pool      *worker.Pool
	processor *worker.Processor
	log       *zerolog.Logger
}

func NewSweepWorker(interval time.Duration, pool *worker.Pool, processor *worker.Processor, logger *zerolog.Logger) *SweepWorker {
	l := logger.With().Str("component", "SweepWorker").Logger()
	return &SweepWorker{
		interval:  interval,
		pool:      pool,
		processor: processor,
		log:       &l,
	}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting sweep worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping sweep worker")
			return ctx.Err()
		case <-ticker.C:
			if err := w.pool.Submit(func(ctx context.Context) error {
				return w.processor.Sweep(ctx)
			}); err != nil {
				w.log.Warn().Err(err).Msg("sweep submission dropped")
			}
		}
	}
}
