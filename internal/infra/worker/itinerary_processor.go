package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"travel-itinerary-ai/internal/domain"
	"travel-itinerary-ai/internal/domain/model"
	"travel-itinerary-ai/internal/domain/ports/repository"
	"travel-itinerary-ai/internal/infra/metrics"
)

// Generator is what the processor needs from the generation client.
type Generator interface {
	GenerateItinerary(ctx context.Context, destination string, durationDays int) (json.RawMessage, error)
}

// Processor drives the job lifecycle: it scans the queue store, reclaims
// stale locks, claims pending jobs, runs generation and validation, and
// writes terminal outcomes. Every processing error is converted into a
// terminal failed write; nothing propagates to the caller that triggered
// the sweep.
type Processor struct {
	jobs           repository.JobQueueRepository
	docs           repository.ItineraryRepository
	gen            Generator
	staleThreshold time.Duration
	genTimeout     time.Duration
	log            *zerolog.Logger
	now            func() time.Time
}

func NewProcessor(
	jobs repository.JobQueueRepository,
	docs repository.ItineraryRepository,
	gen Generator,
	staleThreshold, genTimeout time.Duration,
	logger *zerolog.Logger,
) *Processor {
	l := logger.With().Str("component", "Processor").Logger()
	if staleThreshold <= 0 {
		staleThreshold = 600 * time.Second
	}
	if genTimeout <= 0 {
		genTimeout = 30 * time.Second
	}
	return &Processor{
		jobs:           jobs,
		docs:           docs,
		gen:            gen,
		staleThreshold: staleThreshold,
		genTimeout:     genTimeout,
		log:            &l,
		now:            time.Now,
	}
}

// Sweep makes one full pass over the queue store, processing every eligible
// record before returning. Enumeration order is unspecified and not relied
// upon. The returned error covers only the enumeration itself.
func (p *Processor) Sweep(ctx context.Context) error {
	start := time.Now()
	jobs, err := p.jobs.List(ctx)
	if err != nil {
		p.log.Error().Err(err).Msg("queue enumeration failed")
		return err
	}
	for _, job := range jobs {
		p.sweepOne(ctx, job)
	}
	metrics.ObserveSweepDuration(time.Since(start).Seconds())
	p.log.Debug().Int("records", len(jobs)).Dur("duration", time.Since(start)).Msg("sweep finished")
	return nil
}

// ProcessJob is the on-demand path used right after submission. It follows
// the same claim rules as a sweep so racing with one is harmless.
func (p *Processor) ProcessJob(ctx context.Context, jobID string) {
	job, err := p.jobs.Get(ctx, jobID)
	if err != nil {
		// Absence means a concurrent sweep already finished the job.
		if err != domain.ErrNotFound {
			p.log.Error().Err(err).Str("job_id", jobID).Msg("on-demand fetch failed")
		}
		return
	}
	p.sweepOne(ctx, job)
}

func (p *Processor) sweepOne(ctx context.Context, job *model.Job) {
	log := p.log.With().Str("job_id", job.ID).Logger()

	if job.LockExpired(p.now(), p.staleThreshold) {
		job.ResetStale()
		if err := p.jobs.Update(ctx, job); err != nil {
			log.Error().Err(err).Msg("stale lock reset failed")
			return
		}
		metrics.IncStaleLockReclaimed()
		log.Warn().Msg("stale lock reclaimed")
	}
	if job.Status != model.JobStatusPending {
		return
	}

	// Advisory lock: best-effort, not a compare-and-set. A concurrent
	// sweep may claim the same record; the durable write is idempotent
	// per job id, so duplicate attempts overwrite harmlessly.
	job.Lock(p.now().UTC())
	if err := p.jobs.Update(ctx, job); err != nil {
		log.Error().Err(err).Msg("lock acquisition failed")
		return
	}

	p.process(ctx, job)
}

func (p *Processor) process(ctx context.Context, job *model.Job) {
	log := p.log.With().Str("job_id", job.ID).Logger()
	log.Info().Str("destination", job.Destination).Int("duration_days", job.DurationDays).Msg("processing job")
	start := time.Now()

	// The deadline bounds only the generation phase. It does not roll
	// back the lock: an aborted job stays in-progress until a later
	// sweep reclaims it.
	gctx, cancel := context.WithTimeout(ctx, p.genTimeout)
	raw, err := p.gen.GenerateItinerary(gctx, job.Destination, job.DurationDays)
	cancel()

	var plans []model.DayPlan
	if err == nil {
		plans, err = model.DecodeDayPlans(raw)
	}
	if err != nil {
		p.fail(ctx, job, err)
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("job failed")
		return
	}

	blob, err := json.Marshal(plans)
	if err != nil {
		p.fail(ctx, job, err)
		return
	}
	itin := string(blob)
	now := p.now().UTC()
	save := repository.ItinerarySave{
		Status:      model.ItineraryStatusCompleted,
		Itinerary:   &itin,
		UpdatedAt:   now,
		CompletedAt: &now,
	}
	if err := p.docs.Save(ctx, job.ID, save); err != nil {
		p.fail(ctx, job, err)
		log.Error().Err(err).Msg("completion write failed")
		return
	}

	// Durable write confirmed first: a crash here leaves a completed
	// document and an orphan queue record, which a later sweep re-derives
	// and overwrites harmlessly.
	if err := p.jobs.Delete(ctx, job.ID); err != nil {
		log.Error().Err(err).Msg("queue cleanup failed, record will be reprocessed")
	}
	metrics.IncJobProcessed(string(model.ItineraryStatusCompleted))
	log.Info().Int("days", len(plans)).Dur("duration", time.Since(start)).Msg("job completed")
}

// fail writes the terminal failed state. The durable write is best-effort:
// if it fails too, a secondary diagnostic is appended to the message and the
// queue record is still marked failed so sweeps stop reprocessing it.
func (p *Processor) fail(ctx context.Context, job *model.Job, cause error) {
	msg := cause.Error()
	now := p.now().UTC()
	errStr := msg
	save := repository.ItinerarySave{
		Status:      model.ItineraryStatusFailed,
		UpdatedAt:   now,
		CompletedAt: &now,
		Error:       &errStr,
	}
	if derr := p.docs.Save(ctx, job.ID, save); derr != nil {
		msg = msg + "; additionally failed to persist failure state: " + derr.Error()
		p.log.Error().Err(derr).Str("job_id", job.ID).Msg("failure write to durable store failed")
	}

	job.MarkFailed(msg)
	if uerr := p.jobs.Update(ctx, job); uerr != nil {
		p.log.Error().Err(uerr).Str("job_id", job.ID).Msg("queue failure mark failed")
	}
	metrics.IncJobProcessed(string(model.ItineraryStatusFailed))
}
