// File: internal/usecase/itinerary_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"travel-itinerary-ai/internal/domain"
	"travel-itinerary-ai/internal/domain/model"
	"travel-itinerary-ai/internal/domain/ports/repository"
)

// ProcessTrigger kicks off an immediate processing attempt for one job.
// Wired to the worker pool in main so submission never blocks on it.
type ProcessTrigger func(jobID string)

// StatusView is the normalized status-query response: the serialized
// itinerary blob is expanded into structured day plans at this boundary.
type StatusView struct {
	JobID        string          `json:"jobId"`
	Status       string          `json:"status"`
	Destination  string          `json:"destination"`
	DurationDays int             `json:"durationDays"`
	CreatedAt    time.Time       `json:"createdAt"`
	CompletedAt  *time.Time      `json:"completedAt"`
	Itinerary    []model.DayPlan `json:"itinerary"`
	Error        *string         `json:"error"`
}

// ItineraryUseCase implements the submission and status contracts.
type ItineraryUseCase struct {
	jobs    repository.JobQueueRepository
	docs    repository.ItineraryRepository
	trigger ProcessTrigger
	log     *zerolog.Logger
}

func NewItineraryUseCase(jobs repository.JobQueueRepository, docs repository.ItineraryRepository, logger *zerolog.Logger) *ItineraryUseCase {
	l := logger.With().Str("component", "ItineraryUseCase").Logger()
	return &ItineraryUseCase{jobs: jobs, docs: docs, log: &l}
}

// SetProcessTrigger wires the on-demand processing path. Set once during
// startup, before the HTTP server accepts submissions.
func (uc *ItineraryUseCase) SetProcessTrigger(t ProcessTrigger) {
	uc.trigger = t
}

// Submit validates the request, writes the pending queue record, then hands
// durable-document creation and the first processing attempt to a background
// goroutine. The job id is returned without waiting for either.
func (uc *ItineraryUseCase) Submit(ctx context.Context, destination string, durationDays int) (string, error) {
	job, err := model.NewJob(destination, durationDays)
	if err != nil {
		return "", err
	}
	if err := uc.jobs.Create(ctx, job); err != nil {
		return "", err
	}

	go uc.startProcessing(job)

	uc.log.Info().Str("job_id", job.ID).Str("destination", destination).Int("duration_days", durationDays).Msg("job submitted")
	return job.ID, nil
}

// startProcessing runs detached from the request context: the submission
// response must not wait on the durable store or the generation provider.
func (uc *ItineraryUseCase) startProcessing(job *model.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := uc.docs.Create(ctx, job.ID, job.Destination, job.DurationDays, job.CreatedAt); err != nil {
		// The queue record stays pending; a later sweep retries the
		// whole job, and document creation is overwrite-by-id.
		uc.log.Error().Err(err).Str("job_id", job.ID).Msg("initial document write failed")
		return
	}
	if uc.trigger != nil {
		uc.trigger(job.ID)
	}
}

// Status returns the normalized view of one job's durable document.
func (uc *ItineraryUseCase) Status(ctx context.Context, jobID string) (*StatusView, error) {
	doc, err := uc.docs.Find(ctx, jobID)
	if err != nil {
		return nil, err
	}

	view := &StatusView{
		JobID:        doc.ID,
		Status:       string(doc.Status),
		Destination:  doc.Destination,
		DurationDays: doc.DurationDays,
		CreatedAt:    doc.CreatedAt,
		CompletedAt:  doc.CompletedAt,
		Error:        doc.Error,
	}
	if doc.Itinerary != nil {
		var plans []model.DayPlan
		if err := json.Unmarshal([]byte(*doc.Itinerary), &plans); err != nil {
			return nil, domain.ErrMalformedOutput
		}
		view.Itinerary = plans
	}
	return view, nil
}
