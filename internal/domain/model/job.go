package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"travel-itinerary-ai/internal/domain"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in-progress"
	JobStatusFailed     JobStatus = "failed"
)

// Job is the transient queue record that coordinates processing attempts.
// It exists for exactly as long as the job has not reached durable success:
// the record is deleted once the itinerary document is written as completed.
type Job struct {
	ID           string    `json:"id"`
	Destination  string    `json:"destination"`
	DurationDays int       `json:"durationDays"`
	Status       JobStatus `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	// LockedAt is set when the job transitions to in-progress and is the
	// sole input to stale-lock reclamation. Zero when unlocked.
	LockedAt time.Time `json:"lockedAt,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// NewJob builds a pending queue record for a fresh submission.
func NewJob(destination string, durationDays int) (*Job, error) {
	if strings.TrimSpace(destination) == "" {
		return nil, domain.ErrInvalidArgument
	}
	if durationDays < 1 {
		return nil, domain.ErrInvalidArgument
	}
	return &Job{
		ID:           uuid.NewString(),
		Destination:  destination,
		DurationDays: durationDays,
		Status:       JobStatusPending,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// LockExpired reports whether an in-progress lock is older than threshold.
func (j *Job) LockExpired(now time.Time, threshold time.Duration) bool {
	return j.Status == JobStatusInProgress && !j.LockedAt.IsZero() && now.Sub(j.LockedAt) > threshold
}

// ResetStale reverts an abandoned in-progress job to pending, clearing any
// error left by the crashed attempt.
func (j *Job) ResetStale() {
	j.Status = JobStatusPending
	j.LockedAt = time.Time{}
	j.Error = ""
}

// Lock claims the job for processing.
func (j *Job) Lock(now time.Time) {
	j.Status = JobStatusInProgress
	j.LockedAt = now
}

// MarkFailed retains the record with the failure message so periodic sweeps
// do not silently reprocess it. Only a fresh submission retries.
func (j *Job) MarkFailed(msg string) {
	j.Status = JobStatusFailed
	j.Error = msg
}
