package repository

import (
	"context"

	"travel-itinerary-ai/internal/domain/model"
)

// JobQueueRepository tracks transient work records in the queue store.
// A record exists iff its job has not reached durable success; Delete is
// the success-side cleanup and must be idempotent.
//
// Update is a best-effort read-modify-write, not an atomic compare-and-set:
// concurrent sweeps may race on the same record. The advisory lock built on
// top of it tolerates that because the durable document write is idempotent
// per job id.
type JobQueueRepository interface {
	Create(ctx context.Context, job *model.Job) error
	Get(ctx context.Context, id string) (*model.Job, error)
	// List enumerates all records; ordering is unspecified.
	List(ctx context.Context) ([]*model.Job, error)
	Update(ctx context.Context, job *model.Job) error
	Delete(ctx context.Context, id string) error
}
