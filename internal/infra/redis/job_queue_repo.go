// File: internal/infra/redis/job_queue_repo.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"travel-itinerary-ai/internal/domain"
	"travel-itinerary-ai/internal/domain/model"
	"travel-itinerary-ai/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

const (
	jobKeyPrefix = "itinerary:job:"
	jobIndexKey  = "itinerary:jobs"
)

var _ repository.JobQueueRepository = (*jobQueueRepo)(nil)

// jobQueueRepo keeps one JSON-encoded record per job plus a set index so
// sweeps can enumerate all records. Records never expire on their own; the
// processor deletes them on success and retains them on failure.
type jobQueueRepo struct {
	cli RedisClient
}

func NewJobQueueRepo(cli RedisClient) *jobQueueRepo {
	return &jobQueueRepo{cli: cli}
}

func jobKey(id string) string { return jobKeyPrefix + id }

func (r *jobQueueRepo) Create(ctx context.Context, job *model.Job) error {
	if err := r.write(ctx, job); err != nil {
		return err
	}
	return r.cli.SAdd(ctx, jobIndexKey, job.ID)
}

func (r *jobQueueRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	raw, err := r.cli.Get(ctx, jobKey(id))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("queue get: %w", err)
	}
	var job model.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("queue decode: %w", err)
	}
	return &job, nil
}

func (r *jobQueueRepo) List(ctx context.Context) ([]*model.Job, error) {
	ids, err := r.cli.SMembers(ctx, jobIndexKey)
	if err != nil {
		return nil, fmt.Errorf("queue list: %w", err)
	}
	jobs := make([]*model.Job, 0, len(ids))
	for _, id := range ids {
		job, err := r.Get(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			// Record deleted between SMEMBERS and GET; drop the
			// dangling index entry and move on.
			_ = r.cli.SRem(ctx, jobIndexKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (r *jobQueueRepo) Update(ctx context.Context, job *model.Job) error {
	return r.write(ctx, job)
}

func (r *jobQueueRepo) Delete(ctx context.Context, id string) error {
	if err := r.cli.Del(ctx, jobKey(id)); err != nil {
		return fmt.Errorf("queue delete: %w", err)
	}
	return r.cli.SRem(ctx, jobIndexKey, id)
}

func (r *jobQueueRepo) write(ctx context.Context, job *model.Job) error {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue encode: %w", err)
	}
	if err := r.cli.Set(ctx, jobKey(job.ID), string(b), 0); err != nil {
		return fmt.Errorf("queue write: %w", err)
	}
	return nil
}
