//go:build !integration

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"travel-itinerary-ai/internal/domain"
	"travel-itinerary-ai/internal/domain/model"
)

func newTestRepo(t *testing.T) (*jobQueueRepo, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	cli := NewClientFromAddr(mr.Addr())
	t.Cleanup(func() {
		_ = cli.Close()
		mr.Close()
	})
	return NewJobQueueRepo(cli), mr
}

func seedJob(t *testing.T) *model.Job {
	t.Helper()
	job, err := model.NewJob("Kyoto, Japan", 7)
	if err != nil {
		t.Fatalf("seeding job: %v", err)
	}
	return job
}

func TestJobQueueRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	job := seedJob(t)

	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != job.ID || got.Destination != "Kyoto, Japan" || got.DurationDays != 7 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Status != model.JobStatusPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
	if !got.LockedAt.IsZero() {
		t.Errorf("lockedAt should be zero, got %v", got.LockedAt)
	}
}

func TestJobQueueGetMissing(t *testing.T) {
	repo, _ := newTestRepo(t)
	if _, err := repo.Get(context.Background(), "absent"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestJobQueueUpdate(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	job := seedJob(t)
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}

	locked := time.Now().UTC().Truncate(time.Second)
	job.Lock(locked)
	if err := repo.Update(ctx, job); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.JobStatusInProgress {
		t.Errorf("status = %s, want in-progress", got.Status)
	}
	if !got.LockedAt.Equal(locked) {
		t.Errorf("lockedAt = %v, want %v", got.LockedAt, locked)
	}
}

func TestJobQueueList(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	ids := map[string]bool{}
	for i := 0; i < 3; i++ {
		job := seedJob(t)
		if err := repo.Create(ctx, job); err != nil {
			t.Fatalf("create: %v", err)
		}
		ids[job.ID] = true
	}

	jobs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(jobs))
	}
	for _, j := range jobs {
		if !ids[j.ID] {
			t.Errorf("unexpected record %s", j.ID)
		}
	}
}

func TestJobQueueDelete(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()
	job := seedJob(t)
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Delete(ctx, job.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, job.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got: %v", err)
	}
	if mr.Exists(jobKeyPrefix + job.ID) {
		t.Error("record key should be gone")
	}
	if members, _ := mr.Members(jobIndexKey); len(members) != 0 {
		t.Errorf("index should be empty, got %v", members)
	}
}

func TestJobQueueListCleansDanglingIndexEntries(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()

	kept := seedJob(t)
	if err := repo.Create(ctx, kept); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Simulate a record whose key vanished while its index entry survived.
	if _, err := mr.SetAdd(jobIndexKey, "vanished-id"); err != nil {
		t.Fatalf("seeding index: %v", err)
	}

	jobs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != kept.ID {
		t.Errorf("expected only the live record, got %+v", jobs)
	}
	members, _ := mr.Members(jobIndexKey)
	if len(members) != 1 || members[0] != kept.ID {
		t.Errorf("dangling index entry not cleaned, got %v", members)
	}
}
