//go:build !integration

package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"travel-itinerary-ai/internal/domain"
	"travel-itinerary-ai/internal/domain/model"
	"travel-itinerary-ai/internal/domain/ports/repository"
)

// eventLog records store operations across fakes so tests can assert
// write ordering between the durable store and the queue store.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (e *eventLog) add(ev string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *eventLog) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}

type fakeJobRepo struct {
	mu        sync.RWMutex
	store     map[string]*model.Job
	log       *eventLog
	deleteErr error
	updateErr error
}

func newFakeJobRepo(log *eventLog) *fakeJobRepo {
	return &fakeJobRepo{store: make(map[string]*model.Job), log: log}
}

func (f *fakeJobRepo) put(job *model.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *job
	f.store[job.ID] = &cp
}

func (f *fakeJobRepo) Create(ctx context.Context, job *model.Job) error {
	f.put(job)
	return nil
}

func (f *fakeJobRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	j, ok := f.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (f *fakeJobRepo) List(ctx context.Context) ([]*model.Job, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*model.Job, 0, len(f.store))
	for _, j := range f.store {
		cp := *j
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeJobRepo) Update(ctx context.Context, job *model.Job) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.log.add("jobs.update " + string(job.Status))
	f.put(job)
	return nil
}

func (f *fakeJobRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.log.add("jobs.delete")
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.store, id)
	return nil
}

type fakeDocRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Itinerary
	log     *eventLog
	saveErr error
}

func newFakeDocRepo(log *eventLog) *fakeDocRepo {
	return &fakeDocRepo{store: make(map[string]*model.Itinerary), log: log}
}

func (f *fakeDocRepo) Create(ctx context.Context, id, destination string, durationDays int, createdAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[id] = &model.Itinerary{
		ID:           id,
		Status:       model.ItineraryStatusProcessing,
		Destination:  destination,
		DurationDays: durationDays,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	return nil
}

func (f *fakeDocRepo) Save(ctx context.Context, id string, save repository.ItinerarySave) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.log.add("docs.save " + string(save.Status))
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = save.Status
	doc.UpdatedAt = save.UpdatedAt
	doc.CompletedAt = save.CompletedAt
	doc.Error = save.Error
	if save.Itinerary != nil {
		doc.Itinerary = save.Itinerary
	}
	return nil
}

func (f *fakeDocRepo) Find(ctx context.Context, id string) (*model.Itinerary, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	doc, ok := f.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

// fakeGenerator delegates to a test-provided function and counts calls.
type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, destination string, durationDays int) (json.RawMessage, error)
}

func (f *fakeGenerator) GenerateItinerary(ctx context.Context, destination string, durationDays int) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls++
	fn := f.fn
	f.mu.Unlock()
	return fn(ctx, destination, durationDays)
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
