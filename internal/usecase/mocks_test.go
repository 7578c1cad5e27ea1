//go:build !integration

package usecase

import (
	"context"
	"sync"
	"time"

	"travel-itinerary-ai/internal/domain"
	"travel-itinerary-ai/internal/domain/model"
	"travel-itinerary-ai/internal/domain/ports/adapter"
	"travel-itinerary-ai/internal/domain/ports/repository"
)

// memJobRepo is a small in-memory queue store used by unit tests.
type memJobRepo struct {
	mu        sync.RWMutex
	store     map[string]*model.Job
	createErr error // used by tests to simulate queue failures
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{store: make(map[string]*model.Job)}
}

func (m *memJobRepo) Create(ctx context.Context, job *model.Job) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.store[job.ID] = &cp
	return nil
}

func (m *memJobRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) List(ctx context.Context) ([]*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Job, 0, len(m.store))
	for _, j := range m.store {
		cp := *j
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memJobRepo) Update(ctx context.Context, job *model.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.store[job.ID] = &cp
	return nil
}

func (m *memJobRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, id)
	return nil
}

// memDocRepo is an in-memory durable store.
type memDocRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Itinerary
	saveErr error
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{store: make(map[string]*model.Itinerary)}
}

func (m *memDocRepo) Create(ctx context.Context, id, destination string, durationDays int, createdAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[id] = &model.Itinerary{
		ID:           id,
		Status:       model.ItineraryStatusProcessing,
		Destination:  destination,
		DurationDays: durationDays,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	return nil
}

func (m *memDocRepo) Save(ctx context.Context, id string, save repository.ItinerarySave) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.store[id]
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

func (m *memDocRepo) Find(ctx context.Context, id string) (*model.Itinerary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

// fakeGen is a scripted generation adapter: it pops one response per call.
type fakeGen struct {
	mu      sync.Mutex
	calls   int
	replies []fakeReply
}

type fakeReply struct {
	text string
	err  error
}

func (f *fakeGen) Name() string { return "fake" }

func (f *fakeGen) Generate(ctx context.Context, messages []adapter.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.replies) == 0 {
		return "", &adapter.ProviderError{Provider: "fake", StatusCode: 500}
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r.text, r.err
}

func (f *fakeGen) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
