package ai

import (
	"context"
	"time"

	"travel-itinerary-ai/internal/domain/ports/adapter"
)

var _ adapter.GenerationAdapter = (*NoopAdapter)(nil)

// NoopAdapter implements adapter.GenerationAdapter for local/dev runs.
// It returns a canned single-day itinerary instead of calling a provider.
type NoopAdapter struct{}

func NewNoopAdapter() *NoopAdapter {
	return &NoopAdapter{}
}

func (a *NoopAdapter) Name() string { return "noop" }

func (a *NoopAdapter) Generate(ctx context.Context, messages []adapter.Message) (string, error) {
	// Simulate slight processing time and respect ctx
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return `[{"day":1,"theme":"Arrival and orientation","activities":[` +
		`{"time":"09:00","description":"Walk the old town","location":"City center"},` +
		`{"time":"13:00","description":"Lunch at a local market","location":"Market hall"},` +
		`{"time":"19:00","description":"Dinner with a view","location":"Riverside"}]}]`, nil
}
