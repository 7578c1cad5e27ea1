package ai

import (
	"context"
	"strings"

	"travel-itinerary-ai/internal/domain/ports/adapter"
)

var _ adapter.GenerationAdapter = (*MultiAdapter)(nil)

// MultiAdapter routes generation calls to a named provider, so alternate
// providers can be substituted through config without touching the
// processor.
type MultiAdapter struct {
	defaultProvider string
	byProvider      map[string]adapter.GenerationAdapter
}

func NewMultiAdapter(defaultProvider string, byProvider map[string]adapter.GenerationAdapter) *MultiAdapter {
	return &MultiAdapter{
		defaultProvider: strings.ToLower(defaultProvider),
		byProvider:      byProvider,
	}
}

func (m *MultiAdapter) pick() adapter.GenerationAdapter {
	if a := m.byProvider[m.defaultProvider]; a != nil {
		return a
	}
	// last resort: first available
	for _, a := range m.byProvider {
		if a != nil {
			return a
		}
	}
	return nil
}

func (m *MultiAdapter) Name() string {
	if a := m.pick(); a != nil {
		return a.Name()
	}
	return "none"
}

func (m *MultiAdapter) Generate(ctx context.Context, messages []adapter.Message) (string, error) {
	a := m.pick()
	if a == nil {
		return "", &adapter.ProviderError{Provider: "none", StatusCode: 503}
	}
	return a.Generate(ctx, messages)
}
