package ai

import (
	"context"

	"travel-itinerary-ai/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.GenerationAdapter = (*limitedGeneration)(nil)

type limitedGeneration struct {
	inner adapter.GenerationAdapter
	sem   chan struct{}
}

// NewLimitedGeneration caps concurrent provider calls across all sweeps.
func NewLimitedGeneration(inner adapter.GenerationAdapter, maxConcurrent int) adapter.GenerationAdapter {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedGeneration{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedGeneration) Name() string { return l.inner.Name() }

func (l *limitedGeneration) Generate(ctx context.Context, messages []adapter.Message) (string, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Generate(ctx, messages)
}
