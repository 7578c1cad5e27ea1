// File: internal/usecase/generation_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog"

	"travel-itinerary-ai/internal/domain"
	"travel-itinerary-ai/internal/domain/ports/adapter"
	"travel-itinerary-ai/internal/infra/metrics"
)

const personaPrompt = "You are a travel planning assistant. You respond with exactly one JSON array " +
	"and nothing else: no commentary, no markdown fences, no explanation before or after the array."

// GenerationUseCase is the generation client: it builds the itinerary
// prompt, drives bounded retries with exponential backoff against the
// provider, and recovers a JSON array from a possibly noisy response.
type GenerationUseCase struct {
	ai          adapter.GenerationAdapter
	maxRetries  int
	backoffBase time.Duration
	enc         *tiktoken.Tiktoken
	log         *zerolog.Logger
}

func NewGenerationUseCase(ai adapter.GenerationAdapter, maxRetries int, backoffBase time.Duration, logger *zerolog.Logger) *GenerationUseCase {
	l := logger.With().Str("component", "GenerationUseCase").Logger()
	// Token estimation is best-effort; a missing encoding only disables
	// the prompt-token metric.
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		l.Warn().Err(err).Msg("tiktoken encoding unavailable, prompt token metric disabled")
		enc = nil
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoffBase <= 0 {
		backoffBase = 500 * time.Millisecond
	}
	return &GenerationUseCase{
		ai:          ai,
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
		enc:         enc,
		log:         &l,
	}
}

// GenerateItinerary produces the raw JSON array of day plans for one job.
// The caller bounds the whole call, retries included, through ctx.
func (g *GenerationUseCase) GenerateItinerary(ctx context.Context, destination string, durationDays int) (json.RawMessage, error) {
	messages := buildPrompt(destination, durationDays)
	metrics.AddPromptTokens(g.ai.Name(), g.estimateTokens(messages))

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.IncGenerationRetry(g.ai.Name())
			if err := g.backoff(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		text, err := g.ai.Generate(ctx, messages)
		latency := time.Since(start)
		metrics.ObserveGeneration(g.ai.Name(), int(latency/time.Millisecond), err == nil)

		if err == nil {
			return extractJSONArray(text)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrGenerationAborted, err)
		}
		if !adapter.IsRetryable(err) {
			return nil, err
		}
		lastErr = err
		g.log.Warn().Err(err).Int("attempt", attempt).Dur("latency", latency).Msg("generation attempt failed")
	}
	return nil, fmt.Errorf("%w after %d retries: %v", domain.ErrRetriesExhausted, g.maxRetries, lastErr)
}

// backoff sleeps base*2^attempt plus a uniform jitter in [0, base),
// returning early when ctx fires.
func (g *GenerationUseCase) backoff(ctx context.Context, attempt int) error {
	delay := g.backoffBase*(1<<attempt) + time.Duration(rand.Int63n(int64(g.backoffBase)))
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrGenerationAborted, ctx.Err())
	}
}

func (g *GenerationUseCase) estimateTokens(messages []adapter.Message) int {
	if g.enc == nil {
		return 0
	}
	n := 0
	for _, m := range messages {
		n += len(g.enc.Encode(m.Content, nil, nil))
	}
	return n
}

func buildPrompt(destination string, durationDays int) []adapter.Message {
	user := fmt.Sprintf(
		"Create a %d-day travel itinerary for %s. Respond with a JSON array of day plans. "+
			"Each element must have this exact shape: "+
			`{"day": <integer starting at 1>, "theme": <string>, "activities": `+
			`[{"time": <string>, "description": <string>, "location": <string>}]}. `+
			"Every day must contain at least one activity.",
		durationDays, destination,
	)
	return []adapter.Message{
		{Role: "system", Content: personaPrompt},
		{Role: "user", Content: user},
	}
}

// extractJSONArray parses text as a JSON array, falling back to the first
// top-level balanced-bracket span for models that wrap the array in prose
// or markdown fences. No bracket, or an unbalanced span, is a hard failure.
func extractJSONArray(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	var direct any
	if err := json.Unmarshal([]byte(trimmed), &direct); err == nil {
		if _, ok := direct.([]any); ok {
			return json.RawMessage(trimmed), nil
		}
	}

	start := strings.IndexByte(text, '[')
	if start < 0 {
		return nil, fmt.Errorf("%w: no JSON array in response", domain.ErrMalformedOutput)
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				span := text[start : i+1]
				var v any
				if err := json.Unmarshal([]byte(span), &v); err != nil {
					return nil, fmt.Errorf("%w: extracted span is not valid JSON: %v", domain.ErrMalformedOutput, err)
				}
				return json.RawMessage(span), nil
			}
		}
	}
	return nil, fmt.Errorf("%w: unbalanced JSON array in response", domain.ErrMalformedOutput)
}
