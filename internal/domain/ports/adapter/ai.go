package adapter

import (
	"context"
	"errors"
	"fmt"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ProviderError carries the upstream HTTP status from a generation provider
// so callers can decide whether a failed call is worth retrying.
type ProviderError struct {
	Provider   string
	StatusCode int
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s http %d", e.Provider, e.StatusCode)
}

// Retryable reports whether the provider signalled a transient condition
// (rate limit or server-side failure). Other 4xx codes fail immediately.
func (e *ProviderError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// IsRetryable classifies an error from GenerationAdapter.Generate. Network
// level failures (anything that is not a ProviderError or a context error)
// are treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return true
}

// GenerationAdapter is the port for text-generation providers. Generate
// performs exactly one provider call; retry policy lives with the caller.
type GenerationAdapter interface {
	// Name identifies the provider for logs and metrics.
	Name() string

	// Generate returns the assistant text for the given messages.
	Generate(ctx context.Context, messages []Message) (string, error)
}
