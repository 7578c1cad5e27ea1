//go:build !integration

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"travel-itinerary-ai/internal/domain"
	"travel-itinerary-ai/internal/domain/ports/adapter"
	"travel-itinerary-ai/internal/usecase"
)

const planReply = `[{"day":1,"theme":"Canals","activities":[{"time":"10:00","description":"Boat tour","location":"Prinsengracht"}]}]`

func chatReply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func TestOpenAIAdapterRequestShape(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody struct {
		Model    string            `json:"model"`
		Messages []adapter.Message `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(chatReply("hello")))
	}))
	defer srv.Close()

	ad, err := NewOpenAIAdapter("sk-test", "gpt-4o-mini", srv.URL)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	out, err := ad.Generate(context.Background(), []adapter.Message{
		{Role: "system", Content: "persona"},
		{Role: "user", Content: "plan"},
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if out != "hello" {
		t.Errorf("content = %q, want %q", out, "hello")
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody.Model != "gpt-4o-mini" || len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" {
		t.Errorf("unexpected request body: %+v", gotBody)
	}
}

func TestOpenAIAdapterProviderErrors(t *testing.T) {
	var status atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()
	ad, _ := NewOpenAIAdapter("sk-test", "", srv.URL)

	cases := []struct {
		code      int
		retryable bool
	}{
		{429, true},
		{500, true},
		{503, true},
		{404, false},
		{401, false},
	}
	for _, tc := range cases {
		status.Store(int32(tc.code))
		_, err := ad.Generate(context.Background(), []adapter.Message{{Role: "user", Content: "x"}})
		var pe *adapter.ProviderError
		if !errors.As(err, &pe) {
			t.Fatalf("status %d: expected ProviderError, got: %v", tc.code, err)
		}
		if pe.StatusCode != tc.code || pe.Provider != "openai" {
			t.Errorf("status %d: unexpected error fields: %+v", tc.code, pe)
		}
		if adapter.IsRetryable(err) != tc.retryable {
			t.Errorf("status %d: retryable = %v, want %v", tc.code, !tc.retryable, tc.retryable)
		}
	}
}

func TestOpenAIAdapterContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts its background read and can
		// observe the client disconnect; otherwise r.Context() never fires
		// and srv.Close deadlocks.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()
	ad, _ := NewOpenAIAdapter("sk-test", "", srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := ad.Generate(ctx, []adapter.Message{{Role: "user", Content: "x"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got: %v", err)
	}
	if adapter.IsRetryable(err) {
		t.Error("context errors must not be retryable")
	}
}

// Exercises the full retry path: the generation client against a real HTTP
// provider that recovers after two transient failures.
func TestGenerationClientRetriesTransientFailures(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(chatReply(planReply)))
	}))
	defer srv.Close()
	ad, _ := NewOpenAIAdapter("sk-test", "", srv.URL)

	log := zerolog.Nop()
	uc := usecase.NewGenerationUseCase(ad, 3, time.Millisecond, &log)
	raw, err := uc.GenerateItinerary(context.Background(), "Amsterdam", 1)
	if err != nil {
		t.Fatalf("expected recovery after retries, got: %v", err)
	}
	if requests.Load() != 3 {
		t.Errorf("expected 3 requests, got %d", requests.Load())
	}
	var plans []any
	if err := json.Unmarshal(raw, &plans); err != nil || len(plans) != 1 {
		t.Errorf("unexpected extracted payload: %s (%v)", raw, err)
	}
}

func TestGenerationClientDoesNotRetryClientErrors(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	ad, _ := NewOpenAIAdapter("sk-test", "", srv.URL)

	log := zerolog.Nop()
	uc := usecase.NewGenerationUseCase(ad, 3, time.Millisecond, &log)
	_, err := uc.GenerateItinerary(context.Background(), "Amsterdam", 1)
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, domain.ErrRetriesExhausted) {
		t.Error("client errors must fail without exhausting retries")
	}
	if requests.Load() != 1 {
		t.Errorf("expected exactly 1 request, got %d", requests.Load())
	}
}

func TestMultiAdapter(t *testing.T) {
	t.Run("routes to the default provider", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(chatReply("from-openai")))
		}))
		defer srv.Close()
		openai, _ := NewOpenAIAdapter("sk-test", "", srv.URL)

		multi := NewMultiAdapter("openai", map[string]adapter.GenerationAdapter{"openai": openai})
		out, err := multi.Generate(context.Background(), []adapter.Message{{Role: "user", Content: "x"}})
		if err != nil || out != "from-openai" {
			t.Errorf("got %q, %v", out, err)
		}
	})

	t.Run("no providers configured", func(t *testing.T) {
		multi := NewMultiAdapter("openai", nil)
		_, err := multi.Generate(context.Background(), []adapter.Message{{Role: "user", Content: "x"}})
		var pe *adapter.ProviderError
		if !errors.As(err, &pe) || pe.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("expected 503 ProviderError, got: %v", err)
		}
	})
}

func TestLimitedGeneration(t *testing.T) {
	var inFlight, peak atomic.Int32
	blocker := &funcAdapter{fn: func(ctx context.Context) (string, error) {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return "ok", nil
	}}

	limited := NewLimitedGeneration(blocker, 2)
	done := make(chan struct{})
	for i := 0; i < 6; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_, _ = limited.Generate(context.Background(), nil)
		}()
	}
	for i := 0; i < 6; i++ {
		<-done
	}
	if p := peak.Load(); p > 2 {
		t.Errorf("concurrency peak = %d, want <= 2", p)
	}
}

type funcAdapter struct {
	fn func(ctx context.Context) (string, error)
}

func (f *funcAdapter) Name() string { return "func" }

func (f *funcAdapter) Generate(ctx context.Context, _ []adapter.Message) (string, error) {
	return f.fn(ctx)
}
