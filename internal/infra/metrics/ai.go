package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(genLatencyMs, genRetriesTotal, genPromptTokens) }

var genLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "generation_calls_latency_ms",
		Help:    "Generation call latency distribution in milliseconds.",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 20000, 30000},
	},
	[]string{"provider", "success"},
)

var genRetriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "generation_retries_total",
		Help: "Retried generation attempts per provider.",
	},
	[]string{"provider"},
)

var genPromptTokens = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "generation_prompt_tokens_total",
		Help: "Estimated prompt tokens sent per provider.",
	},
	[]string{"provider"},
)

func ObserveGeneration(provider string, latencyMs int, success bool) {
	genLatencyMs.WithLabelValues(norm(provider), boolLabel(success)).Observe(float64(latencyMs))
}

func IncGenerationRetry(provider string) {
	genRetriesTotal.WithLabelValues(norm(provider)).Inc()
}

func AddPromptTokens(provider string, n int) {
	if n > 0 {
		genPromptTokens.WithLabelValues(norm(provider)).Add(float64(n))
	}
}

func norm(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return "unknown"
	}
	return s
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
