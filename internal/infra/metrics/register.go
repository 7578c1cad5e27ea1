package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu      sync.Mutex
	pending []prometheus.Collector
	done    bool
)

// register queues collectors from the init() of each metrics file so the
// process can decide when to expose them.
func register(cs ...prometheus.Collector) {
	mu.Lock()
	defer mu.Unlock()
	if done {
		prometheus.MustRegister(cs...)
		return
	}
	pending = append(pending, cs...)
}

// MustRegister flushes every queued collector into the default registry.
// Safe to call more than once; later calls are no-ops.
func MustRegister() {
	mu.Lock()
	defer mu.Unlock()
	if done {
		return
	}
	done = true
	if len(pending) > 0 {
		prometheus.MustRegister(pending...)
		pending = nil
	}
}
