// Package stats is the lock-free-where-possible request statistics
// aggregator (spec.md §4.9). Scalar counters are atomics; the 60-second
// rolling request-timestamp window and the latency running-mean are
// guarded by a short mutex, per spec.md §9's guidance that the ring
// tolerates "a lightweight mutex or lock-free queue."
package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// ErrorKind classifies a recorded failure.
type ErrorKind int

const (
	ErrorRateLimit ErrorKind = iota
	ErrorServer
	ErrorTimeout
	ErrorClientAbort
)

// Handle routes a request's lifecycle events back to the aggregator that
// issued it. Each handle must be ended exactly once.
type Handle struct {
	model     string
	streaming bool
	start     time.Time
	ended     int32 // atomic guard against double on_request_end
}

// Aggregator is one running server's statistics. Create one per server
// with New and pass it explicitly into every request handler — there is no
// global singleton (spec.md §9).
type Aggregator struct {
	startedAt time.Time

	totalRequests        int64
	activeRequests       int64
	streamingRequests    int64
	nonStreamingRequests int64

	promptTokens     int64
	completionTokens int64
	reasoningTokens  int64
	totalTokens      int64

	totalErrors     int64
	rateLimitErrors int64
	serverErrors    int64
	timeoutErrors   int64
	clientAborts    int64

	mu            sync.Mutex
	ring          []time.Time
	modelRequests map[string]int64
	latencyCount  int64
	latencyAvgMs  float64
	latencyMinMs  float64
	latencyMaxMs  float64
}

// New constructs an empty Aggregator with the clock starting now.
func New() *Aggregator {
	return &Aggregator{
		startedAt:     time.Now(),
		modelRequests: make(map[string]int64),
	}
}

// OnRequestStart records the beginning of a request and returns a handle
// used for the rest of its lifecycle.
func (a *Aggregator) OnRequestStart(model string, streaming bool) *Handle {
	atomic.AddInt64(&a.totalRequests, 1)
	atomic.AddInt64(&a.activeRequests, 1)
	if streaming {
		atomic.AddInt64(&a.streamingRequests, 1)
	} else {
		atomic.AddInt64(&a.nonStreamingRequests, 1)
	}

	now := time.Now()

	a.mu.Lock()
	a.modelRequests[model]++
	a.ring = append(a.ring, now)
	a.mu.Unlock()

	return &Handle{model: model, streaming: streaming, start: now}
}

// OnTokens adds to the running token totals. total_tokens is always the
// sum of the three, preserving spec.md §3's accounting invariant.
func (a *Aggregator) OnTokens(h *Handle, prompt, completion, reasoning int) {
	atomic.AddInt64(&a.promptTokens, int64(prompt))
	atomic.AddInt64(&a.completionTokens, int64(completion))
	atomic.AddInt64(&a.reasoningTokens, int64(reasoning))
	atomic.AddInt64(&a.totalTokens, int64(prompt+completion+reasoning))
}

// OnError increments the category counter matching kind, plus the overall
// error count.
func (a *Aggregator) OnError(h *Handle, kind ErrorKind) {
	atomic.AddInt64(&a.totalErrors, 1)
	switch kind {
	case ErrorRateLimit:
		atomic.AddInt64(&a.rateLimitErrors, 1)
	case ErrorServer:
		atomic.AddInt64(&a.serverErrors, 1)
	case ErrorTimeout:
		atomic.AddInt64(&a.timeoutErrors, 1)
	case ErrorClientAbort:
		atomic.AddInt64(&a.clientAborts, 1)
	}
}

// OnRequestEnd decrements active_requests and folds this request's latency
// into the running min/avg/max. Safe to call more than once per handle —
// every call after the first is a no-op, guaranteeing active_requests is
// decremented exactly once even if a caller's success and error-cleanup
// paths both try to end the same request (spec.md §3, "on any exit path
// ... the counter decrements exactly once").
func (a *Aggregator) OnRequestEnd(h *Handle) {
	if !atomic.CompareAndSwapInt32(&h.ended, 0, 1) {
		return
	}
	atomic.AddInt64(&a.activeRequests, -1)

	elapsedMs := float64(time.Since(h.start).Microseconds()) / 1000.0

	a.mu.Lock()
	defer a.mu.Unlock()
	a.latencyCount++
	if a.latencyCount == 1 {
		a.latencyMinMs, a.latencyMaxMs = elapsedMs, elapsedMs
	} else {
		if elapsedMs < a.latencyMinMs {
			a.latencyMinMs = elapsedMs
		}
		if elapsedMs > a.latencyMaxMs {
			a.latencyMaxMs = elapsedMs
		}
	}
	a.latencyAvgMs += (elapsedMs - a.latencyAvgMs) / float64(a.latencyCount)
}

// Stats is an immutable snapshot of the aggregator at one point in time.
type Stats struct {
	UptimeSecs           float64          `json:"uptime_secs"`
	TotalRequests        int64            `json:"total_requests"`
	ActiveRequests       int64            `json:"active_requests"`
	StreamingRequests    int64            `json:"streaming_requests"`
	NonStreamingRequests int64            `json:"non_streaming_requests"`
	PromptTokens         int64            `json:"prompt_tokens"`
	CompletionTokens     int64            `json:"completion_tokens"`
	TotalTokens          int64            `json:"total_tokens"`
	TotalErrors          int64            `json:"total_errors"`
	RateLimitErrors      int64            `json:"rate_limit_errors"`
	ServerErrors         int64            `json:"server_errors"`
	TimeoutErrors        int64            `json:"timeout_errors"`
	RequestsPerSecond    float64          `json:"requests_per_second"`
	AvgLatencyMs         float64          `json:"avg_latency_ms"`
	MinLatencyMs         float64          `json:"min_latency_ms"`
	MaxLatencyMs         float64          `json:"max_latency_ms"`
	ModelRequests        map[string]int64 `json:"model_requests"`
}

const rpsWindow = 60 * time.Second

// Snapshot reads every counter, prunes ring entries older than 60 seconds,
// and computes requests_per_second from what remains.
func (a *Aggregator) Snapshot() Stats {
	cutoff := time.Now().Add(-rpsWindow)

	a.mu.Lock()
	a.ring = pruneBefore(a.ring, cutoff)
	rps := float64(len(a.ring)) / rpsWindow.Seconds()
	models := make(map[string]int64, len(a.modelRequests))
	for k, v := range a.modelRequests {
		models[k] = v
	}
	avg, min, max := a.latencyAvgMs, a.latencyMinMs, a.latencyMaxMs
	a.mu.Unlock()

	return Stats{
		UptimeSecs:           time.Since(a.startedAt).Seconds(),
		TotalRequests:        atomic.LoadInt64(&a.totalRequests),
		ActiveRequests:       atomic.LoadInt64(&a.activeRequests),
		StreamingRequests:    atomic.LoadInt64(&a.streamingRequests),
		NonStreamingRequests: atomic.LoadInt64(&a.nonStreamingRequests),
		PromptTokens:         atomic.LoadInt64(&a.promptTokens),
		CompletionTokens:     atomic.LoadInt64(&a.completionTokens),
		TotalTokens:          atomic.LoadInt64(&a.totalTokens),
		TotalErrors:          atomic.LoadInt64(&a.totalErrors),
		RateLimitErrors:      atomic.LoadInt64(&a.rateLimitErrors),
		ServerErrors:         atomic.LoadInt64(&a.serverErrors),
		TimeoutErrors:        atomic.LoadInt64(&a.timeoutErrors),
		RequestsPerSecond:    rps,
		AvgLatencyMs:         avg,
		MinLatencyMs:         min,
		MaxLatencyMs:         max,
		ModelRequests:        models,
	}
}

// pruneBefore drops leading ring entries older than cutoff. Entries are
// pushed in roughly chronological order, so a linear scan from the front
// is enough; this runs only on snapshot reads, never on the hot request
// path.
func pruneBefore(ring []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ring) && ring[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return ring
	}
	return append(ring[:0], ring[i:]...)
}
