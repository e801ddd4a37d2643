// Package metrics keeps advisory counters for upstream API calls.
//
// Counters are plain atomics. The current window lives behind an atomic pointer;
// the first caller to notice that the window has expired swaps in a new one with
// CompareAndSwap and zeroes the counters, so a boundary is crossed exactly once.
// Readers racing with that reset may observe a torn snapshot.
package metrics

import (
	"math"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type Snapshot struct {
	WindowID          string    `json:"window_id"`
	WindowStart       time.Time `json:"window_start"`
	TotalRequests     int64     `json:"total_requests"`
	SuccessCount      int64     `json:"success_count"`
	FailureCount      int64     `json:"failure_count"`
	RateLimitedCount  int64     `json:"rate_limited_count"`
	InFlight          int64     `json:"in_flight"`
	SuccessRate       float64   `json:"success_rate"`
	FailureRate       float64   `json:"failure_rate"`
	RateLimitRate     float64   `json:"rate_limit_rate"`
	AvgResponseTimeMs int64     `json:"avg_response_time_ms"`
	MinResponseTimeMs int64     `json:"min_response_time_ms"`
	MaxResponseTimeMs int64     `json:"max_response_time_ms"`

	// RateLimit is the upstream quota last reported in response headers.
	RateLimit *RateLimitStatus `json:"rate_limit,omitempty"`
}

type RateLimitStatus struct {
	Limit        int       `json:"limit"`
	Remaining    int       `json:"remaining"`
	ResetSeconds int       `json:"reset_seconds"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RateLimitSource reports the current upstream quota, or false when none is known.
type RateLimitSource func() (RateLimitStatus, bool)

// WindowSink receives the final snapshot of every window that closes.
type WindowSink func(Snapshot)

type window struct {
	id    string
	start time.Time
}

type Collector struct {
	interval time.Duration
	now      func() time.Time
	sink     WindowSink
	quota    RateLimitSource

	current atomic.Pointer[window]

	started     atomic.Int64
	success     atomic.Int64
	failure     atomic.Int64
	rateLimited atomic.Int64
	totalMs     atomic.Int64
	minMs       atomic.Int64
	maxMs       atomic.Int64
}

func NewCollector(interval time.Duration) *Collector {
	return newCollector(interval, time.Now)
}

func newCollector(interval time.Duration, now func() time.Time) *Collector {
	c := &Collector{interval: interval, now: now}
	c.minMs.Store(math.MaxInt64)
	c.current.Store(newWindow(now()))
	return c
}

func newWindow(start time.Time) *window {
	id, err := gonanoid.New()
	if err != nil {
		id = start.UTC().Format("20060102T150405.000000000")
	}
	return &window{id: id, start: start}
}

// SetSink registers a receiver for closed windows. Call before recording starts.
func (c *Collector) SetSink(sink WindowSink) {
	c.sink = sink
}

// SetRateLimitSource attaches upstream quota to snapshots. Call before recording starts.
func (c *Collector) SetRateLimitSource(source RateLimitSource) {
	c.quota = source
}

func (c *Collector) RecordStart() {
	c.rotate()
	c.started.Add(1)
}

func (c *Collector) RecordSuccess(latency time.Duration) {
	c.rotate()
	c.success.Add(1)
	c.observe(latency)
}

func (c *Collector) RecordFailure(latency time.Duration) {
	c.rotate()
	c.failure.Add(1)
	c.observe(latency)
}

func (c *Collector) RecordRateLimited() {
	c.rotate()
	c.rateLimited.Add(1)
}

func (c *Collector) Snapshot() Snapshot {
	c.rotate()
	s := c.read(c.current.Load())
	if c.quota != nil {
		if status, ok := c.quota(); ok {
			s.RateLimit = &status
		}
	}
	return s
}

func (c *Collector) observe(latency time.Duration) {
	ms := latency.Milliseconds()
	c.totalMs.Add(ms)
	for {
		cur := c.minMs.Load()
		if ms >= cur || c.minMs.CompareAndSwap(cur, ms) {
			break
		}
	}
	for {
		cur := c.maxMs.Load()
		if ms <= cur || c.maxMs.CompareAndSwap(cur, ms) {
			break
		}
	}
}

func (c *Collector) rotate() {
	w := c.current.Load()
	now := c.now()
	if now.Sub(w.start) <= c.interval {
		return
	}
	if !c.current.CompareAndSwap(w, newWindow(now)) {
		return
	}

	closed := c.read(w)
	c.started.Store(0)
	c.success.Store(0)
	c.failure.Store(0)
	c.rateLimited.Store(0)
	c.totalMs.Store(0)
	c.minMs.Store(math.MaxInt64)
	c.maxMs.Store(0)

	if c.sink != nil {
		c.sink(closed)
	}
}

func (c *Collector) read(w *window) Snapshot {
	success := c.success.Load()
	failure := c.failure.Load()
	rateLimited := c.rateLimited.Load()
	total := success + failure

	s := Snapshot{
		WindowID:         w.id,
		WindowStart:      w.start.UTC(),
		TotalRequests:    total,
		SuccessCount:     success,
		FailureCount:     failure,
		RateLimitedCount: rateLimited,
	}
	if inFlight := c.started.Load() - total; inFlight > 0 {
		s.InFlight = inFlight
	}
	if total == 0 {
		return s
	}

	s.SuccessRate = percent(success, total)
	s.FailureRate = percent(failure, total)
	s.RateLimitRate = percent(rateLimited, total)
	s.AvgResponseTimeMs = c.totalMs.Load() / total
	if min := c.minMs.Load(); min != math.MaxInt64 {
		s.MinResponseTimeMs = min
	}
	s.MaxResponseTimeMs = c.maxMs.Load()
	return s
}

func percent(part, total int64) float64 {
	return float64(part) / float64(total) * 100
}
