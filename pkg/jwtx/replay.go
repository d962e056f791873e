package jwtx

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultReplayHighWater is the usage count past which a token id is
	// considered suspicious. A legitimate client rarely burns through this
	// many requests on one token before refreshing.
	DefaultReplayHighWater = 100

	// DefaultReplayStaleness is how long an idle usage counter survives
	// before a sweep drops it.
	DefaultReplayStaleness = time.Hour
)

// ReplayMonitorConfig configures the usage tracker.
type ReplayMonitorConfig struct {
	HighWater int           // suspicion threshold (default: DefaultReplayHighWater)
	Staleness time.Duration // idle window before counters are dropped (default: 1h)
	Now       func() time.Time

	// OnSuspect is invoked when a token id crosses the high-water mark.
	// Default emits a structured warning. Observability only - the monitor
	// never blocks a request.
	OnSuspect func(jti string, count int)
}

type usage struct {
	count    int
	lastUsed time.Time
}

// ReplayMonitor counts verification calls per token id and flags abnormal
// reuse. It flags, it does not reject; denial decisions belong elsewhere.
type ReplayMonitor struct {
	mu      sync.Mutex
	entries map[string]*usage

	highWater int
	staleness time.Duration
	now       func() time.Time
	onSuspect func(jti string, count int)

	// Throttles repeat warnings so one hot token can't flood the logs.
	warnLimit *rate.Limiter
}

// NewReplayMonitor builds a monitor with the given config; zero values get
// the package defaults.
func NewReplayMonitor(cfg ReplayMonitorConfig) *ReplayMonitor {
	if cfg.HighWater <= 0 {
		cfg.HighWater = DefaultReplayHighWater
	}
	if cfg.Staleness <= 0 {
		cfg.Staleness = DefaultReplayStaleness
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.OnSuspect == nil {
		cfg.OnSuspect = func(jti string, count int) {
			slog.Warn("suspicious token reuse",
				"jti", jti,
				"use_count", count,
			)
		}
	}

	return &ReplayMonitor{
		entries:   make(map[string]*usage),
		highWater: cfg.HighWater,
		staleness: cfg.Staleness,
		now:       cfg.Now,
		onSuspect: cfg.OnSuspect,
		warnLimit: rate.NewLimiter(rate.Every(time.Minute), 1),
	}
}

// RecordUse increments the usage counter for a token id. Crossing the
// high-water mark emits the suspicion signal; further hits are throttled.
func (m *ReplayMonitor) RecordUse(jti string) {
	if jti == "" {
		return
	}

	m.mu.Lock()
	u, ok := m.entries[jti]
	if !ok {
		u = &usage{}
		m.entries[jti] = u
	}
	u.count++
	u.lastUsed = m.now()
	count := u.count
	m.mu.Unlock()

	if count < m.highWater {
		return
	}
	if count == m.highWater || m.warnLimit.Allow() {
		m.onSuspect(jti, count)
	}
}

// Count reports the recorded usage for a token id.
func (m *ReplayMonitor) Count(jti string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.entries[jti]; ok {
		return u.count
	}
	return 0
}

// Forget drops the counter for a token id. Called on revocation - there is
// nothing left worth watching.
func (m *ReplayMonitor) Forget(jti string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, jti)
}

// Sweep removes counters idle longer than the staleness window and returns
// how many went.
func (m *ReplayMonitor) Sweep() int {
	cutoff := m.now().Add(-m.staleness)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for jti, u := range m.entries {
		if u.lastUsed.Before(cutoff) {
			delete(m.entries, jti)
			removed++
		}
	}
	return removed
}
