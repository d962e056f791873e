// Package ratelimit implements fixed-window request counting per client key.
// Denial is a decision, not an error: the hot path stays cheap and
// exception-free, and the HTTP layer turns a deny into a 429 with a retry
// hint.
package ratelimit

import (
	"sync"
	"time"
)

// Config is one window/budget pair.
type Config struct {
	// Max is the number of requests allowed per window.
	Max int

	// Window is the length of the fixed counting window.
	Window time.Duration
}

// Decision is the outcome of an admission check.
type Decision struct {
	// Allowed reports whether the request fits the current window.
	Allowed bool

	// RetryAfter is how long until the window rolls over. Only meaningful
	// on a deny.
	RetryAfter time.Duration

	// Remaining is the budget left in the current window.
	Remaining int
}

type window struct {
	count int
	start time.Time
}

// Limiter counts requests in discrete, non-overlapping windows per key.
// State is in-memory and per-process; the contract is substrate-agnostic so
// a shared store can slot in behind it later.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	cfg     Config
	now     func() time.Time
}

// New builds a Limiter. now is the injectable clock (default: time.Now).
func New(cfg Config, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}

	return &Limiter{
		windows: make(map[string]*window),
		cfg:     cfg,
		now:     now,
	}
}

// Admit counts a request against the key's current window. A missing or
// elapsed window starts fresh at count one; otherwise the count increments
// and the request is denied once it exceeds the budget, with RetryAfter set
// to the remaining window time.
func (l *Limiter) Admit(key string) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.cfg.Window {
		l.windows[key] = &window{count: 1, start: now}
		return Decision{Allowed: true, Remaining: l.cfg.Max - 1}
	}

	w.count++
	if w.count <= l.cfg.Max {
		return Decision{Allowed: true, Remaining: l.cfg.Max - w.count}
	}

	return Decision{
		Allowed:    false,
		RetryAfter: w.start.Add(l.cfg.Window).Sub(now),
	}
}

// Sweep drops windows that have elapsed and returns how many went. Keeps the
// key map from accumulating every client ever seen.
func (l *Limiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.cfg.Window {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}
