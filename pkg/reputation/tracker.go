// Package reputation tracks failed-authentication outcomes per client IP and
// auto-blocks repeat offenders. It runs independently of the rate limiter:
// the limiter caps request volume, this watches for credential stuffing.
package reputation

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultThreshold is the failure count at which an IP gets blocked.
	DefaultThreshold = 10

	// DefaultWindow is the maximum gap between failures before the counter
	// resets. Slow, patient failures are someone forgetting a password, not
	// an attack.
	DefaultWindow = 15 * time.Minute

	// DefaultBlockTTL is how long an auto-block lasts before a sweep lifts
	// it. Zero means blocks only clear by operator action, which on a
	// long-running process means they never clear - so the default is a TTL.
	DefaultBlockTTL = 24 * time.Hour
)

// Config configures a Tracker. Zero values get package defaults.
type Config struct {
	Threshold int
	Window    time.Duration

	// BlockTTL bounds how long an auto-block lasts. Set to a negative value
	// for operator-cleared-only blocks.
	BlockTTL time.Duration

	Now func() time.Time

	// OnBlock is invoked when an IP crosses the threshold. Default emits a
	// structured warning.
	OnBlock func(ip string, failures int)
}

type record struct {
	failures    int
	lastFailure time.Time
}

// Tracker counts authentication failures per IP over a rolling window and
// maintains the blocked set.
type Tracker struct {
	mu      sync.Mutex
	records map[string]*record
	blocked map[string]time.Time // ip -> time of block

	threshold int
	window    time.Duration
	blockTTL  time.Duration
	now       func() time.Time
	onBlock   func(ip string, failures int)
}

// NewTracker builds a Tracker from config.
func NewTracker(cfg Config) *Tracker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.BlockTTL == 0 {
		cfg.BlockTTL = DefaultBlockTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.OnBlock == nil {
		cfg.OnBlock = func(ip string, failures int) {
			slog.Warn("ip blocked after repeated auth failures",
				"ip", ip,
				"failures", failures,
			)
		}
	}

	return &Tracker{
		records:   make(map[string]*record),
		blocked:   make(map[string]time.Time),
		threshold: cfg.Threshold,
		window:    cfg.Window,
		blockTTL:  cfg.BlockTTL,
		now:       cfg.Now,
		onBlock:   cfg.OnBlock,
	}
}

// RecordOutcome feeds an authentication outcome into the tracker. Successes
// do not reduce the failure count - only a quiet gap longer than the window
// resets it. Crossing the threshold moves the IP into the blocked set.
func (t *Tracker) RecordOutcome(ip string, success bool) {
	if success || ip == "" {
		return
	}

	now := t.now()

	t.mu.Lock()
	r, ok := t.records[ip]
	if !ok {
		r = &record{}
		t.records[ip] = r
	}
	if r.failures > 0 && now.Sub(r.lastFailure) > t.window {
		r.failures = 0
	}
	r.failures++
	r.lastFailure = now

	var blockedNow bool
	if r.failures >= t.threshold {
		if _, already := t.blocked[ip]; !already {
			t.blocked[ip] = now
			blockedNow = true
		}
	}
	failures := r.failures
	t.mu.Unlock()

	if blockedNow {
		t.onBlock(ip, failures)
	}
}

// IsBlocked reports whether the IP is in the blocked set. Pure lookup; TTL
// expiry is handled by Sweep, not here.
func (t *Tracker) IsBlocked(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.blocked[ip]
	return ok
}

// Clear removes an IP from both the blocked set and the failure records.
// This is the operator unblock path.
func (t *Tracker) Clear(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.blocked, ip)
	delete(t.records, ip)
}

// Failures reports the current failure count for an IP.
func (t *Tracker) Failures(ip string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if r, ok := t.records[ip]; ok {
		return r.failures
	}
	return 0
}

// Sweep drops failure records whose window has lapsed and, when a block TTL
// is configured, lifts expired blocks. Returns the number of removed entries.
func (t *Tracker) Sweep() int {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for ip, r := range t.records {
		if now.Sub(r.lastFailure) > t.window {
			delete(t.records, ip)
			removed++
		}
	}

	if t.blockTTL > 0 {
		for ip, at := range t.blocked {
			if now.Sub(at) > t.blockTTL {
				delete(t.blocked, ip)
				removed++
			}
		}
	}

	return removed
}
