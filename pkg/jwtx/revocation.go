package jwtx

import (
	"sync"
	"time"

	"github.com/classtrack/gatehouse/pkg/cryptox"
)

// DefaultRevocationTTL caps how long a revocation entry may live. An entry
// never needs to outlast the token's own expiry, after that the token is dead
// on arrival anyway.
const DefaultRevocationTTL = 24 * time.Hour

// RevocationRegistry tracks revoked tokens until their natural expiry. Keys
// are SHA-256 fingerprints so raw bearer tokens never sit in memory as map
// keys. The registry owns its entries exclusively.
type RevocationRegistry struct {
	mu      sync.Mutex
	entries map[string]time.Time // fingerprint -> entry drop-dead time
	maxTTL  time.Duration
	now     func() time.Time
}

// NewRevocationRegistry builds an empty registry. maxTTL bounds how far into
// the future an entry may persist (default: DefaultRevocationTTL); now is the
// injectable clock (default: time.Now).
func NewRevocationRegistry(maxTTL time.Duration, now func() time.Time) *RevocationRegistry {
	if maxTTL <= 0 {
		maxTTL = DefaultRevocationTTL
	}
	if now == nil {
		now = time.Now
	}

	return &RevocationRegistry{
		entries: make(map[string]time.Time),
		maxTTL:  maxTTL,
		now:     now,
	}
}

// Revoke marks a token as no longer acceptable until naturalExpiry. The call
// is idempotent; revoking twice only re-caps the stored expiry. A zero
// naturalExpiry falls back to the registry's max TTL.
func (r *RevocationRegistry) Revoke(token string, naturalExpiry time.Time) {
	cap := r.now().Add(r.maxTTL)
	expiry := naturalExpiry
	if expiry.IsZero() || expiry.After(cap) {
		expiry = cap
	}

	fp := cryptox.FingerprintToken(token)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[fp] = expiry
}

// IsRevoked reports whether the token is currently revoked. Entries past
// their stored expiry no longer count even before a sweep removes them, so
// verification falls through to the ordinary expiry check.
func (r *RevocationRegistry) IsRevoked(token string) bool {
	fp := cryptox.FingerprintToken(token)

	r.mu.Lock()
	defer r.mu.Unlock()

	expiry, ok := r.entries[fp]
	return ok && r.now().Before(expiry)
}

// Sweep removes every entry whose stored expiry has passed and returns how
// many went. Safe to call concurrently with itself and with lookups.
func (r *RevocationRegistry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for fp, expiry := range r.entries {
		if !expiry.After(now) {
			delete(r.entries, fp)
			removed++
		}
	}
	return removed
}

// Len reports the number of live entries. Mostly for tests and metrics.
func (r *RevocationRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
