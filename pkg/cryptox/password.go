package cryptox

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Hashing cost bounds. bcrypt cost is exponential; 10 is the floor we will
// accept, 12 is what we actually want in production.
const (
	MinHashCost     = 10
	DefaultHashCost = 12

	// DefaultHashTimeout caps how long a hash or verify call may wait for a
	// worker slot. Past this the caller gets ErrHashTimeout instead of a
	// stalled admission path.
	DefaultHashTimeout = 3 * time.Second
)

// ErrHashTimeout reports that a hash operation could not start within the
// configured ceiling.
var ErrHashTimeout = errors.New("cryptox: password hash timed out")

// WeakPasswordError reports a password rejected by policy before hashing.
type WeakPasswordError struct {
	Suggestions []string
}

func (e *WeakPasswordError) Error() string {
	return "cryptox: password too weak: " + strings.Join(e.Suggestions, "; ")
}

// HasherConfig configures a Hasher. Zero values get package defaults.
type HasherConfig struct {
	// Cost is the bcrypt cost parameter, clamped to [MinHashCost, bcrypt.MaxCost].
	Cost int

	// Pepper is an optional server-side secret mixed into every hash.
	// Changing it invalidates all stored hashes, so treat it like a key.
	Pepper string

	// MaxConcurrent bounds in-flight bcrypt work so a login flood cannot
	// exhaust the process (default: GOMAXPROCS).
	MaxConcurrent int64

	// Timeout is the ceiling on waiting for a hash slot (default: 3s).
	Timeout time.Duration
}

// Hasher hashes and verifies passwords with bcrypt behind a semaphore.
// bcrypt is deliberately slow, so concurrency is bounded and waiting is
// capped - the two things the admission path cares about.
type Hasher struct {
	cost    int
	pepper  string
	sem     *semaphore.Weighted
	timeout time.Duration
}

// NewHasher builds a Hasher from config.
func NewHasher(cfg HasherConfig) *Hasher {
	if cfg.Cost < MinHashCost {
		cfg.Cost = MinHashCost
	}
	if cfg.Cost > bcrypt.MaxCost {
		cfg.Cost = bcrypt.MaxCost
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = int64(runtime.GOMAXPROCS(0))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHashTimeout
	}

	return &Hasher{
		cost:    cfg.Cost,
		pepper:  cfg.Pepper,
		sem:     semaphore.NewWeighted(cfg.MaxConcurrent),
		timeout: cfg.Timeout,
	}
}

// Cost reports the configured bcrypt cost.
func (h *Hasher) Cost() int { return h.cost }

// Hash scores the password and, if strong, hashes it. Weak passwords come
// back as *WeakPasswordError and are never hashed.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if res := Score(password); !res.Strong {
		return "", &WeakPasswordError{Suggestions: res.Suggestions}
	}

	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword(h.material(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("cryptox: hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether the password matches the stored hash. Every
// internal failure (corrupt hash, semaphore timeout) collapses to false so
// callers can't be turned into an oracle distinguishing bad passwords from
// bad records.
func (h *Hasher) Verify(ctx context.Context, password, hash string) bool {
	if err := h.acquire(ctx); err != nil {
		return false
	}
	defer h.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), h.material(password)) == nil
}

// NeedsRehash reports whether the stored hash was produced at a lower cost
// than currently configured. Unreadable hashes count as needing one.
func (h *Hasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost < h.cost
}

// acquire takes a hash slot, waiting at most the configured timeout.
func (h *Hasher) acquire(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return ErrHashTimeout
	}
	return nil
}

// material derives the bcrypt input: SHA-256 over password plus pepper,
// base64-encoded. The pre-hash sidesteps bcrypt's 72-byte input limit and
// lets the pepper be any length.
func (h *Hasher) material(password string) []byte {
	sum := sha256.Sum256([]byte(password + h.pepper))
	return []byte(base64.RawStdEncoding.EncodeToString(sum[:]))
}
