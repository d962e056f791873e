package ratelimit

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Tier names an independently budgeted limiter. Exhausting one tier never
// touches another.
type Tier string

const (
	// TierGlobal covers every inbound request per client.
	TierGlobal Tier = "global"

	// TierAuth covers login/register, where brute force lives.
	TierAuth Tier = "auth"

	// TierSensitive covers destructive and bulk operations.
	TierSensitive Tier = "sensitive"
)

// Default tier budgets. Override via environment (see ParseConfigFromEnv).
var (
	// GlobalConfig: 100 requests per minute per client.
	// Override with: RATELIMIT_GLOBAL_REQUESTS, RATELIMIT_GLOBAL_WINDOW_SEC
	GlobalConfig = Config{Max: 100, Window: time.Minute}

	// AuthConfig: 5 requests per 15 minutes per client.
	// Override with: RATELIMIT_AUTH_REQUESTS, RATELIMIT_AUTH_WINDOW_SEC
	AuthConfig = Config{Max: 5, Window: 15 * time.Minute}

	// SensitiveConfig: 3 requests per hour per client.
	// Override with: RATELIMIT_SENSITIVE_REQUESTS, RATELIMIT_SENSITIVE_WINDOW_SEC
	SensitiveConfig = Config{Max: 3, Window: time.Hour}
)

// ParseConfigFromEnv reads a tier budget from environment variables following
// the pattern RATELIMIT_{prefix}_{field}, e.g. RATELIMIT_AUTH_REQUESTS and
// RATELIMIT_AUTH_WINDOW_SEC. Unset or unparsable values keep the default.
func ParseConfigFromEnv(prefix string, defaultConfig Config) Config {
	config := defaultConfig

	if val := os.Getenv("RATELIMIT_" + prefix + "_REQUESTS"); val != "" {
		if requests, err := strconv.Atoi(val); err == nil && requests > 0 {
			config.Max = requests
		}
	}

	if val := os.Getenv("RATELIMIT_" + prefix + "_WINDOW_SEC"); val != "" {
		if windowSec, err := strconv.Atoi(val); err == nil && windowSec > 0 {
			config.Window = time.Duration(windowSec) * time.Second
		}
	}

	return config
}

// Set holds the three tiers with fully isolated state.
type Set struct {
	limiters map[Tier]*Limiter
}

// NewSet builds the tier set from explicit configs.
func NewSet(global, auth, sensitive Config, now func() time.Time) *Set {
	return &Set{
		limiters: map[Tier]*Limiter{
			TierGlobal:    New(global, now),
			TierAuth:      New(auth, now),
			TierSensitive: New(sensitive, now),
		},
	}
}

// NewSetFromEnv builds the tier set from the package defaults with
// environment overrides applied.
func NewSetFromEnv(now func() time.Time) *Set {
	return NewSet(
		ParseConfigFromEnv("GLOBAL", GlobalConfig),
		ParseConfigFromEnv("AUTH", AuthConfig),
		ParseConfigFromEnv("SENSITIVE", SensitiveConfig),
		now,
	)
}

// Admit checks a key against the named tier. An unknown tier allows the
// request and logs - an admission layer misconfiguration must not turn into
// an outage.
func (s *Set) Admit(tier Tier, key string) Decision {
	l, ok := s.limiters[tier]
	if !ok {
		slog.Warn("rate limit: unknown tier, allowing request", "tier", string(tier))
		return Decision{Allowed: true}
	}
	return l.Admit(key)
}

// Sweep sweeps every tier and returns the total number of dropped windows.
func (s *Set) Sweep() int {
	removed := 0
	for _, l := range s.limiters {
		removed += l.Sweep()
	}
	return removed
}
