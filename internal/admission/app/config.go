package app

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/classtrack/gatehouse/pkg/cryptox"
	"github.com/classtrack/gatehouse/pkg/ratelimit"
)

// MinSecretLength is the shortest signing secret we accept in production.
// HS256 security is exactly the secret's entropy, nothing else.
const MinSecretLength = 32

type Config struct {
	Secret   string        // Required in prod: HS256 signing secret (min 32 chars)
	Issuer   string        // Issuer claim for tokens (default: gatehouse)
	Audience []string      // Audience claims for tokens (default: classtrack)
	TokenTTL time.Duration // Token lifetime (default: 15m)

	HashCost    int           // bcrypt cost (min 10, default: 12)
	HashTimeout time.Duration // Ceiling on waiting for a hash slot (default: 3s)
	MaxHashes   int           // Concurrent hash bound (default: GOMAXPROCS)
	Pepper      string        // Optional: server-side pepper mixed into hashes

	RateGlobal    ratelimit.Config // Per-client budget on everything
	RateAuth      ratelimit.Config // Per-client budget on login/register
	RateSensitive ratelimit.Config // Per-client budget on destructive ops

	IPThreshold int           // Auth failures before an IP is blocked (default: 10)
	IPWindow    time.Duration // Gap that resets the failure counter (default: 15m)
	IPBlockTTL  time.Duration // Auto-block lifetime, negative = manual-only (default: 24h)

	ReplayHighWater int           // Token uses before suspicion (default: 100)
	ReplayStaleness time.Duration // Idle window before counters drop (default: 1h)

	AllowedOrigins []string // CORS allow-list; wildcard forbidden in prod

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	SweepInterval       time.Duration // Registry sweep interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Secret:   os.Getenv("GATEHOUSE_SECRET"),
		Issuer:   getEnvOrDefault("GATEHOUSE_ISSUER", "gatehouse"),
		Audience: splitList(getEnvOrDefault("GATEHOUSE_AUDIENCE", "classtrack")),
		TokenTTL: getEnvDurationOrDefault("GATEHOUSE_TOKEN_TTL", 15*time.Minute),

		HashCost:    getEnvIntOrDefault("GATEHOUSE_HASH_COST", cryptox.DefaultHashCost),
		HashTimeout: getEnvDurationOrDefault("GATEHOUSE_HASH_TIMEOUT", cryptox.DefaultHashTimeout),
		MaxHashes:   getEnvIntOrDefault("GATEHOUSE_MAX_HASHES", 0),
		Pepper:      os.Getenv("GATEHOUSE_PEPPER"),

		RateGlobal:    ratelimit.ParseConfigFromEnv("GLOBAL", ratelimit.GlobalConfig),
		RateAuth:      ratelimit.ParseConfigFromEnv("AUTH", ratelimit.AuthConfig),
		RateSensitive: ratelimit.ParseConfigFromEnv("SENSITIVE", ratelimit.SensitiveConfig),

		IPThreshold: getEnvIntOrDefault("GATEHOUSE_IP_THRESHOLD", 10),
		IPWindow:    getEnvDurationOrDefault("GATEHOUSE_IP_WINDOW", 15*time.Minute),
		IPBlockTTL:  getEnvDurationOrDefault("GATEHOUSE_IP_BLOCK_TTL", 24*time.Hour),

		ReplayHighWater: getEnvIntOrDefault("GATEHOUSE_REPLAY_HIGH_WATER", 100),
		ReplayStaleness: getEnvDurationOrDefault("GATEHOUSE_REPLAY_STALENESS", time.Hour),

		AllowedOrigins: splitList(os.Getenv("GATEHOUSE_ALLOWED_ORIGINS")),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		SweepInterval:       getEnvDurationOrDefault("SWEEP_INTERVAL", 1*time.Hour),
	}
}

// Validate enforces the startup rules. In production mode a missing or weak
// secret, a sub-floor hash cost or a wildcard origin is fatal - there are no
// runtime fallbacks for any of these.
func (c Config) Validate() error {
	prod := c.Env == "prod"

	if prod {
		if c.Secret == "" {
			return fmt.Errorf("GATEHOUSE_SECRET is required in production")
		}
		if len(c.Secret) < MinSecretLength {
			return fmt.Errorf("GATEHOUSE_SECRET must be at least %d characters, got %d", MinSecretLength, len(c.Secret))
		}
		if slices.Contains(c.AllowedOrigins, "*") {
			return fmt.Errorf("wildcard origin is forbidden in production")
		}
		if c.HashCost < cryptox.MinHashCost {
			return fmt.Errorf("GATEHOUSE_HASH_COST must be at least %d, got %d", cryptox.MinHashCost, c.HashCost)
		}
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("GATEHOUSE_TOKEN_TTL must be positive")
	}

	for _, tier := range []struct {
		name string
		cfg  ratelimit.Config
	}{
		{"global", c.RateGlobal},
		{"auth", c.RateAuth},
		{"sensitive", c.RateSensitive},
	} {
		if tier.cfg.Max <= 0 || tier.cfg.Window <= 0 {
			return fmt.Errorf("rate limit tier %q needs a positive budget and window", tier.name)
		}
	}

	if c.IPThreshold <= 0 {
		return fmt.Errorf("GATEHOUSE_IP_THRESHOLD must be positive")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
