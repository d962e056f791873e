package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classtrack/gatehouse/pkg/ratelimit"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	require.Equal(t, "gatehouse", cfg.Issuer)
	require.Equal(t, []string{"classtrack"}, cfg.Audience)
	require.Equal(t, 15*time.Minute, cfg.TokenTTL)
	require.Equal(t, 12, cfg.HashCost)
	require.Equal(t, 10, cfg.IPThreshold)
	require.Equal(t, 24*time.Hour, cfg.IPBlockTTL)
	require.Equal(t, 100, cfg.ReplayHighWater)
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, time.Hour, cfg.SweepInterval)
	require.Equal(t, ratelimit.Config{Max: 5, Window: 15 * time.Minute}, cfg.RateAuth)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("GATEHOUSE_SECRET", "s3cret")
	t.Setenv("GATEHOUSE_ISSUER", "issuer.example")
	t.Setenv("GATEHOUSE_AUDIENCE", "web, mobile ,")
	t.Setenv("GATEHOUSE_TOKEN_TTL", "30m")
	t.Setenv("GATEHOUSE_IP_BLOCK_TTL", "-1s")
	t.Setenv("GATEHOUSE_ALLOWED_ORIGINS", "https://app.example")
	t.Setenv("RATELIMIT_AUTH_REQUESTS", "8")
	t.Setenv("ENV", "staging")

	cfg := LoadConfig()

	require.Equal(t, "s3cret", cfg.Secret)
	require.Equal(t, "issuer.example", cfg.Issuer)
	require.Equal(t, []string{"web", "mobile"}, cfg.Audience)
	require.Equal(t, 30*time.Minute, cfg.TokenTTL)
	require.Equal(t, -time.Second, cfg.IPBlockTTL)
	require.Equal(t, []string{"https://app.example"}, cfg.AllowedOrigins)
	require.Equal(t, 8, cfg.RateAuth.Max)
	require.Equal(t, "staging", cfg.Env)
}

func validBaseConfig() Config {
	return Config{
		Secret:        "0123456789abcdef0123456789abcdef",
		TokenTTL:      15 * time.Minute,
		HashCost:      12,
		RateGlobal:    ratelimit.GlobalConfig,
		RateAuth:      ratelimit.AuthConfig,
		RateSensitive: ratelimit.SensitiveConfig,
		IPThreshold:   10,
		Env:           "prod",
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid prod config", func(t *testing.T) {
		require.NoError(t, validBaseConfig().Validate())
	})

	t.Run("prod requires a secret", func(t *testing.T) {
		cfg := validBaseConfig()
		cfg.Secret = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("prod rejects a short secret", func(t *testing.T) {
		cfg := validBaseConfig()
		cfg.Secret = "too-short"
		require.Error(t, cfg.Validate())
	})

	t.Run("prod rejects wildcard origins", func(t *testing.T) {
		cfg := validBaseConfig()
		cfg.AllowedOrigins = []string{"*"}
		require.Error(t, cfg.Validate())
	})

	t.Run("prod rejects a sub-floor hash cost", func(t *testing.T) {
		cfg := validBaseConfig()
		cfg.HashCost = 8
		require.Error(t, cfg.Validate())
	})

	t.Run("dev tolerates a missing secret", func(t *testing.T) {
		cfg := validBaseConfig()
		cfg.Env = "dev"
		cfg.Secret = ""
		require.NoError(t, cfg.Validate())
	})

	t.Run("token ttl must be positive everywhere", func(t *testing.T) {
		cfg := validBaseConfig()
		cfg.Env = "dev"
		cfg.TokenTTL = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("tier budgets must be positive", func(t *testing.T) {
		cfg := validBaseConfig()
		cfg.RateAuth.Max = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("ip threshold must be positive", func(t *testing.T) {
		cfg := validBaseConfig()
		cfg.IPThreshold = 0
		require.Error(t, cfg.Validate())
	})
}
