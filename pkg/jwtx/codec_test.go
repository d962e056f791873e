package jwtx_test

import (
	"sync"
	"testing"
	"time"

	"github.com/classtrack/gatehouse/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// fakeClock is an adjustable clock shared by codec and registries in tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestCodec(t *testing.T, clock *fakeClock) (*jwtx.Codec, *jwtx.RevocationRegistry, *jwtx.ReplayMonitor) {
	t.Helper()

	revocations := jwtx.NewRevocationRegistry(time.Hour, clock.Now)
	replay := jwtx.NewReplayMonitor(jwtx.ReplayMonitorConfig{Now: clock.Now})

	codec, err := jwtx.NewCodec(jwtx.CodecConfig{
		Secret:   []byte(testSecret),
		Issuer:   "gatehouse",
		Audience: []string{"classtrack"},
		TTL:      15 * time.Minute,
		Now:      clock.Now,
	}, revocations, replay)
	require.NoError(t, err)

	return codec, revocations, replay
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	clock := newFakeClock()
	codec, _, replay := newTestCodec(t, clock)

	token, err := codec.Issue("user-1", "alice@classtrack.test")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "alice@classtrack.test", claims.Email)
	require.Equal(t, "gatehouse", claims.Issuer)
	require.NotEmpty(t, claims.ID)

	// Verification is what the replay monitor counts.
	require.Equal(t, 1, replay.Count(claims.ID))
}

func TestVerifyExpiry(t *testing.T) {
	clock := newFakeClock()
	codec, _, _ := newTestCodec(t, clock)

	token, err := codec.Issue("user-1", "alice@classtrack.test")
	require.NoError(t, err)

	t.Run("valid just before expiry", func(t *testing.T) {
		clock.Advance(15*time.Minute - time.Second)
		_, err := codec.Verify(token)
		require.NoError(t, err)
	})

	t.Run("expired just after", func(t *testing.T) {
		clock.Advance(2 * time.Second)
		_, err := codec.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})
}

func TestVerifyNotYetValid(t *testing.T) {
	clock := newFakeClock()
	codec, _, _ := newTestCodec(t, clock)

	token, err := codec.Issue("user-1", "alice@classtrack.test")
	require.NoError(t, err)

	// Winding the clock back puts nbf in the future.
	clock.Advance(-time.Minute)
	_, err = codec.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrNotYetValid)
}

func TestVerifyRejectsTampering(t *testing.T) {
	clock := newFakeClock()
	codec, _, _ := newTestCodec(t, clock)

	token, err := codec.Issue("user-1", "alice@classtrack.test")
	require.NoError(t, err)

	t.Run("malformed token", func(t *testing.T) {
		_, err := codec.Verify("definitely.not.ajwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := jwtx.NewCodec(jwtx.CodecConfig{
			Secret:   []byte("ffffffffffffffffffffffffffffffff"),
			Issuer:   "gatehouse",
			Audience: []string{"classtrack"},
			Now:      clock.Now,
		}, jwtx.NewRevocationRegistry(time.Hour, clock.Now), nil)
		require.NoError(t, err)

		_, err = other.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrSignatureInvalid)
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		other, err := jwtx.NewCodec(jwtx.CodecConfig{
			Secret:   []byte(testSecret),
			Issuer:   "someone-else",
			Audience: []string{"classtrack"},
			Now:      clock.Now,
		}, jwtx.NewRevocationRegistry(time.Hour, clock.Now), nil)
		require.NoError(t, err)

		_, err = other.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrSignatureInvalid)
	})

	t.Run("audience mismatch", func(t *testing.T) {
		other, err := jwtx.NewCodec(jwtx.CodecConfig{
			Secret:   []byte(testSecret),
			Issuer:   "gatehouse",
			Audience: []string{"another-app"},
			Now:      clock.Now,
		}, jwtx.NewRevocationRegistry(time.Hour, clock.Now), nil)
		require.NoError(t, err)

		_, err = other.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrSignatureInvalid)
	})
}

func TestRevocationIsStickyUntilNaturalExpiry(t *testing.T) {
	clock := newFakeClock()
	codec, revocations, _ := newTestCodec(t, clock)

	token, err := codec.Issue("user-1", "alice@classtrack.test")
	require.NoError(t, err)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	revocations.Revoke(token, claims.ExpiresAt.Time)

	// Revoked at every instant up to natural expiry.
	for _, advance := range []time.Duration{0, 5 * time.Minute, 9 * time.Minute} {
		clock.Advance(advance)
		_, err := codec.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrRevoked)
	}

	// Past natural expiry a sweep may drop the entry, and the failure
	// becomes plain expiry.
	clock.Advance(2 * time.Minute)
	require.Equal(t, 1, revocations.Sweep())
	_, err = codec.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestRefresh(t *testing.T) {
	t.Run("supersedes the old token", func(t *testing.T) {
		clock := newFakeClock()
		codec, _, _ := newTestCodec(t, clock)

		token, err := codec.Issue("user-1", "alice@classtrack.test")
		require.NoError(t, err)

		refreshed, err := codec.Refresh(token)
		require.NoError(t, err)
		require.NotEqual(t, token, refreshed)

		_, err = codec.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrRevoked)

		claims, err := codec.Verify(refreshed)
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.Subject)
		require.Equal(t, "alice@classtrack.test", claims.Email)
	})

	t.Run("wraps the verify failure", func(t *testing.T) {
		clock := newFakeClock()
		codec, _, _ := newTestCodec(t, clock)

		token, err := codec.Issue("user-1", "alice@classtrack.test")
		require.NoError(t, err)

		clock.Advance(16 * time.Minute)
		_, err = codec.Refresh(token)
		require.ErrorIs(t, err, jwtx.ErrCannotRefresh)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("stops tracking the old jti", func(t *testing.T) {
		clock := newFakeClock()
		codec, _, replay := newTestCodec(t, clock)

		token, err := codec.Issue("user-1", "alice@classtrack.test")
		require.NoError(t, err)

		claims, err := codec.Verify(token)
		require.NoError(t, err)
		require.Equal(t, 1, replay.Count(claims.ID))

		_, err = codec.Refresh(token)
		require.NoError(t, err)
		require.Equal(t, 0, replay.Count(claims.ID))
	})
}

func TestRevoke(t *testing.T) {
	clock := newFakeClock()
	codec, _, replay := newTestCodec(t, clock)

	token, err := codec.Issue("user-1", "alice@classtrack.test")
	require.NoError(t, err)

	claims, err := codec.Verify(token)
	require.NoError(t, err)

	require.NoError(t, codec.Revoke(token))
	_, err = codec.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrRevoked)
	require.Equal(t, 0, replay.Count(claims.ID))

	// Revoking a dead token reports why it was dead.
	require.ErrorIs(t, codec.Revoke(token), jwtx.ErrRevoked)
}
