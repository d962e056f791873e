package jwtx

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CodecConfig captures everything the codec needs to mint and check tokens.
type CodecConfig struct {
	// Secret is the symmetric HS256 signing secret. Required.
	Secret []byte

	// Issuer the codec stamps into and expects back from every token.
	Issuer string

	// Audience values stamped into tokens. Verification requires at least
	// one of them to be present.
	Audience []string

	// TTL is the token lifetime (default: DefaultTokenTTL).
	TTL time.Duration

	// Now is the clock, injectable for tests (default: time.Now).
	Now func() time.Time
}

// Codec encodes, signs, verifies and refreshes bearer tokens. Claims go in,
// compact signed strings come out, and the registries keep it honest.
type Codec struct {
	secret   []byte
	issuer   string
	audience []string
	ttl      time.Duration
	now      func() time.Time
	parser   *jwt.Parser

	revocations *RevocationRegistry
	replay      *ReplayMonitor
}

// NewCodec builds a Codec wired to a revocation registry and, optionally, a
// replay monitor (nil disables usage tracking).
func NewCodec(cfg CodecConfig, revocations *RevocationRegistry, replay *ReplayMonitor) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwtx: signing secret is required")
	}
	if revocations == nil {
		return nil, errors.New("jwtx: revocation registry is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTokenTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Codec{
		secret:   cfg.Secret,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		now:      cfg.Now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(cfg.Now),
			jwt.WithIssuedAt(),
		),
		revocations: revocations,
		replay:      replay,
	}, nil
}

// TTL reports the configured token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue mints a signed token for the subject. No registry writes happen here;
// a token only enters the revocation registry when something revokes it.
func (c *Codec) Issue(subjectID, email string) (string, error) {
	claims := NewClaims(subjectID, email, c.ttl, c.issuer, c.audience, c.now().UTC())

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks a token string and returns its claims. Failures map onto the
// taxonomy: ErrRevoked, ErrMalformed, ErrSignatureInvalid, ErrExpired,
// ErrNotYetValid. On success the replay monitor is notified; the monitor only
// observes, it can never deny a legitimate request.
func (c *Codec) Verify(token string) (Claims, error) {
	// Revocation wins over everything else, including expiry, so a revoked
	// token reports the security event rather than a routine timeout.
	if c.revocations.IsRevoked(token) {
		return Claims{}, ErrRevoked
	}

	var claims Claims
	if _, err := c.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}); err != nil {
		return Claims{}, mapParseError(err)
	}

	if c.issuer != "" && claims.Issuer != c.issuer {
		return Claims{}, ErrSignatureInvalid
	}
	if len(c.audience) > 0 && !hasAnyAudience(claims.Audience, c.audience) {
		return Claims{}, ErrSignatureInvalid
	}

	if c.replay != nil {
		c.replay.RecordUse(claims.ID)
	}

	return claims, nil
}

// Revoke invalidates a still-valid token ahead of its natural expiry. The
// logout path. Revoking an already-invalid token reports why it was invalid.
func (c *Codec) Revoke(token string) error {
	claims, err := c.Verify(token)
	if err != nil {
		return err
	}

	var naturalExpiry time.Time
	if claims.ExpiresAt != nil {
		naturalExpiry = claims.ExpiresAt.Time
	}
	c.revocations.Revoke(token, naturalExpiry)

	if c.replay != nil {
		c.replay.Forget(claims.ID)
	}
	return nil
}

// Refresh supersedes a still-valid token with a fresh one for the same
// subject and email. Order is verify, revoke, issue: the old token is never
// valid alongside its successor from the codec's perspective.
func (c *Codec) Refresh(oldToken string) (string, error) {
	claims, err := c.Verify(oldToken)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCannotRefresh, err)
	}

	var naturalExpiry time.Time
	if claims.ExpiresAt != nil {
		naturalExpiry = claims.ExpiresAt.Time
	}
	c.revocations.Revoke(oldToken, naturalExpiry)

	if c.replay != nil {
		c.replay.Forget(claims.ID)
	}

	return c.Issue(claims.Subject, claims.Email)
}

// mapParseError flattens golang-jwt's joined parse errors onto our taxonomy.
// Order matters: structural damage beats signature beats timing.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrNotYetValid
	default:
		return ErrMalformed
	}
}

func hasAnyAudience(have jwt.ClaimStrings, want []string) bool {
	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}
