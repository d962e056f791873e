package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/classtrack/gatehouse/pkg/idx"
)

// DefaultTokenTTL is the default access token lifetime. Short-lived for
// security - typical range is 15m to 1h.
const DefaultTokenTTL = 15 * time.Minute

// Claims are the fields embedded and signed inside a bearer token. The shape
// is fixed and additive-only so issue and verify can never drift apart.
// Claims are immutable once issued; a refresh supersedes, never mutates.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the authenticated user.
	Email string `json:"email,omitempty"`
}

// NewClaims builds minimally-correct claims for a subject at the given time.
// The jti is a fresh ULID so token records sort by issue time.
func NewClaims(subjectID, email string, ttl time.Duration, issuer string, audience []string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subjectID,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        idx.New().String(),
		},
		Email: email,
	}
}
