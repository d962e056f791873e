package service

import (
	"context"
	"fmt"

	"github.com/classtrack/gatehouse/internal/admission/domain"
	"github.com/classtrack/gatehouse/pkg/cryptox"
	"github.com/classtrack/gatehouse/pkg/guard"
	"github.com/classtrack/gatehouse/pkg/jwtx"
	"github.com/classtrack/gatehouse/pkg/ratelimit"
	"github.com/classtrack/gatehouse/pkg/reputation"
)

// AdmissionService is the single surface the HTTP layer talks to: token
// lifecycle, rate decisions, IP reputation, password policy and input
// guarding. It owns nothing itself - every field is a handle to a component
// with its own lifecycle, so tests can swap clocks and fakes per piece.
type AdmissionService struct {
	Identities domain.IdentityStore
	Codec      *jwtx.Codec
	Limits     *ratelimit.Set
	Reputation *reputation.Tracker
	Hasher     *cryptox.Hasher
	Guard      *guard.Validator
}

// IssueToken resolves the subject against the identity collaborator and
// mints a token for it.
func (s *AdmissionService) IssueToken(ctx context.Context, subjectID string) (string, error) {
	identity, err := s.Identities.LookupIdentity(ctx, subjectID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return s.Codec.Issue(identity.ID, identity.Email)
}

// VerifyToken checks a bearer token. Callers must branch on the error kind;
// Expired and Revoked carry different user messaging even though both deny.
func (s *AdmissionService) VerifyToken(token string) (jwtx.Claims, error) {
	return s.Codec.Verify(token)
}

// RevokeToken invalidates a session token ahead of its expiry. Subsequent
// verifications come back ErrRevoked until the token's natural expiry passes.
func (s *AdmissionService) RevokeToken(token string) error {
	return s.Codec.Revoke(token)
}

// RefreshToken supersedes a still-valid token, but only for a subject that
// still exists. Any failure comes back wrapped in ErrCannotRefresh with the
// original cause on the chain.
func (s *AdmissionService) RefreshToken(ctx context.Context, oldToken string) (string, error) {
	claims, err := s.Codec.Verify(oldToken)
	if err != nil {
		return "", fmt.Errorf("%w: %w", jwtx.ErrCannotRefresh, err)
	}

	if _, err := s.Identities.LookupIdentity(ctx, claims.Subject); err != nil {
		return "", fmt.Errorf("%w: %w", jwtx.ErrCannotRefresh, err)
	}

	return s.Codec.Refresh(oldToken)
}

// CheckRate counts a request against the named tier for the client key.
func (s *AdmissionService) CheckRate(tier ratelimit.Tier, clientKey string) ratelimit.Decision {
	return s.Limits.Admit(tier, clientKey)
}

// CheckIPBlocked reports whether the client IP is on the blocked set.
func (s *AdmissionService) CheckIPBlocked(ip string) bool {
	return s.Reputation.IsBlocked(ip)
}

// RecordAuthOutcome feeds an authentication outcome into IP reputation.
func (s *AdmissionService) RecordAuthOutcome(ip string, success bool) {
	s.Reputation.RecordOutcome(ip, success)
}

// ClearIPBlock is the operator unblock path.
func (s *AdmissionService) ClearIPBlock(ip string) {
	s.Reputation.Clear(ip)
}

// ScorePassword rates a candidate password against policy.
func (s *AdmissionService) ScorePassword(password string) cryptox.ScoreResult {
	return cryptox.Score(password)
}

// HashPassword hashes a policy-passing password; weak ones are rejected
// without ever being hashed.
func (s *AdmissionService) HashPassword(ctx context.Context, password string) (string, error) {
	return s.Hasher.Hash(ctx, password)
}

// VerifyPassword reports whether the password matches the stored hash.
func (s *AdmissionService) VerifyPassword(ctx context.Context, password, hash string) bool {
	return s.Hasher.Verify(ctx, password, hash)
}

// NeedsRehash reports whether a stored hash should be upgraded on the next
// successful login.
func (s *AdmissionService) NeedsRehash(hash string) bool {
	return s.Hasher.NeedsRehash(hash)
}

// GeneratePassword produces a policy-satisfying password for operator resets.
func (s *AdmissionService) GeneratePassword(length int) (string, error) {
	return cryptox.GeneratePassword(length)
}

// Sanitize escapes dangerous characters recursively through a payload.
func (s *AdmissionService) Sanitize(v any) any {
	return guard.Sanitize(v)
}

// ValidateFormat checks a value against a named format.
func (s *AdmissionService) ValidateFormat(kind guard.Kind, value string) bool {
	return guard.ValidateFormat(kind, value)
}

// ValidateStruct checks a tagged struct payload.
func (s *AdmissionService) ValidateStruct(v any) error {
	return s.Guard.ValidateStruct(v)
}

// DetectInjectionPattern flags query text carrying injection fragments.
func (s *AdmissionService) DetectInjectionPattern(query string) bool {
	return guard.DetectInjectionPattern(query)
}
