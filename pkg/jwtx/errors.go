package jwtx

import "errors"

// Verification failures are deliberately fine-grained: Expired and Revoked
// both deny access, but the caller's messaging differs (re-login vs forced
// re-login after a security event), so nobody gets to collapse them.
var (
	// ErrMalformed reports a token string that cannot be parsed or is
	// structurally invalid.
	ErrMalformed = errors.New("jwtx: malformed token")

	// ErrSignatureInvalid reports a signature, issuer or audience mismatch.
	ErrSignatureInvalid = errors.New("jwtx: invalid signature")

	// ErrExpired reports a token past its expiry.
	ErrExpired = errors.New("jwtx: token expired")

	// ErrNotYetValid reports a token whose activation time is in the future.
	ErrNotYetValid = errors.New("jwtx: token not yet valid")

	// ErrRevoked reports a token that was explicitly revoked or superseded
	// by a refresh.
	ErrRevoked = errors.New("jwtx: token revoked")

	// ErrCannotRefresh wraps whatever verification error stopped a refresh.
	// The underlying cause stays on the chain for errors.Is.
	ErrCannotRefresh = errors.New("jwtx: cannot refresh token")
)
