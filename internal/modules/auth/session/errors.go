package session

import "errors"

// Sentinel errors for the session engine. Handlers collapse all of
// these into one generic authentication failure; the distinction exists
// for logs and tests only.
var (
	ErrTokenMalformed   = errors.New("session: token malformed")
	ErrTokenIntegrity   = errors.New("session: token integrity check failed")
	ErrSessionNotFound  = errors.New("session: not found")
	ErrSessionExpired   = errors.New("session: expired")
	ErrSessionRevoked   = errors.New("session: revoked")
	ErrWrongTokenKind   = errors.New("session: wrong token kind")
	ErrStoreUnavailable = errors.New("session: store unavailable")
)
