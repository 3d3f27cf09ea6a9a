package authbridge

import "errors"

var (
	// ErrUnauthorized is returned when a request carries no usable session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTokenInvalid is returned for tokens that fail signature, expiry or
	// shape checks.
	ErrTokenInvalid = errors.New("invalid session token")
	// ErrSessionNotFound is returned when a stored session is missing or
	// expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionStrategyUnavailable is returned when no session strategy is
	// configured or its backend cannot be reached.
	ErrSessionStrategyUnavailable = errors.New("session strategy unavailable")
	// ErrSessionCreationFailed is returned when a session could not be minted.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrInvalidSessionData is returned when session data lacks a list key or
	// item id.
	ErrInvalidSessionData = errors.New("invalid session data")
	// ErrInvalidCredentials is returned for an unknown identity or a wrong
	// password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrItemNotFound is returned when a session names an item that does not
	// exist.
	ErrItemNotFound = errors.New("item not found")
	// ErrInitialItemExists is returned by CreateInitialItem once any item
	// exists.
	ErrInitialItemExists = errors.New("initial item already exists")
	// ErrInvalidItemInput is returned when a new item fails validation.
	ErrInvalidItemInput = errors.New("invalid item input")
	// ErrAccessDenied is returned when a session is valid but not allowed.
	ErrAccessDenied = errors.New("access denied")
	// ErrRateLimited is returned when password sign-in is throttled.
	ErrRateLimited = errors.New("too many sign-in attempts")
	// ErrEngineNotReady is returned when the engine lacks a dependency the
	// operation needs.
	ErrEngineNotReady = errors.New("engine not ready")
)
