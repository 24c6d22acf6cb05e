package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Session errors
	ErrMsgSessionExpired   = "session expired"
	ErrMsgNoCredential     = "no credential stored"
	ErrMsgRefreshRejected  = "refresh rejected by identity backend"

	// Handshake errors
	ErrMsgHandshakeExpired   = "handshake expired"
	ErrMsgHandshakeActive    = "a handshake is already active"
	ErrMsgAlreadyLinked      = "account already linked"
	ErrMsgMaxAttemptsReached = "maximum handshake attempts reached"

	// Sync errors
	ErrMsgSyncNotFound = "sync job not found"

	// Operation errors
	ErrMsgOperationActive   = "operation already in flight"
	ErrMsgOperationNotFound = "operation not found"

	// Platform errors
	ErrMsgUnknownPlatform = "unknown platform"

	// Input errors
	ErrMsgInvalidInput = "invalid input"
)

// Common domain errors
// These errors should be used consistently across all layers of the application.
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	// Session errors
	ErrSessionExpired  = errors.New(ErrMsgSessionExpired)
	ErrNoCredential    = errors.New(ErrMsgNoCredential)
	ErrRefreshRejected = errors.New(ErrMsgRefreshRejected)

	// Handshake errors
	ErrHandshakeExpired   = errors.New(ErrMsgHandshakeExpired)
	ErrAlreadyLinked      = errors.New(ErrMsgAlreadyLinked)
	ErrMaxAttemptsReached = errors.New(ErrMsgMaxAttemptsReached)

	// Sync errors
	ErrSyncNotFound = errors.New(ErrMsgSyncNotFound)

	// Operation errors
	ErrOperationNotFound = errors.New(ErrMsgOperationNotFound)

	// Platform errors
	ErrUnknownPlatform = errors.New(ErrMsgUnknownPlatform)

	// Validation errors
	ErrInvalidInput = errors.New(ErrMsgInvalidInput)
)

// ErrorKind is the closed classification for failures reported by the
// networking collaborator. Coordinators match on kind, never on message text.
type ErrorKind string

const (
	KindNetwork          ErrorKind = "network"           // no response, retryable
	KindAuthRejected     ErrorKind = "auth_rejected"     // 401/403, fatal
	KindRateLimited      ErrorKind = "rate_limited"      // 429, retryable after cooldown
	KindUnavailable      ErrorKind = "unavailable"       // 5xx, retryable with backoff
	KindHandshakeExpired ErrorKind = "handshake_expired" // local timer, terminal
	KindTimeout          ErrorKind = "timeout"           // local ceiling, terminal
)

// ClassifiedError carries an ErrorKind alongside the underlying cause.
type ClassifiedError struct {
	Kind       ErrorKind
	Cause      error
	RetryAfter time.Duration // only set for KindRateLimited when the server specified one
}

func (e *ClassifiedError) Error() string {
	if e.Cause == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}

// NewClassifiedError creates a classified error with the given kind and cause.
func NewClassifiedError(kind ErrorKind, cause error) *ClassifiedError {
	return &ClassifiedError{Kind: kind, Cause: cause}
}

// KindOf extracts the ErrorKind from an error chain.
// Returns ("", false) when the error carries no classification.
func KindOf(err error) (ErrorKind, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}

// IsRetryable reports whether an error kind may be retried locally.
// AuthRejected and the local terminal kinds are never retried.
func IsRetryable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	switch kind {
	case KindNetwork, KindRateLimited, KindUnavailable:
		return true
	default:
		return false
	}
}
