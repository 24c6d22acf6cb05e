package domain

import "time"

// Link session states
const (
	LinkStateStarting   = "starting"   // handshake requested, waiting for the backend
	LinkStateCodeReady  = "code_ready" // linking code issued, waiting to be shown
	LinkStateConfirming = "confirming" // code shown, poll and push observation active
	LinkStateConnected  = "connected"  // terminal: account linked
	LinkStateExpired    = "expired"    // terminal: timer fired before confirmation
	LinkStateError      = "error"      // terminal: backend rejected or max attempts
)

// LinkSession represents one external-account linking attempt
type LinkSession struct {
	Platform     string    `json:"platform" db:"platform"`
	UserID       string    `json:"user_id" db:"user_id"`
	State        string    `json:"state" db:"state"`
	Code         string    `json:"code,omitempty" db:"code"`
	SessionID    string    `json:"session_id,omitempty" db:"session_id"`
	IssuedAt     time.Time `json:"issued_at" db:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at" db:"expires_at"`
	AttemptCount int       `json:"attempt_count" db:"attempt_count"`
	LastError    string    `json:"last_error,omitempty" db:"last_error"`
}

// Terminal reports whether the session has reached a terminal state
func (s *LinkSession) Terminal() bool {
	switch s.State {
	case LinkStateConnected, LinkStateExpired, LinkStateError:
		return true
	}
	return false
}

// Active reports whether a handshake is in progress for this session.
// Exactly one active session is allowed per (platform, user) key.
func (s *LinkSession) Active() bool {
	return !s.Terminal()
}

// LinkKey builds the operation key for a handshake attempt
func LinkKey(platform, userID string) string {
	return "link:" + platform + ":" + userID
}

// RefreshKey builds the operation key for a credential refresh attempt
func RefreshKey(principal string) string {
	return "refresh:" + principal
}

// SyncKey builds the operation key for a sync tracking attempt
func SyncKey(requestID string) string {
	return "sync:" + requestID
}
