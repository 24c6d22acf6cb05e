package link

import "time"

// ============================================================================
// Handshake Configuration
// ============================================================================

const (
	// DefaultCodeTTL is how long an issued linking code stays confirmable
	DefaultCodeTTL = 60 * time.Second

	// DefaultPollInterval is how often the status endpoint is polled while a
	// code is waiting for confirmation
	DefaultPollInterval = 2 * time.Second
)

// ============================================================================
// Observation Statuses
// ============================================================================

// Statuses carried on multiplexer observations. The machine acts only on
// these, never on raw channel payloads.
const (
	// ObservationConnected reports the account was confirmed linked
	ObservationConnected = "connected"

	// ObservationPending reports the handshake is still waiting
	ObservationPending = "pending"

	// ObservationCode reports a rotated linking code
	ObservationCode = "code"

	// ObservationError reports the backend rejected the handshake
	ObservationError = "error"
)

// ============================================================================
// Push States
// ============================================================================

// States the push channel reports for a handshake
const (
	PushStateConnected = "connected"
	PushStateActive    = "active"
	PushStatePending   = "pending"
	PushStateError     = "error"
)

// ============================================================================
// Log Messages
// ============================================================================

const (
	LogMsgHandshakeStarted     = "Link handshake started"
	LogMsgCodeIssued           = "Linking code issued"
	LogMsgAlreadyLinked        = "Account already linked"
	LogMsgHandshakeConnected   = "Link handshake confirmed"
	LogMsgHandshakeExpired     = "Link handshake expired"
	LogMsgHandshakeFailed      = "Link handshake failed"
	LogMsgHandshakeRetried     = "Link handshake retried"
	LogMsgStaleObservation     = "Discarding observation after expiry"
	LogMsgPushWithoutHandshake = "Push signal without an active handshake"
	LogMsgPersistFailed        = "Failed to persist link session"
	LogMsgEventPublishFailed   = "Failed to publish link event"
)
