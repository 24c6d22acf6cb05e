package auth

import "time"

// Refresh timing
const (
	// SafetyMargin is how long before expiry a credential stops counting as
	// valid. Refreshing this early keeps in-flight calls from racing expiry.
	SafetyMargin = 5 * time.Minute
)

// SessionExpired reasons
const (
	ReasonRefreshRejected = "refresh_rejected"
	ReasonRefreshGaveUp   = "refresh_gave_up"
)

// Log messages
const (
	LogMsgRefreshed          = "Credential refreshed"
	LogMsgRefreshFailed      = "Credential refresh failed"
	LogMsgRefreshRejected    = "Refresh token rejected, session expired"
	LogMsgPersistFailed      = "Failed to persist credential"
	LogMsgEventPublishFailed = "Failed to publish session event"
)
