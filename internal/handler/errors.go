package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details for security reasons.
// Both handlers and tests should reference these constants to maintain consistency.
const (
	// HTTP status messages
	ErrMsgMethodNotAllowed      = "Method not allowed"
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"

	// Query parameter error messages
	ErrMsgMissingQueryParam = "Missing %s query parameter"

	// Link operation error messages
	ErrMsgStartLinkFailed     = "Failed to start linking"
	ErrMsgRetryLinkFailed     = "Failed to retry linking"
	ErrMsgGetLinkStatusFailed = "Failed to get link status"

	// Sync operation error messages
	ErrMsgTrackSyncFailed     = "Failed to track sync"
	ErrMsgGetSyncStatusFailed = "Failed to get sync status"

	// Session operation error messages
	ErrMsgGetSessionFailed    = "Failed to get session status"
	ErrMsgSetCredentialFailed = "Failed to store credential"
)

// Success messages for API responses
const (
	MsgCredentialStored = "Credential stored"
)
