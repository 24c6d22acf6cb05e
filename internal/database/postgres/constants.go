package postgres

// PostgreSQL Error Codes
const (
	// PgErrorCodeUniqueViolation is the PostgreSQL error code for unique constraint violations
	PgErrorCodeUniqueViolation = "23505"
)

// Error Messages - Credential Operations
const (
	ErrMsgFailedToGetCredential    = "failed to get credential"
	ErrMsgFailedToSaveCredential   = "failed to save credential"
	ErrMsgFailedToDeleteCredential = "failed to delete credential"
)

// Error Messages - Link Session Operations
const (
	ErrMsgFailedToSaveSession     = "failed to save link session"
	ErrMsgFailedToGetSession      = "failed to get link session"
	ErrMsgFailedToDeleteSession   = "failed to delete link session"
	ErrMsgFailedToCleanupSessions = "failed to cleanup expired link sessions"
)

// Error Messages - App State Operations
const (
	ErrMsgFailedToGetAppState = "failed to get app state"
	ErrMsgFailedToSetAppState = "failed to set app state"
)
