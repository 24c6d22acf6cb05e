package gateway

import "time"

// Client configuration
const (
	// RequestTimeout bounds one round trip to the backend
	RequestTimeout = 10 * time.Second
)

// Log messages
const (
	LogMsgRequestRejected = "Backend request rejected"
)
