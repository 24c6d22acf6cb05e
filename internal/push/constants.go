package push

import "time"

// Default configuration values
const (
	// DefaultReconnectDelay is the initial delay before attempting to reconnect
	DefaultReconnectDelay = 1 * time.Second

	// DefaultMaxReconnectDelay is the maximum delay between reconnection attempts
	DefaultMaxReconnectDelay = 30 * time.Second

	// ReconnectMultiplier is the multiplier for exponential backoff
	ReconnectMultiplier = 2.0

	// DefaultMaxConsecutiveFailures is how many connection attempts fail
	// before the client goes dormant
	DefaultMaxConsecutiveFailures = 10

	// WriteTimeout is the timeout for writing messages
	WriteTimeout = 10 * time.Second

	// ReadBufferSize is the WebSocket read buffer size
	ReadBufferSize = 4096

	// WriteBufferSize is the WebSocket write buffer size
	WriteBufferSize = 4096
)

// Event names the backend pushes over the socket
const (
	EventLinkStatus    = "link.status"
	EventLinkConnected = "link.connected"
	EventSyncProgress  = "sync.progress"
)

// Log messages
const (
	LogMsgConnecting        = "Connecting to push channel"
	LogMsgConnected         = "Connected to push channel"
	LogMsgReconnecting      = "Reconnecting to push channel"
	LogMsgConnectionLost    = "Push channel connection lost"
	LogMsgClientStopped     = "Push client stopped"
	LogMsgGivingUp          = "Push channel failed too many times, entering dormant mode"
	LogMsgWakingUp          = "Push client waking from dormant mode"
	LogMsgDormantWakeup     = "Push client dormant, reconnection triggered"
	LogMsgTokenUnavailable  = "No access token for push channel"
	LogMsgUnknownEvent      = "Unknown push event"
	LogMsgMalformedEvent    = "Malformed push event payload"
	LogMsgConnectionRestore = "Push channel restored"
)
