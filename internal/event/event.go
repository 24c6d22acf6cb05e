package event

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Type represents the type of an event
type Type string

// Event represents a generic event in the system
type Event struct {
	Version string      `json:"version"` // Event schema version (e.g., "1.0")
	Type    Type        `json:"type"`
	Payload interface{} `json:"payload"`
}

// Event types carried by the push channel and the internal bus
const (
	// LinkStatus reports a handshake state change for a platform
	LinkStatus Type = "link.status"
	// LinkConnected reports a completed account link
	LinkConnected Type = "link.connected"
	// SyncProgress reports progress of a background contact sync
	SyncProgress Type = "sync.progress"
	// SessionExpired is emitted exactly once when a credential refresh gives up
	SessionExpired Type = "session.expired"
	// PushConnectionState reports the push channel going up or down
	PushConnectionState Type = "push.connection_state"
)

// Typed event payloads for type safety

// LinkStatusPayloadV1 is the typed payload for link status events
type LinkStatusPayloadV1 struct {
	Platform  string `json:"platform"`
	State     string `json:"state"`
	Code      string `json:"code,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// LinkConnectedPayloadV1 is the typed payload for link connected events
type LinkConnectedPayloadV1 struct {
	Platform  string `json:"platform"`
	UserID    string `json:"user_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// SyncProgressPayloadV1 is the typed payload for sync progress events
type SyncProgressPayloadV1 struct {
	RequestID string `json:"request_id"`
	Progress  int    `json:"progress"`
	IsRunning bool   `json:"is_running"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// SessionExpiredPayloadV1 is the typed payload for session expired events
type SessionExpiredPayloadV1 struct {
	Principal string `json:"principal"`
	Reason    string `json:"reason"`
	Timestamp int64  `json:"timestamp"`
}

// PushConnectionStatePayloadV1 is the typed payload for push connection events
type PushConnectionStatePayloadV1 struct {
	Connected bool  `json:"connected"`
	Timestamp int64 `json:"timestamp"`
}

// Type-safe event constructors

// NewLinkStatusEvent creates a new link status event
func NewLinkStatusEvent(platform, state, code string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    LinkStatus,
		Payload: LinkStatusPayloadV1{
			Platform:  platform,
			State:     state,
			Code:      code,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewLinkConnectedEvent creates a new link connected event
func NewLinkConnectedEvent(platform, userID string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    LinkConnected,
		Payload: LinkConnectedPayloadV1{
			Platform:  platform,
			UserID:    userID,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewSyncProgressEvent creates a new sync progress event
func NewSyncProgressEvent(requestID string, progress int, isRunning bool, message string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    SyncProgress,
		Payload: SyncProgressPayloadV1{
			RequestID: requestID,
			Progress:  progress,
			IsRunning: isRunning,
			Message:   message,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewSessionExpiredEvent creates a new session expired event
func NewSessionExpiredEvent(principal, reason string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    SessionExpired,
		Payload: SessionExpiredPayloadV1{
			Principal: principal,
			Reason:    reason,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewPushConnectionStateEvent creates a new push connection state event
func NewPushConnectionStateEvent(connected bool) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    PushConnectionState,
		Payload: PushConnectionStatePayloadV1{
			Connected: connected,
			Timestamp: time.Now().Unix(),
		},
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	// Handlers run synchronously; coordinators that need decoupling hand the
	// event off to their own goroutine.
	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
