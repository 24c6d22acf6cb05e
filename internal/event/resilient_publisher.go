package event

import (
	"context"
	"time"

	"github.com/saikiran76/dailyfix-core/internal/logger"
)

// ResilientConfig configures the ResilientPublisher
type ResilientConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	DeadLetter *DeadLetterWriter // nil disables dead-lettering
}

// DefaultResilientConfig returns the standard retry configuration
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		MaxRetries: RetryMaxAttempts,
		RetryDelay: RetryInitialDelaySeconds * time.Second,
	}
}

// ResilientPublisher wraps an event Bus to add retry logic and dead-letter
// queuing. The push client publishes through it so a slow or failing handler
// never drops a channel observation silently.
type ResilientPublisher struct {
	inner  Bus
	config ResilientConfig
}

// NewResilientPublisher creates a new ResilientPublisher
func NewResilientPublisher(inner Bus, config ResilientConfig) *ResilientPublisher {
	return &ResilientPublisher{
		inner:  inner,
		config: config,
	}
}

// Publish attempts to publish an event. On failure a background retry loop
// takes over; the caller gets nil once the event is accepted for processing.
// This decouples the publisher from the retry mechanism.
func (p *ResilientPublisher) Publish(ctx context.Context, event Event) error {
	err := p.inner.Publish(ctx, event)
	if err == nil {
		return nil
	}

	logger.FromContext(ctx).Warn("Failed to publish event, initiating async retry",
		"event_type", event.Type,
		"error", err,
		"retries", p.config.MaxRetries)

	go p.retryLoop(event, err)

	return nil
}

func (p *ResilientPublisher) retryLoop(event Event, firstErr error) {
	// Detached context: the original request context may already be cancelled
	ctx := context.Background()
	lastErr := firstErr

	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		time.Sleep(CalculateRetryDelay(p.config.RetryDelay, attempt))

		if err := p.inner.Publish(ctx, event); err == nil {
			logger.Info(LogMsgEventRetrySucceeded,
				"event_type", event.Type,
				"attempt", attempt)
			return
		} else {
			lastErr = err
			logger.Warn(LogMsgEventRetryFailed,
				"event_type", event.Type,
				"attempt", attempt,
				"error", err)
		}
	}

	logger.Warn(LogMsgEventRetryExhausted, "event_type", event.Type)
	if p.config.DeadLetter != nil {
		if err := p.config.DeadLetter.Write(event, p.config.MaxRetries, lastErr); err != nil {
			logger.Error(LogMsgDeadLetterWriteFailed, "error", err)
		}
	}
}

// Subscribe delegates to the inner bus
func (p *ResilientPublisher) Subscribe(eventType Type, handler Handler) {
	p.inner.Subscribe(eventType, handler)
}
