package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saikiran76/dailyfix-core/internal/domain"
	"github.com/saikiran76/dailyfix-core/internal/event"
	"github.com/saikiran76/dailyfix-core/internal/logger"
	"github.com/saikiran76/dailyfix-core/internal/metrics"
)

// AppStateStore persists small key/value application state.
type AppStateStore interface {
	Set(ctx context.Context, key, value string) error
}

// EventHandlerDependencies holds the dependencies needed for event handler registration.
type EventHandlerDependencies struct {
	EventBus event.Bus
	AppState AppStateStore
}

// RegisterEventHandlers sets up all event handlers and subscribers.
// This includes:
// - Metrics collector (for event-based metrics)
// - Last-active-platform recorder (persisted so a restart can resume on the
//   platform the user linked most recently)
func RegisterEventHandlers(deps EventHandlerDependencies) error {
	// Register Metrics Collector
	metricsCollector := metrics.NewEventMetricsCollector()
	if err := metricsCollector.Register(deps.EventBus); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedRegisterMetrics, err)
	}
	slog.Info(LogMsgMetricsCollectorRegistered)

	if deps.AppState != nil {
		deps.EventBus.Subscribe(event.LinkConnected, func(ctx context.Context, evt event.Event) error {
			payload, err := event.DecodePayload[event.LinkConnectedPayloadV1](evt.Payload)
			if err != nil {
				return err
			}
			if err := deps.AppState.Set(ctx, domain.StateKeyLastActivePlatform, payload.Platform); err != nil {
				// Losing the marker is not worth failing the event for
				logger.FromContext(ctx).Warn(LogMsgLastPlatformWriteFailed, "error", err)
				return nil
			}
			logger.FromContext(ctx).Debug(LogMsgLastPlatformRecorded, "platform", payload.Platform)
			return nil
		})
	}

	return nil
}
