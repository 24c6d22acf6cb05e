package bootstrap

import (
	"context"
	"log/slog"

	"github.com/saikiran76/dailyfix-core/internal/event"
	"github.com/saikiran76/dailyfix-core/internal/push"
	"github.com/saikiran76/dailyfix-core/internal/scheduler"
	"github.com/saikiran76/dailyfix-core/internal/server"
	"github.com/saikiran76/dailyfix-core/internal/worker"
)

// ShutdownComponents holds all components that need graceful shutdown.
type ShutdownComponents struct {
	Server     *server.Server
	PushClient *push.Client
	Scheduler  *scheduler.Scheduler
	WorkerPool *worker.Pool
	DeadLetter *event.DeadLetterWriter
}

// GracefulShutdown performs graceful shutdown of all application components.
// It shuts down in the correct order:
// 1. HTTP server (stop accepting new requests)
// 2. Push client (close the backend WebSocket)
// 3. Scheduler, then worker pool (drain periodic work)
// 4. Dead-letter writer (flush last so retry loops can still reach it)
//
// Errors during shutdown are logged but do not stop the shutdown sequence.
func GracefulShutdown(ctx context.Context, components ShutdownComponents) {
	slog.Info(LogMsgShuttingDownServer)

	// Shutdown server first (stop accepting new requests)
	if err := components.Server.Stop(ctx); err != nil {
		slog.Error(LogMsgServerForcedShutdown, "error", err)
	}

	if components.PushClient != nil {
		slog.Info(LogMsgStoppingPushClient)
		components.PushClient.Stop()
	}

	if components.Scheduler != nil {
		slog.Info(LogMsgStoppingScheduler)
		components.Scheduler.Stop()
	}

	if components.WorkerPool != nil {
		slog.Info(LogMsgStoppingWorkerPool)
		components.WorkerPool.Stop()
	}

	if components.DeadLetter != nil {
		if err := components.DeadLetter.Close(); err != nil {
			slog.Error(LogMsgDeadLetterCloseFailed, "error", err)
		}
	}

	slog.Info(LogMsgServerStopped)
}
