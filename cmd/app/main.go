package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saikiran76/dailyfix-core/internal/auth"
	"github.com/saikiran76/dailyfix-core/internal/backoff"
	"github.com/saikiran76/dailyfix-core/internal/bootstrap"
	"github.com/saikiran76/dailyfix-core/internal/config"
	"github.com/saikiran76/dailyfix-core/internal/database"
	"github.com/saikiran76/dailyfix-core/internal/gateway"
	"github.com/saikiran76/dailyfix-core/internal/link"
	"github.com/saikiran76/dailyfix-core/internal/observe"
	"github.com/saikiran76/dailyfix-core/internal/operation"
	"github.com/saikiran76/dailyfix-core/internal/push"
	"github.com/saikiran76/dailyfix-core/internal/scheduler"
	"github.com/saikiran76/dailyfix-core/internal/server"
	"github.com/saikiran76/dailyfix-core/internal/syncing"
	"github.com/saikiran76/dailyfix-core/internal/worker"
)

const (
	// ShutdownTimeout is how long graceful shutdown may take before giving up
	ShutdownTimeout = 10 * time.Second

	// CleanupInterval is how often the cleanup job prunes terminal operation
	// handles and expired link sessions
	CleanupInterval = 5 * time.Minute

	// WorkerCount is the number of background workers
	WorkerCount = 2

	// WorkerQueueSize is the background job queue capacity
	WorkerQueueSize = 16
)

func main() {
	// Load configuration (reads .env when present)
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}

	// Setup logging (stdout + rotating session files)
	logFile, err := bootstrap.SetupLogger(cfg)
	if err != nil {
		slog.Error("Logger setup failed", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	// Validate environment, surfacing non-fatal misconfigurations
	warnings, err := config.ValidateEnvWithWarnings()
	if err != nil {
		slog.Error("Environment validation failed", "error", err)
		os.Exit(1)
	}
	for _, warning := range warnings {
		slog.Warn("Configuration warning", "warning", warning)
	}

	ctx := context.Background()

	// Connect to the database
	dbPool, err := database.NewPool(cfg.GetDBConnString(), cfg.DBMaxConns, cfg.DBMaxConnIdleTime, cfg.DBMaxConnLifetime)
	if err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := bootstrap.ApplySchema(ctx, dbPool); err != nil {
		slog.Error("Schema setup failed", "error", err)
		os.Exit(1)
	}

	// Event bus with resilient publishing and dead-lettering
	eventBus, publisher, deadLetter, err := bootstrap.InitializeEventSystem(cfg)
	if err != nil {
		slog.Error("Event system setup failed", "error", err)
		os.Exit(1)
	}

	repos := bootstrap.InitializeRepositories(dbPool)

	// Coordination core
	registry := operation.NewRegistry()
	mux := observe.NewMultiplexer()
	policy := backoff.NewPolicy()

	// The gateway client authenticates with tokens the coordinator manages,
	// and the coordinator refreshes tokens through the gateway client. The
	// closure breaks the construction cycle.
	var coordinator *auth.Coordinator
	apiClient := gateway.NewClient(cfg.BackendURL, func(ctx context.Context) (string, error) {
		return coordinator.TokenSource(cfg.Principal)(ctx)
	})
	coordinator = auth.NewCoordinator(repos.Credential, apiClient, registry, policy, publisher)

	linkService := link.NewService(apiClient, registry, mux, publisher, repos.LinkSession, link.Config{
		CodeTTL:      cfg.LinkCodeTTL,
		PollInterval: cfg.LinkPollInterval,
		Policy:       policy,
	})

	syncService := syncing.NewService(apiClient, registry, mux, publisher, syncing.Config{
		PollInterval: cfg.SyncPollInterval,
		Ceiling:      cfg.SyncCeiling,
	})

	// Push channel from the backend feeds the link handshake stream
	pushClient := push.NewClient(push.Config{
		URL:    cfg.PushURL,
		UserID: cfg.Principal,
	}, coordinator.TokenSource(cfg.Principal), linkService, publisher)
	pushClient.Start(ctx)

	if err := bootstrap.RegisterEventHandlers(bootstrap.EventHandlerDependencies{
		EventBus: eventBus,
		AppState: repos.AppState,
	}); err != nil {
		slog.Error("Event handler registration failed", "error", err)
		os.Exit(1)
	}

	// Background cleanup of terminal handles and stale link sessions
	workerPool := worker.NewPool(WorkerCount, WorkerQueueSize)
	workerPool.Start()
	sched := scheduler.New(workerPool)
	sched.Schedule(CleanupInterval, worker.NewCleanupJob(registry, repos.LinkSession))

	srv := server.NewServer(cfg.Port, cfg.APIKey, nil, dbPool, linkService, syncService, coordinator, cfg.Principal)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	// Wait for shutdown signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	bootstrap.GracefulShutdown(shutdownCtx, bootstrap.ShutdownComponents{
		Server:     srv,
		PushClient: pushClient,
		Scheduler:  sched,
		WorkerPool: workerPool,
		DeadLetter: deadLetter,
	})
}
