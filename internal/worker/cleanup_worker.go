package worker

import (
	"context"

	"github.com/saikiran76/dailyfix-core/internal/logger"
	"github.com/saikiran76/dailyfix-core/internal/operation"
)

// SessionCleaner removes stale link sessions from persistent storage.
type SessionCleaner interface {
	DeleteExpiredSessions(ctx context.Context) error
}

// CleanupJob prunes terminal operation handles and expired link sessions.
// It is scheduled at a fixed interval by the scheduler.
type CleanupJob struct {
	registry *operation.Registry
	sessions SessionCleaner
}

// NewCleanupJob creates a cleanup job. sessions may be nil when no persistent
// session store is configured.
func NewCleanupJob(registry *operation.Registry, sessions SessionCleaner) *CleanupJob {
	return &CleanupJob{
		registry: registry,
		sessions: sessions,
	}
}

// Process implements Job
func (j *CleanupJob) Process(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Debug(LogMsgCleanupStarting)

	pruned := j.registry.PruneTerminal()

	if j.sessions != nil {
		if err := j.sessions.DeleteExpiredSessions(ctx); err != nil {
			log.Error(LogMsgCleanupFailed, "error", err)
			return err
		}
	}

	log.Debug(LogMsgCleanupCompleted, "pruned_handles", pruned)
	return nil
}
