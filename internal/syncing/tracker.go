package syncing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/saikiran76/dailyfix-core/internal/domain"
	"github.com/saikiran76/dailyfix-core/internal/event"
	"github.com/saikiran76/dailyfix-core/internal/gateway"
	"github.com/saikiran76/dailyfix-core/internal/logger"
	"github.com/saikiran76/dailyfix-core/internal/metrics"
	"github.com/saikiran76/dailyfix-core/internal/observe"
	"github.com/saikiran76/dailyfix-core/internal/operation"
)

// BackendClient is the slice of the backend gateway the tracker needs.
// SyncStatus is the primary progress source; FetchContactsMeta is the
// authoritative answer to "has this sync finished".
type BackendClient interface {
	SyncStatus(ctx context.Context, requestID string) (*gateway.SyncStatusResult, error)
	FetchContactsMeta(ctx context.Context) (*gateway.ContactsMeta, error)
}

// Service tracks long-running server-side sync jobs to a terminal state.
// The policy is deliberately lenient: a stalled or unreachable job is
// declared done rather than left hanging, availability over precision.
type Service interface {
	// Track follows the job until it reaches a terminal state. Concurrent
	// Track calls for the same request share one polling loop.
	Track(ctx context.Context, requestID string) (domain.SyncJob, error)

	// Status returns the current job snapshot without blocking
	Status(ctx context.Context, requestID string) (domain.SyncJob, error)
}

// Config tunes tracking behavior. Zero values fall back to defaults.
type Config struct {
	PollInterval   time.Duration
	MaxPolls       int
	Ceiling        time.Duration
	StuckThreshold int
}

type service struct {
	client   BackendClient
	registry *operation.Registry
	mux      *observe.Multiplexer
	bus      event.Bus

	pollInterval   time.Duration
	maxPolls       int
	ceiling        time.Duration
	stuckThreshold int

	mu   sync.Mutex
	jobs map[string]*domain.SyncJob
}

// NewService creates a new sync progress tracker
func NewService(client BackendClient, registry *operation.Registry, mux *observe.Multiplexer, bus event.Bus, cfg Config) Service {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = DefaultMaxPolls
	}
	if cfg.Ceiling <= 0 {
		cfg.Ceiling = DefaultCeiling
	}
	if cfg.StuckThreshold <= 0 {
		cfg.StuckThreshold = DefaultStuckThreshold
	}
	return &service{
		client:         client,
		registry:       registry,
		mux:            mux,
		bus:            bus,
		pollInterval:   cfg.PollInterval,
		maxPolls:       cfg.MaxPolls,
		ceiling:        cfg.Ceiling,
		stuckThreshold: cfg.StuckThreshold,
		jobs:           make(map[string]*domain.SyncJob),
	}
}

// Track follows the sync job for requestID until terminal. The polling loop
// belongs to the operation key, not to any caller: cancelling ctx detaches
// this caller only.
func (s *service) Track(ctx context.Context, requestID string) (domain.SyncJob, error) {
	if requestID == "" {
		return domain.SyncJob{}, fmt.Errorf("%w: missing request id", domain.ErrInvalidInput)
	}

	key := domain.SyncKey(requestID)

	s.mu.Lock()
	if job, ok := s.jobs[key]; ok && job.Terminal() {
		snapshot := *job
		s.mu.Unlock()
		return snapshot, nil
	}

	handle, created := s.registry.Begin(key)
	if created {
		now := time.Now()
		job := &domain.SyncJob{
			RequestID:            requestID,
			State:                domain.SyncStateRunning,
			StartedAt:            now,
			LastProgressChangeAt: now,
		}
		s.jobs[key] = job
		s.mu.Unlock()

		logger.FromContext(ctx).Info(LogMsgTrackingStarted, "request_id", requestID)
		go s.run(context.WithoutCancel(ctx), key, job)
	} else {
		s.mu.Unlock()
	}

	out, err := handle.Wait(ctx)
	if err != nil {
		return domain.SyncJob{}, err
	}
	job, _ := out.Value.(domain.SyncJob)
	return job, out.Err
}

// Status returns the current job snapshot
func (s *service) Status(ctx context.Context, requestID string) (domain.SyncJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[domain.SyncKey(requestID)]
	if !ok {
		return domain.SyncJob{}, domain.ErrSyncNotFound
	}
	return *job, nil
}

// run drives one job to a terminal state: poll readings, plateau detection,
// authoritative cross-checks, and the wall-clock ceiling.
func (s *service) run(ctx context.Context, key string, job *domain.SyncJob) {
	log := logger.FromContext(ctx)

	stream := s.mux.Open(ctx, key, observe.StreamConfig{
		PollInterval: s.pollInterval,
		Poll:         s.pollProgress(job.RequestID),
		// Every reading must come through, including identical ones: the
		// plateau signal is the repetition itself
		DedupTTL: s.pollInterval / 2,
	})

	ceiling := time.NewTimer(s.ceiling)
	defer ceiling.Stop()

	polls := 0
	totalErrors := 0

	for {
		select {
		case <-ceiling.C:
			s.finish(ctx, key, job, domain.SyncStateCompletedTimeout, "wall-clock ceiling reached")
			log.Warn(LogMsgSyncTimedOut, "request_id", job.RequestID, "polls", polls)
			return

		case obs, ok := <-stream.Out():
			if !ok {
				return
			}
			polls++

			switch obs.Status {
			case StatusError:
				totalErrors++
				if obs.Repeats >= MaxConsecutiveErrors || totalErrors > MaxTotalErrors {
					s.finish(ctx, key, job, domain.SyncStateCompletedTimeout, "progress polling kept failing")
					log.Warn(LogMsgSyncTimedOut, "request_id", job.RequestID, "errors", totalErrors)
					return
				}

			case StatusDone:
				s.applyProgress(ctx, job, obs)
				s.finish(ctx, key, job, domain.SyncStateCompleted, "")
				log.Info(LogMsgSyncCompleted, "request_id", job.RequestID, "progress", job.Progress)
				return

			case StatusRunning:
				s.applyProgress(ctx, job, obs)
				if obs.Repeats >= s.stuckThreshold {
					// Stalled but presumably finished: declaring done beats
					// leaving the caller hanging
					s.finish(ctx, key, job, domain.SyncStateCompleted, "progress stalled, presumed complete")
					log.Info(LogMsgSyncForcedStuck, "request_id", job.RequestID, "stuck_count", obs.Repeats)
					return
				}
			}

			if polls%CrossCheckEvery == 0 && s.crossCheckFinished(ctx) {
				s.finish(ctx, key, job, domain.SyncStateCompleted, "authoritative source reports finished")
				log.Info(LogMsgSyncCrossChecked, "request_id", job.RequestID)
				return
			}

			if polls >= s.maxPolls {
				s.finish(ctx, key, job, domain.SyncStateCompletedTimeout, "poll budget exhausted")
				log.Warn(LogMsgSyncTimedOut, "request_id", job.RequestID, "polls", polls)
				return
			}
		}
	}
}

// applyProgress folds one reading into the job and publishes movement
func (s *service) applyProgress(ctx context.Context, job *domain.SyncJob, obs observe.Observation) {
	s.mu.Lock()
	changed := obs.Progress != job.Progress
	if changed {
		job.Progress = obs.Progress
		job.LastProgressChangeAt = obs.At
		job.ObservedStuckCount = 0
	} else {
		job.ObservedStuckCount = obs.Repeats
	}
	if msg, ok := obs.Payload.(string); ok && msg != "" {
		job.Message = msg
	}
	snapshot := *job
	s.mu.Unlock()

	if changed {
		s.publishProgress(ctx, snapshot, true)
	}
}

// finish moves the job to its terminal state and resolves every waiter with
// the identical snapshot. Timeouts are best-effort successes, not failures.
func (s *service) finish(ctx context.Context, key string, job *domain.SyncJob, state, message string) {
	s.mu.Lock()
	if job.Terminal() {
		s.mu.Unlock()
		return
	}
	job.State = state
	if message != "" {
		job.Message = message
	}
	snapshot := *job
	s.mu.Unlock()

	out := operation.Outcome{Status: operation.StatusSucceeded, Value: snapshot}
	if state == domain.SyncStateError {
		out.Status = operation.StatusFailed
	}
	if err := s.registry.Complete(ctx, key, out); err != nil {
		logger.FromContext(ctx).Debug(LogMsgSyncTimedOut, "key", key, "error", err)
	}
	s.registry.Release(key)
	s.mux.Close(key)

	s.publishProgress(ctx, snapshot, false)
	metrics.RecordSyncOutcome(state)
}

// crossCheckFinished consults the contacts endpoint, the authoritative source
// for completion. A failed fetch keeps the primary signal.
func (s *service) crossCheckFinished(ctx context.Context) bool {
	meta, err := s.client.FetchContactsMeta(ctx)
	if err != nil {
		logger.FromContext(ctx).Debug(LogMsgCrossCheckSkipped, "error", err)
		return false
	}
	return !meta.Meta.SyncInfo.IsRunning
}

// pollProgress builds the poll function for one request. Poll failures are
// delivered as error observations so the loop can count them.
func (s *service) pollProgress(requestID string) observe.PollFunc {
	return func(ctx context.Context) (observe.Observation, error) {
		metrics.RecordSyncPoll()
		result, err := s.client.SyncStatus(ctx, requestID)
		if err != nil {
			return observe.Observation{Status: StatusError}, nil
		}
		status := StatusRunning
		if !result.IsRunning {
			status = StatusDone
		}
		return observe.Observation{Status: status, Progress: result.Progress, Payload: result.Message}, nil
	}
}

func (s *service) publishProgress(ctx context.Context, snapshot domain.SyncJob, running bool) {
	if s.bus == nil {
		return
	}
	evt := event.NewSyncProgressEvent(snapshot.RequestID, snapshot.Progress, running, snapshot.Message)
	if err := s.bus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Warn(LogMsgEventPublishFailed, "error", err)
	}
}
