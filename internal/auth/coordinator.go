package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/saikiran76/dailyfix-core/internal/backoff"
	"github.com/saikiran76/dailyfix-core/internal/concurrency"
	"github.com/saikiran76/dailyfix-core/internal/domain"
	"github.com/saikiran76/dailyfix-core/internal/event"
	"github.com/saikiran76/dailyfix-core/internal/gateway"
	"github.com/saikiran76/dailyfix-core/internal/logger"
	"github.com/saikiran76/dailyfix-core/internal/metrics"
	"github.com/saikiran76/dailyfix-core/internal/operation"
)

// RefreshClient is the slice of the backend gateway the coordinator needs
type RefreshClient interface {
	RefreshSession(ctx context.Context, refreshToken string) (*gateway.RefreshResult, error)
}

// Coordinator guarantees at most one credential refresh in flight per
// principal and exposes the refreshed credential to every waiter. It is
// call-driven: it never schedules its own retries, the next EnsureValid call
// is the retry.
type Coordinator struct {
	repo     Repository
	client   RefreshClient
	registry *operation.Registry
	policy   backoff.Policy
	bus      event.Bus
	locks    *concurrency.LockManager
	margin   time.Duration

	mu    sync.RWMutex
	creds map[string]domain.Credential

	streakMu sync.Mutex
	streaks  map[string]*failureStreak
}

// failureStreak tracks rapid consecutive refresh failures for one principal
type failureStreak struct {
	count   int
	lastAt  time.Time
	dead    bool // refresh token rejected, only a fresh login revives this principal
	emitted bool // SessionExpired has been published
}

// NewCoordinator creates a credential refresh coordinator
func NewCoordinator(repo Repository, client RefreshClient, registry *operation.Registry, policy backoff.Policy, bus event.Bus) *Coordinator {
	return &Coordinator{
		repo:     repo,
		client:   client,
		registry: registry,
		policy:   policy,
		bus:      bus,
		locks:    concurrency.NewLockManager(),
		margin:   SafetyMargin,
		creds:    make(map[string]domain.Credential),
		streaks:  make(map[string]*failureStreak),
	}
}

// SetCredential seeds or replaces the credential for principal, e.g. after an
// interactive login. Clears any dead/cooldown state: a fresh login is a fresh
// start.
func (c *Coordinator) SetCredential(ctx context.Context, cred domain.Credential) error {
	c.storeCredential(cred)
	c.streakMu.Lock()
	delete(c.streaks, cred.Principal)
	c.streakMu.Unlock()

	if c.repo != nil {
		if err := c.repo.SaveCredential(ctx, &cred); err != nil {
			return fmt.Errorf("failed to persist credential: %w", err)
		}
	}
	return nil
}

// Peek returns the cached credential without refreshing. Used by status
// surfaces that must not trigger network traffic.
func (c *Coordinator) Peek(ctx context.Context, principal string) (domain.Credential, bool) {
	if cred, ok := c.cachedCredential(ctx, principal); ok {
		return cred, true
	}
	return domain.Credential{}, false
}

// EnsureValid returns a credential usable for at least the safety margin,
// refreshing it when needed. N concurrent callers during the same window
// share one refresh and observe one identical outcome.
func (c *Coordinator) EnsureValid(ctx context.Context, principal string) (domain.Credential, error) {
	now := time.Now()

	// Fast path: still valid, no registry involvement
	if cred, ok := c.cachedCredential(ctx, principal); ok && cred.ValidFor(now, c.margin) {
		return cred, nil
	}

	// Per-principal lock serializes the give-up check against streak updates
	lock := c.locks.GetLock(principal)
	lock.Lock()
	if err := c.checkGivenUp(ctx, principal, now); err != nil {
		lock.Unlock()
		return domain.Credential{}, err
	}

	key := domain.RefreshKey(principal)
	handle, created := c.registry.Begin(key)
	lock.Unlock()

	if !created {
		metrics.RecordRefreshJoined()
		out, err := handle.Wait(ctx)
		if err != nil {
			return domain.Credential{}, err
		}
		return credentialOutcome(out)
	}

	out := c.refresh(ctx, principal)
	// Completion must reach waiters even when our own caller is gone
	_ = c.registry.Complete(context.WithoutCancel(ctx), key, out)
	c.registry.Release(key)
	return credentialOutcome(out)
}

// TokenSource adapts the coordinator for the gateway's authenticated calls
func (c *Coordinator) TokenSource(principal string) gateway.TokenSource {
	return func(ctx context.Context) (string, error) {
		cred, err := c.EnsureValid(ctx, principal)
		if err != nil {
			return "", err
		}
		return cred.AccessToken, nil
	}
}

// refresh performs the actual refresh attempt. Runs only in the handle
// owner's context.
func (c *Coordinator) refresh(ctx context.Context, principal string) operation.Outcome {
	log := logger.FromContext(ctx)

	cred, ok := c.cachedCredential(ctx, principal)
	if !ok || cred.RefreshToken == "" {
		return operation.Outcome{Status: operation.StatusFailed, Err: domain.ErrNoCredential}
	}

	metrics.RecordRefreshAttempt()
	result, err := c.client.RefreshSession(ctx, cred.RefreshToken)
	if err != nil {
		return c.recordFailure(ctx, principal, err)
	}

	fresh := domain.Credential{
		Principal:    principal,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    result.ExpiresAt,
	}
	c.storeCredential(fresh)
	if c.repo != nil {
		if err := c.repo.SaveCredential(ctx, &fresh); err != nil {
			// The in-memory credential is authoritative for this process;
			// losing the write-through only hurts the next restart.
			log.Warn(LogMsgPersistFailed, "principal", principal, "error", err)
		}
	}

	c.streakMu.Lock()
	delete(c.streaks, principal)
	c.streakMu.Unlock()

	metrics.RecordRefreshOutcome(metrics.OutcomeSuccess)
	log.Info(LogMsgRefreshed, "principal", principal, "expires_at", fresh.ExpiresAt)
	return operation.Outcome{Status: operation.StatusSucceeded, Value: fresh}
}

// checkGivenUp enforces the circuit breaker: once the backoff ceiling is hit
// inside the cooldown window, callers get SessionExpired without a network
// call. A dead refresh token short-circuits forever until a new login.
func (c *Coordinator) checkGivenUp(ctx context.Context, principal string, now time.Time) error {
	c.streakMu.Lock()
	defer c.streakMu.Unlock()

	streak, ok := c.streaks[principal]
	if !ok {
		return nil
	}
	if streak.dead {
		return domain.ErrSessionExpired
	}
	if c.policy.ShouldGiveUp(streak.count+1, streak.lastAt, now) {
		c.emitSessionExpiredLocked(ctx, principal, streak, ReasonRefreshGaveUp)
		return domain.ErrSessionExpired
	}
	return nil
}

// recordFailure updates the failure streak and translates the refresh error
// into the attempt outcome shared by all waiters.
func (c *Coordinator) recordFailure(ctx context.Context, principal string, err error) operation.Outcome {
	log := logger.FromContext(ctx)
	metrics.RecordRefreshOutcome(metrics.OutcomeFailure)

	c.streakMu.Lock()
	defer c.streakMu.Unlock()

	streak, ok := c.streaks[principal]
	if !ok {
		streak = &failureStreak{}
		c.streaks[principal] = streak
	}
	streak.count++
	streak.lastAt = time.Now()

	if kind, _ := domain.KindOf(err); kind == domain.KindAuthRejected {
		// The refresh token itself is dead: fatal, never retried
		streak.dead = true
		c.emitSessionExpiredLocked(ctx, principal, streak, ReasonRefreshRejected)
		log.Warn(LogMsgRefreshRejected, "principal", principal)
		return operation.Outcome{
			Status: operation.StatusFailed,
			Err:    fmt.Errorf("%w: %v", domain.ErrSessionExpired, err),
		}
	}

	log.Warn(LogMsgRefreshFailed, "principal", principal, "failures", streak.count, "error", err)
	return operation.Outcome{Status: operation.StatusFailed, Err: err}
}

// emitSessionExpiredLocked publishes the SessionExpired signal exactly once
// per streak. Caller holds streakMu.
func (c *Coordinator) emitSessionExpiredLocked(ctx context.Context, principal string, streak *failureStreak, reason string) {
	if streak.emitted {
		return
	}
	streak.emitted = true
	metrics.RecordSessionExpired()
	if c.bus != nil {
		if err := c.bus.Publish(context.WithoutCancel(ctx), event.NewSessionExpiredEvent(principal, reason)); err != nil {
			logger.FromContext(ctx).Warn(LogMsgEventPublishFailed, "error", err)
		}
	}
}

// cachedCredential returns the in-memory credential, falling back to the
// repository once (warm start after restart).
func (c *Coordinator) cachedCredential(ctx context.Context, principal string) (domain.Credential, bool) {
	c.mu.RLock()
	cred, ok := c.creds[principal]
	c.mu.RUnlock()
	if ok {
		return cred, true
	}

	if c.repo == nil {
		return domain.Credential{}, false
	}
	stored, err := c.repo.GetCredential(ctx, principal)
	if err != nil || stored == nil {
		return domain.Credential{}, false
	}
	c.storeCredential(*stored)
	return *stored, true
}

// storeCredential replaces the credential as a whole value. Readers never
// observe a partial update.
func (c *Coordinator) storeCredential(cred domain.Credential) {
	c.mu.Lock()
	c.creds[cred.Principal] = cred
	c.mu.Unlock()
}

// credentialOutcome converts an attempt outcome back into the caller-facing
// (credential, error) pair.
func credentialOutcome(out operation.Outcome) (domain.Credential, error) {
	if out.Err != nil {
		return domain.Credential{}, out.Err
	}
	cred, ok := out.Value.(domain.Credential)
	if !ok {
		return domain.Credential{}, fmt.Errorf("unexpected refresh outcome type %T", out.Value)
	}
	return cred, nil
}
