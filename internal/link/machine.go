package link

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/saikiran76/dailyfix-core/internal/backoff"
	"github.com/saikiran76/dailyfix-core/internal/domain"
	"github.com/saikiran76/dailyfix-core/internal/event"
	"github.com/saikiran76/dailyfix-core/internal/gateway"
	"github.com/saikiran76/dailyfix-core/internal/logger"
	"github.com/saikiran76/dailyfix-core/internal/metrics"
	"github.com/saikiran76/dailyfix-core/internal/observe"
	"github.com/saikiran76/dailyfix-core/internal/operation"
)

// BackendClient is the slice of the backend gateway the handshake needs
type BackendClient interface {
	LinkConnect(ctx context.Context, platform, loginType string) (*gateway.ConnectResult, error)
	LinkStatus(ctx context.Context, platform string) (*gateway.LinkStatusResult, error)
}

// Service drives external-account link handshakes. Exactly one handshake may
// be active per (platform, user) key; a second start attaches to the running
// one instead of issuing a second code.
type Service interface {
	// Start begins a handshake, or attaches to the one already running
	Start(ctx context.Context, platform, userID, loginType string) (domain.LinkSession, error)

	// Retry begins a fresh attempt after a terminal non-connected outcome
	Retry(ctx context.Context, platform, userID, loginType string) (domain.LinkSession, error)

	// Status returns the current session snapshot without blocking
	Status(ctx context.Context, platform, userID string) (domain.LinkSession, error)

	// Wait blocks until the running handshake reaches a terminal state
	Wait(ctx context.Context, platform, userID string) (domain.LinkSession, error)

	// IngestPush feeds a push-channel signal into the handshake's stream
	IngestPush(ctx context.Context, platform, userID, state, code string)
}

// Config tunes handshake timing. Zero values fall back to defaults.
type Config struct {
	CodeTTL      time.Duration
	PollInterval time.Duration
	Policy       backoff.Policy
}

type service struct {
	client   BackendClient
	registry *operation.Registry
	mux      *observe.Multiplexer
	bus      event.Bus
	repo     Repository
	policy   backoff.Policy

	codeTTL      time.Duration
	pollInterval time.Duration

	mu       sync.Mutex
	sessions map[string]*domain.LinkSession
}

// NewService creates a new link handshake service
func NewService(client BackendClient, registry *operation.Registry, mux *observe.Multiplexer, bus event.Bus, repo Repository, cfg Config) Service {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = DefaultCodeTTL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Policy.MaxAttempts == 0 {
		cfg.Policy = backoff.NewPolicy()
	}
	return &service{
		client:       client,
		registry:     registry,
		mux:          mux,
		bus:          bus,
		repo:         repo,
		policy:       cfg.Policy,
		codeTTL:      cfg.CodeTTL,
		pollInterval: cfg.PollInterval,
		sessions:     make(map[string]*domain.LinkSession),
	}
}

// Start begins a handshake for (platform, user). Rapid duplicate starts are
// no-ops that observe the already-running session.
func (s *service) Start(ctx context.Context, platform, userID, loginType string) (domain.LinkSession, error) {
	if !domain.IsKnownPlatform(platform) {
		return domain.LinkSession{}, fmt.Errorf("%w: %s", domain.ErrUnknownPlatform, platform)
	}
	if userID == "" {
		return domain.LinkSession{}, fmt.Errorf("%w: missing user id", domain.ErrInvalidInput)
	}

	key := domain.LinkKey(platform, userID)

	s.mu.Lock()
	if sess, ok := s.sessions[key]; ok && sess.Active() {
		snapshot := *sess
		s.mu.Unlock()
		return snapshot, nil
	}
	if sess, ok := s.sessions[key]; ok && sess.State == domain.LinkStateConnected {
		snapshot := *sess
		s.mu.Unlock()
		return snapshot, domain.ErrAlreadyLinked
	}

	handle, created := s.registry.Begin(key)
	if !created {
		// Another caller won the race inside this same window; its session is
		// already in the map because insertion happens under s.mu.
		sess, ok := s.sessions[key]
		if ok {
			snapshot := *sess
			s.mu.Unlock()
			return snapshot, nil
		}
		s.mu.Unlock()
		out, err := handle.Wait(ctx)
		if err != nil {
			return domain.LinkSession{}, err
		}
		return sessionOutcome(out)
	}

	sess := &domain.LinkSession{
		Platform:     platform,
		UserID:       userID,
		State:        domain.LinkStateStarting,
		IssuedAt:     time.Now(),
		AttemptCount: handle.AttemptCount,
	}
	s.sessions[key] = sess
	s.mu.Unlock()

	logger.FromContext(ctx).Info(LogMsgHandshakeStarted,
		"platform", platform, "user_id", userID, "attempt", handle.AttemptCount)
	metrics.RecordHandshakeStarted(platform)

	return s.connect(ctx, key, sess, loginType)
}

// Retry begins a fresh attempt for a key whose last handshake ended in
// expired or error. Rapid retries hit the backoff ceiling.
func (s *service) Retry(ctx context.Context, platform, userID, loginType string) (domain.LinkSession, error) {
	key := domain.LinkKey(platform, userID)

	s.mu.Lock()
	sess, ok := s.sessions[key]
	if !ok {
		s.mu.Unlock()
		return s.Start(ctx, platform, userID, loginType)
	}
	if sess.Active() {
		snapshot := *sess
		s.mu.Unlock()
		return snapshot, nil
	}
	if sess.State == domain.LinkStateConnected {
		snapshot := *sess
		s.mu.Unlock()
		return snapshot, domain.ErrAlreadyLinked
	}

	if s.policy.ShouldGiveUp(sess.AttemptCount+1, sess.IssuedAt, time.Now()) {
		snapshot := *sess
		s.mu.Unlock()
		return snapshot, domain.ErrMaxAttemptsReached
	}

	// Reset the key's channel state so stale observations from the previous
	// attempt cannot leak into the new one
	s.mux.Close(key)
	s.registry.Release(key)

	handle, created := s.registry.Begin(key)
	if !created {
		snapshot := *sess
		s.mu.Unlock()
		return snapshot, nil
	}

	fresh := &domain.LinkSession{
		Platform:     platform,
		UserID:       userID,
		State:        domain.LinkStateStarting,
		IssuedAt:     time.Now(),
		AttemptCount: handle.AttemptCount,
	}
	s.sessions[key] = fresh
	s.mu.Unlock()

	logger.FromContext(ctx).Info(LogMsgHandshakeRetried,
		"platform", platform, "user_id", userID, "attempt", handle.AttemptCount)
	metrics.RecordHandshakeStarted(platform)

	return s.connect(ctx, key, fresh, loginType)
}

// Status returns the current session snapshot, consulting the repository for
// sessions from a previous process lifetime.
func (s *service) Status(ctx context.Context, platform, userID string) (domain.LinkSession, error) {
	key := domain.LinkKey(platform, userID)

	s.mu.Lock()
	if sess, ok := s.sessions[key]; ok {
		snapshot := *sess
		s.mu.Unlock()
		return snapshot, nil
	}
	s.mu.Unlock()

	if s.repo != nil {
		stored, err := s.repo.GetSession(ctx, platform, userID)
		if err == nil && stored != nil {
			return *stored, nil
		}
	}
	return domain.LinkSession{}, domain.ErrOperationNotFound
}

// Wait blocks until the handshake for (platform, user) reaches a terminal
// state. Cancelling ctx detaches this waiter without cancelling the handshake.
func (s *service) Wait(ctx context.Context, platform, userID string) (domain.LinkSession, error) {
	key := domain.LinkKey(platform, userID)

	if handle, ok := s.registry.Lookup(key); ok {
		out, err := handle.Wait(ctx)
		if err != nil {
			return domain.LinkSession{}, err
		}
		return sessionOutcome(out)
	}
	return s.Status(ctx, platform, userID)
}

// IngestPush feeds a push-channel signal into the handshake's merged stream.
// Signals without an active handshake are dropped.
func (s *service) IngestPush(ctx context.Context, platform, userID, state, code string) {
	key := domain.LinkKey(platform, userID)
	stream, ok := s.mux.Lookup(key)
	if !ok {
		logger.FromContext(ctx).Debug(LogMsgPushWithoutHandshake, "platform", platform, "state", state)
		return
	}

	status := ObservationPending
	switch state {
	case PushStateConnected, PushStateActive:
		status = ObservationConnected
	case PushStateError:
		status = ObservationError
	case PushStatePending:
		if code != "" {
			status = ObservationCode
		}
	}

	metrics.RecordObservation(string(observe.SourcePush))
	stream.Ingest(observe.Observation{Status: status, Payload: code})
}

// connect performs the backend connect call and, when a code comes back,
// hands the session to the confirmation loop.
func (s *service) connect(ctx context.Context, key string, sess *domain.LinkSession, loginType string) (domain.LinkSession, error) {
	log := logger.FromContext(ctx)

	result, err := s.client.LinkConnect(ctx, sess.Platform, loginType)
	if err != nil {
		snapshot := s.finish(ctx, key, sess, domain.LinkStateError, err)
		log.Warn(LogMsgHandshakeFailed, "platform", sess.Platform, "error", err)
		return snapshot, err
	}

	if result.Status == gateway.ConnectStatusConnected {
		// Already linked upstream: starting goes straight to connected
		snapshot := s.finish(ctx, key, sess, domain.LinkStateConnected, nil)
		log.Info(LogMsgAlreadyLinked, "platform", sess.Platform, "user_id", sess.UserID)
		return snapshot, nil
	}

	expiresAt := time.Now().Add(s.codeTTL)
	s.mu.Lock()
	sess.Code = result.Code
	sess.SessionID = result.SessionID
	sess.ExpiresAt = expiresAt
	sess.State = domain.LinkStateCodeReady
	snapshot := *sess
	s.mu.Unlock()
	s.persist(ctx, snapshot)
	s.publishStatus(ctx, snapshot)

	log.Info(LogMsgCodeIssued, "platform", sess.Platform, "expires_at", expiresAt)

	stream := s.mux.Open(ctx, key, observe.StreamConfig{
		PollInterval: s.pollInterval,
		Poll:         s.pollStatus(sess.Platform),
	})

	// The confirmation loop outlives the starting caller: a consumer going
	// away must not cancel the handshake for everyone else
	go s.confirm(context.WithoutCancel(ctx), key, sess, stream, expiresAt)

	return snapshot, nil
}

// confirm watches the merged stream until a terminal signal or expiry.
// The expiry timer always wins: observations landing after expiresAt are
// discarded even if they report success.
func (s *service) confirm(ctx context.Context, key string, sess *domain.LinkSession, stream *observe.Stream, expiresAt time.Time) {
	log := logger.FromContext(ctx)

	s.mu.Lock()
	sess.State = domain.LinkStateConfirming
	snapshot := *sess
	s.mu.Unlock()
	s.persist(ctx, snapshot)
	s.publishStatus(ctx, snapshot)

	timer := time.NewTimer(time.Until(expiresAt))
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			s.finish(ctx, key, sess, domain.LinkStateExpired,
				domain.NewClassifiedError(domain.KindHandshakeExpired, domain.ErrHandshakeExpired))
			log.Info(LogMsgHandshakeExpired, "platform", sess.Platform, "user_id", sess.UserID)
			return

		case obs, ok := <-stream.Out():
			if !ok {
				return
			}
			if time.Now().After(expiresAt) {
				log.Debug(LogMsgStaleObservation, "key", key, "status", obs.Status)
				s.finish(ctx, key, sess, domain.LinkStateExpired,
					domain.NewClassifiedError(domain.KindHandshakeExpired, domain.ErrHandshakeExpired))
				return
			}

			switch obs.Status {
			case ObservationConnected:
				s.finish(ctx, key, sess, domain.LinkStateConnected, nil)
				log.Info(LogMsgHandshakeConnected, "platform", sess.Platform, "user_id", sess.UserID)
				return

			case ObservationError:
				s.finish(ctx, key, sess, domain.LinkStateError,
					fmt.Errorf("handshake rejected: %v", obs.Payload))
				log.Warn(LogMsgHandshakeFailed, "platform", sess.Platform)
				return

			case ObservationCode:
				if code, ok := obs.Payload.(string); ok && code != "" {
					s.mu.Lock()
					sess.Code = code
					snapshot := *sess
					s.mu.Unlock()
					s.persist(ctx, snapshot)
					s.publishStatus(ctx, snapshot)
				}
			}
		}
	}
}

// finish moves the session to a terminal state, resolves every waiter with
// the identical outcome, and tears down the key's stream.
func (s *service) finish(ctx context.Context, key string, sess *domain.LinkSession, state string, cause error) domain.LinkSession {
	s.mu.Lock()
	if sess.Terminal() {
		snapshot := *sess
		s.mu.Unlock()
		return snapshot
	}
	sess.State = state
	if cause != nil {
		sess.LastError = cause.Error()
	}
	snapshot := *sess
	s.mu.Unlock()

	out := operation.Outcome{Value: snapshot, Err: cause}
	switch state {
	case domain.LinkStateConnected:
		out.Status = operation.StatusSucceeded
	case domain.LinkStateExpired:
		out.Status = operation.StatusExpired
	default:
		out.Status = operation.StatusFailed
	}
	if err := s.registry.Complete(ctx, key, out); err != nil {
		logger.FromContext(ctx).Debug(LogMsgHandshakeFailed, "key", key, "error", err)
	}
	s.registry.Release(key)
	s.mux.Close(key)

	s.persist(ctx, snapshot)
	s.publishStatus(ctx, snapshot)
	if state == domain.LinkStateConnected && s.bus != nil {
		if err := s.bus.Publish(ctx, event.NewLinkConnectedEvent(snapshot.Platform, snapshot.UserID)); err != nil {
			logger.FromContext(ctx).Warn(LogMsgEventPublishFailed, "error", err)
		}
	}
	metrics.RecordHandshakeOutcome(snapshot.Platform, state)
	return snapshot
}

// pollStatus builds the poll function for one platform's status endpoint
func (s *service) pollStatus(platform string) observe.PollFunc {
	return func(ctx context.Context) (observe.Observation, error) {
		result, err := s.client.LinkStatus(ctx, platform)
		if err != nil {
			return observe.Observation{}, err
		}
		status := ObservationPending
		if result.Status == gateway.LinkStatusActive {
			status = ObservationConnected
		}
		metrics.RecordObservation(string(observe.SourcePoll))
		return observe.Observation{Status: status}, nil
	}
}

func (s *service) persist(ctx context.Context, snapshot domain.LinkSession) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveSession(ctx, &snapshot); err != nil {
		logger.FromContext(ctx).Warn(LogMsgPersistFailed,
			"platform", snapshot.Platform, "user_id", snapshot.UserID, "error", err)
	}
}

func (s *service) publishStatus(ctx context.Context, snapshot domain.LinkSession) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event.NewLinkStatusEvent(snapshot.Platform, snapshot.State, snapshot.Code)); err != nil {
		logger.FromContext(ctx).Warn(LogMsgEventPublishFailed, "error", err)
	}
}

// sessionOutcome converts an attempt outcome back into the caller-facing
// (session, error) pair.
func sessionOutcome(out operation.Outcome) (domain.LinkSession, error) {
	sess, _ := out.Value.(domain.LinkSession)
	return sess, out.Err
}
