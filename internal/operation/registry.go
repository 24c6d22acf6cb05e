package operation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saikiran76/dailyfix-core/internal/domain"
	"github.com/saikiran76/dailyfix-core/internal/logger"
)

// Status represents the lifecycle state of an attempt
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
)

// Outcome is what every waiter attached to the same handle receives.
// All waiters for one attempt observe the identical outcome.
type Outcome struct {
	Status Status
	Value  interface{}
	Err    error
}

// Handle is the in-flight attempt for one operation key.
// Concurrent callers for the same key attach to the same handle instead of
// starting a second attempt.
type Handle struct {
	Key          string
	AttemptID    string
	StartedAt    time.Time
	AttemptCount int

	mu      sync.Mutex
	status  Status
	outcome Outcome
	waiters []chan Outcome
}

// Status returns the current lifecycle state of the handle
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Terminal reports whether the handle left the pending state
func (h *Handle) Terminal() bool {
	return h.Status() != StatusPending
}

// Wait blocks until the attempt reaches a terminal state or ctx is cancelled.
// Cancelling a waiter's context detaches that waiter only; the attempt itself
// keeps running for everyone else.
func (h *Handle) Wait(ctx context.Context) (Outcome, error) {
	h.mu.Lock()
	if h.status != StatusPending {
		out := h.outcome
		h.mu.Unlock()
		return out, nil
	}
	// Buffered so completion never blocks on a slow waiter
	ch := make(chan Outcome, 1)
	h.waiters = append(h.waiters, ch)
	h.mu.Unlock()

	select {
	case out := <-ch:
		return out, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// complete transitions the handle to a terminal state and notifies waiters
// in attachment order. Completing an already-terminal handle is a no-op.
func (h *Handle) complete(out Outcome) bool {
	h.mu.Lock()
	if h.status != StatusPending {
		h.mu.Unlock()
		return false
	}
	h.status = out.Status
	h.outcome = out
	waiters := h.waiters
	h.waiters = nil
	h.mu.Unlock()

	for _, ch := range waiters {
		ch <- out
	}
	return true
}

// Registry is the process-wide single-flight map from operation key to the
// in-flight attempt. It is keyed by logical operation identity, never by
// caller identity, so a consumer going away cannot cancel an attempt another
// consumer is still attached to.
type Registry struct {
	mu       sync.Mutex
	handles  map[string]*Handle
	attempts map[string]int // attempts started per key since the last Forget
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		handles:  make(map[string]*Handle),
		attempts: make(map[string]int),
	}
}

// Begin returns the handle for key, creating one when no live handle exists.
// The second return value reports whether this call created the handle and
// therefore owns driving the underlying side effect. A terminal handle still
// sitting in the registry is replaced, never reused.
func (r *Registry) Begin(key string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[key]; ok {
		h.mu.Lock()
		pending := h.status == StatusPending
		h.mu.Unlock()
		if pending {
			return h, false
		}
	}

	r.attempts[key]++
	h := &Handle{
		Key:          key,
		AttemptID:    uuid.NewString(),
		StartedAt:    time.Now(),
		AttemptCount: r.attempts[key],
		status:       StatusPending,
	}
	r.handles[key] = h
	return h, true
}

// Lookup returns the live handle for key, if any
func (r *Registry) Lookup(key string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[key]
	return h, ok
}

// Complete resolves the attempt for key: every waiter receives the same
// outcome (fan-out, not fan-in). Returns domain.ErrOperationNotFound when no
// handle exists for the key.
func (r *Registry) Complete(ctx context.Context, key string, out Outcome) error {
	r.mu.Lock()
	h, ok := r.handles[key]
	r.mu.Unlock()
	if !ok {
		return domain.ErrOperationNotFound
	}

	if h.complete(out) {
		logger.FromContext(ctx).Debug(LogMsgOperationCompleted,
			"key", key, "status", string(out.Status), "attempt_id", h.AttemptID)
	}
	return nil
}

// Release removes a terminal handle from the registry. Pending handles are
// left alone: releasing an attempt that has not finished would break the
// single-flight invariant for late joiners.
func (r *Registry) Release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[key]
	if !ok {
		return
	}
	h.mu.Lock()
	terminal := h.status != StatusPending
	h.mu.Unlock()
	if terminal {
		delete(r.handles, key)
	}
}

// Forget clears the per-key attempt counter. Called when a coordinator starts
// a fresh logical session for the key (e.g. a brand-new handshake).
func (r *Registry) Forget(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, key)
}

// PruneTerminal removes every terminal handle still in the registry and
// returns how many were removed. Run periodically by the cleanup worker.
func (r *Registry) PruneTerminal() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	pruned := 0
	for key, h := range r.handles {
		h.mu.Lock()
		terminal := h.status != StatusPending
		h.mu.Unlock()
		if terminal {
			delete(r.handles, key)
			pruned++
		}
	}
	return pruned
}

// Len returns the number of handles currently registered
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
