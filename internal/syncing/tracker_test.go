package syncing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saikiran76/dailyfix-core/internal/domain"
	"github.com/saikiran76/dailyfix-core/internal/event"
	"github.com/saikiran76/dailyfix-core/internal/gateway"
	"github.com/saikiran76/dailyfix-core/internal/observe"
	"github.com/saikiran76/dailyfix-core/internal/operation"
)

type stubSyncBackend struct {
	mu          sync.Mutex
	statusCalls int
	metaCalls   int
	statusFn    func(call int) (*gateway.SyncStatusResult, error)
	metaFn      func(call int) (*gateway.ContactsMeta, error)
}

func (b *stubSyncBackend) SyncStatus(ctx context.Context, requestID string) (*gateway.SyncStatusResult, error) {
	b.mu.Lock()
	b.statusCalls++
	call := b.statusCalls
	b.mu.Unlock()
	return b.statusFn(call)
}

func (b *stubSyncBackend) FetchContactsMeta(ctx context.Context) (*gateway.ContactsMeta, error) {
	b.mu.Lock()
	b.metaCalls++
	call := b.metaCalls
	b.mu.Unlock()
	if b.metaFn == nil {
		meta := &gateway.ContactsMeta{}
		meta.Meta.SyncInfo.IsRunning = true
		return meta, nil
	}
	return b.metaFn(call)
}

func (b *stubSyncBackend) statuses() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusCalls
}

func runningStatus(progress int) (*gateway.SyncStatusResult, error) {
	return &gateway.SyncStatusResult{Progress: progress, IsRunning: true}, nil
}

func newTestTracker(t *testing.T, backend BackendClient, cfg Config) (Service, *event.MemoryBus) {
	t.Helper()
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 10 * time.Millisecond
	}
	bus := event.NewMemoryBus()
	svc := NewService(backend, operation.NewRegistry(), observe.NewMultiplexer(), bus, cfg)
	return svc, bus
}

func TestTrack_CompletesWhenBackendFinishes(t *testing.T) {
	backend := &stubSyncBackend{statusFn: func(call int) (*gateway.SyncStatusResult, error) {
		switch call {
		case 1:
			return runningStatus(40)
		case 2:
			return runningStatus(80)
		default:
			return &gateway.SyncStatusResult{Progress: 100, IsRunning: false}, nil
		}
	}}
	svc, _ := newTestTracker(t, backend, Config{})

	job, err := svc.Track(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStateCompleted, job.State)
	assert.Equal(t, 100, job.Progress)
}

func TestTrack_StuckProgressForcesCompleted(t *testing.T) {
	backend := &stubSyncBackend{statusFn: func(call int) (*gateway.SyncStatusResult, error) {
		return runningStatus(10)
	}}
	svc, _ := newTestTracker(t, backend, Config{})

	job, err := svc.Track(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStateCompleted, job.State)
	assert.Equal(t, 10, job.Progress)
	assert.GreaterOrEqual(t, job.ObservedStuckCount, DefaultStuckThreshold)
	// Forced on the fifth identical reading, not at the poll budget
	assert.LessOrEqual(t, backend.statuses(), DefaultStuckThreshold+1)
}

func TestTrack_CrossCheckOverridesPrimary(t *testing.T) {
	backend := &stubSyncBackend{
		statusFn: func(call int) (*gateway.SyncStatusResult, error) {
			// Primary keeps claiming progress
			return runningStatus(call * 10)
		},
		metaFn: func(call int) (*gateway.ContactsMeta, error) {
			meta := &gateway.ContactsMeta{}
			meta.Meta.SyncInfo.IsRunning = false
			return meta, nil
		},
	}
	svc, _ := newTestTracker(t, backend, Config{})

	job, err := svc.Track(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStateCompleted, job.State)
	// The secondary source won on the first cross-check
	assert.LessOrEqual(t, backend.statuses(), CrossCheckEvery+1)
}

func TestTrack_ConsecutiveErrorsForceTimeout(t *testing.T) {
	backend := &stubSyncBackend{statusFn: func(call int) (*gateway.SyncStatusResult, error) {
		return nil, errors.New("poll failed")
	}}
	svc, _ := newTestTracker(t, backend, Config{})

	job, err := svc.Track(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStateCompletedTimeout, job.State)
	assert.LessOrEqual(t, backend.statuses(), MaxConsecutiveErrors+1)
}

func TestTrack_PollBudgetForcesTimeout(t *testing.T) {
	backend := &stubSyncBackend{statusFn: func(call int) (*gateway.SyncStatusResult, error) {
		// Alternating readings: never stuck, never done
		return runningStatus(10 + call%2)
	}}
	svc, _ := newTestTracker(t, backend, Config{MaxPolls: 4})

	job, err := svc.Track(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStateCompletedTimeout, job.State)
	assert.LessOrEqual(t, backend.statuses(), 5)
}

func TestTrack_CeilingForcesTimeout(t *testing.T) {
	backend := &stubSyncBackend{statusFn: func(call int) (*gateway.SyncStatusResult, error) {
		return runningStatus(call)
	}}
	svc, _ := newTestTracker(t, backend, Config{MaxPolls: 1000, Ceiling: 50 * time.Millisecond})

	job, err := svc.Track(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStateCompletedTimeout, job.State)
}

func TestTrack_ConcurrentCallersShareOneLoop(t *testing.T) {
	backend := &stubSyncBackend{statusFn: func(call int) (*gateway.SyncStatusResult, error) {
		if call < 3 {
			return runningStatus(50)
		}
		return &gateway.SyncStatusResult{Progress: 100, IsRunning: false}, nil
	}}
	svc, _ := newTestTracker(t, backend, Config{})

	const callers = 5
	var wg sync.WaitGroup
	jobs := make([]domain.SyncJob, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			jobs[n], errs[n] = svc.Track(context.Background(), "req-1")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, backend.statuses())
	for i := 0; i < callers; i++ {
		assert.NoError(t, errs[i])
		assert.Equal(t, domain.SyncStateCompleted, jobs[i].State)
		assert.Equal(t, 100, jobs[i].Progress)
	}
}

func TestTrack_PublishesProgressEvents(t *testing.T) {
	backend := &stubSyncBackend{statusFn: func(call int) (*gateway.SyncStatusResult, error) {
		if call == 1 {
			return runningStatus(30)
		}
		return &gateway.SyncStatusResult{Progress: 100, IsRunning: false}, nil
	}}
	svc, bus := newTestTracker(t, backend, Config{})

	var mu sync.Mutex
	var progresses []int
	bus.Subscribe(event.SyncProgress, func(ctx context.Context, evt event.Event) error {
		payload, err := event.DecodePayload[event.SyncProgressPayloadV1](evt.Payload)
		if err != nil {
			return err
		}
		mu.Lock()
		progresses = append(progresses, payload.Progress)
		mu.Unlock()
		return nil
	})

	job, err := svc.Track(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStateCompleted, job.State)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, progresses)
	assert.Equal(t, 100, progresses[len(progresses)-1])
}

func TestStatus_UnknownRequest(t *testing.T) {
	svc, _ := newTestTracker(t, &stubSyncBackend{statusFn: func(int) (*gateway.SyncStatusResult, error) {
		return runningStatus(0)
	}}, Config{})

	_, err := svc.Status(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSyncNotFound)
}

func TestTrack_EmptyRequestID(t *testing.T) {
	svc, _ := newTestTracker(t, &stubSyncBackend{}, Config{})

	_, err := svc.Track(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
