package observe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/saikiran76/dailyfix-core/internal/logger"
)

// Source identifies which channel produced an observation
type Source string

const (
	SourcePoll Source = "poll"
	SourcePush Source = "push"
)

// Observation is one de-duplicated reading about an operation key, regardless
// of which channel it arrived on.
type Observation struct {
	Key      string
	Source   Source
	Status   string
	Progress int
	Payload  interface{}
	At       time.Time
	// Repeats counts consecutive observations carrying the same fact,
	// including this one. Consumers use it for plateau detection.
	Repeats int
}

// fingerprint identifies the fact an observation carries, ignoring its origin
// and arrival time. A push and a poll reporting the same fact in the same
// instant share a fingerprint.
func (o Observation) fingerprint() string {
	return fmt.Sprintf("%s|%s|%d", o.Key, o.Status, o.Progress)
}

// PollFunc fetches the current state of the watched operation. Returning an
// error skips the tick; the poll loop keeps running.
type PollFunc func(ctx context.Context) (Observation, error)

// StreamConfig configures one merged stream
type StreamConfig struct {
	PollInterval time.Duration // 0 disables the poll loop (push-only stream)
	Poll         PollFunc
	DedupTTL     time.Duration // window in which a repeated fingerprint is a duplicate
	Buffer       int           // output channel capacity
}

// Stream merges a pull source and a push source for one operation key into a
// single ordered output. Observations arriving after Close are discarded.
type Stream struct {
	key  string
	cfg  StreamConfig
	out  chan Observation
	seen *expirable.LRU[string, time.Time]

	mu      sync.Mutex
	lastFp  string
	repeats int
	closed  bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Multiplexer owns the per-key streams. One instance serves every
// coordinator; streams for distinct keys never interact.
type Multiplexer struct {
	mu      sync.Mutex
	streams map[string]*Stream
}

// NewMultiplexer creates an empty multiplexer
func NewMultiplexer() *Multiplexer {
	return &Multiplexer{streams: make(map[string]*Stream)}
}

// Open creates the merged stream for key, starting its poll loop when one is
// configured. Opening a key that already has a live stream returns the
// existing stream: the second consumer attaches, it does not fork.
func (m *Multiplexer) Open(ctx context.Context, key string, cfg StreamConfig) *Stream {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.streams[key]; ok && !s.isClosed() {
		return s
	}

	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = DefaultDedupTTL
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultStreamBuffer
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	s := &Stream{
		key:    key,
		cfg:    cfg,
		out:    make(chan Observation, cfg.Buffer),
		seen:   expirable.NewLRU[string, time.Time](DedupCacheSize, nil, cfg.DedupTTL),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.streams[key] = s

	if cfg.PollInterval > 0 && cfg.Poll != nil {
		go s.pollLoop(streamCtx)
	} else {
		close(s.done)
	}

	logger.FromContext(ctx).Debug(LogMsgStreamOpened, "key", key, "poll_interval", cfg.PollInterval)
	return s
}

// Lookup returns the live stream for key, if any
func (m *Multiplexer) Lookup(key string) (*Stream, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.streams[key]
	if !ok || s.isClosed() {
		return nil, false
	}
	return s, true
}

// Close tears down the stream for key. Closing one key never affects others.
func (m *Multiplexer) Close(key string) {
	m.mu.Lock()
	s, ok := m.streams[key]
	if ok {
		delete(m.streams, key)
	}
	m.mu.Unlock()
	if ok {
		s.close()
	}
}

// Out is the merged, ordered, de-duplicated observation channel
func (s *Stream) Out() <-chan Observation {
	return s.out
}

// Ingest feeds a push-channel observation into the stream. Safe to call from
// bus handlers; duplicates and post-close observations are dropped.
func (s *Stream) Ingest(obs Observation) {
	obs.Source = SourcePush
	s.deliver(obs)
}

func (s *Stream) pollLoop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			obs, err := s.cfg.Poll(ctx)
			if err != nil {
				logger.Debug(LogMsgPollSkipped, "key", s.key, "error", err)
				continue
			}
			obs.Source = SourcePoll
			s.deliver(obs)
		}
	}
}

// deliver applies de-duplication and plateau accounting, then forwards the
// observation in arrival order. The stream mutex serializes deliveries from
// the poll loop and push handlers so ordering is wall-clock arrival order.
func (s *Stream) deliver(obs Observation) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	obs.Key = s.key
	if obs.At.IsZero() {
		obs.At = time.Now()
	}

	fp := obs.fingerprint()
	if _, dup := s.seen.Get(fp); dup {
		// Same fact already delivered within the dedup window; a push and a
		// poll agreeing in the same instant must produce one transition.
		s.mu.Unlock()
		return
	}
	s.seen.Add(fp, obs.At)

	if fp == s.lastFp {
		s.repeats++
	} else {
		s.lastFp = fp
		s.repeats = 1
	}
	obs.Repeats = s.repeats

	out := s.out
	s.mu.Unlock()

	select {
	case out <- obs:
	default:
		// Consumer fell behind; dropping is preferable to blocking the push
		// handler or poll loop for an unbounded time.
		logger.Warn(LogMsgObservationDropped, "key", obs.Key, "status", obs.Status)
	}
}

func (s *Stream) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	<-s.done
	close(s.out)
}

func (s *Stream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
