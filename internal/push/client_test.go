package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saikiran76/dailyfix-core/internal/event"
)

type recordedSignal struct {
	platform, userID, state, code string
}

type stubSink struct {
	mu      sync.Mutex
	signals []recordedSignal
	got     chan struct{}
}

func newStubSink() *stubSink {
	return &stubSink{got: make(chan struct{}, 16)}
}

func (s *stubSink) IngestPush(ctx context.Context, platform, userID, state, code string) {
	s.mu.Lock()
	s.signals = append(s.signals, recordedSignal{platform, userID, state, code})
	s.mu.Unlock()
	s.got <- struct{}{}
}

func (s *stubSink) all() []recordedSignal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedSignal(nil), s.signals...)
}

func staticTokens(token string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) { return token, nil }
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{URL: "ws://localhost:1/"}, nil, nil, nil)

	assert.Equal(t, DefaultReconnectDelay, c.cfg.ReconnectDelay)
	assert.Equal(t, DefaultMaxReconnectDelay, c.cfg.MaxReconnectDelay)
	assert.Equal(t, DefaultMaxConsecutiveFailures, c.cfg.MaxConsecutiveFailures)
	assert.Equal(t, 1, cap(c.wakeup))
	assert.False(t, c.IsDormant())
	assert.False(t, c.IsConnected())
}

func TestWakeup_WhenDormant(t *testing.T) {
	c := NewClient(Config{URL: "ws://localhost:1/"}, nil, nil, nil)

	c.mu.Lock()
	c.dormant = true
	c.mu.Unlock()

	c.Wakeup()

	select {
	case <-c.wakeup:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected wakeup signal")
	}
}

func TestWakeup_NoOpWhenAwake(t *testing.T) {
	c := NewClient(Config{URL: "ws://localhost:1/"}, nil, nil, nil)

	c.Wakeup()

	select {
	case <-c.wakeup:
		t.Fatal("wakeup signal sent while not dormant")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestClient_ReceivesLinkSignals(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		_ = conn.WriteJSON(Message{Event: EventLinkStatus, Data: json.RawMessage(`{"platform":"whatsapp","state":"pending","code":"QR-2"}`)})
		_ = conn.WriteJSON(Message{Event: EventLinkConnected, Data: json.RawMessage(`{"platform":"whatsapp"}`)})
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	sink := newStubSink()
	c := NewClient(Config{URL: wsURL(srv), UserID: "u-1"}, staticTokens("at-1"), sink, nil)
	c.Start(context.Background())
	defer c.Stop()

	for i := 0; i < 2; i++ {
		select {
		case <-sink.got:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for push signal")
		}
	}

	signals := sink.all()
	require.Len(t, signals, 2)
	assert.Equal(t, recordedSignal{"whatsapp", "u-1", "pending", "QR-2"}, signals[0])
	assert.Equal(t, recordedSignal{"whatsapp", "u-1", "connected", ""}, signals[1])
}

func TestClient_PublishesConnectionState(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	bus := event.NewMemoryBus()
	states := make(chan bool, 8)
	bus.Subscribe(event.PushConnectionState, func(ctx context.Context, evt event.Event) error {
		payload, err := event.DecodePayload[event.PushConnectionStatePayloadV1](evt.Payload)
		if err != nil {
			return err
		}
		states <- payload.Connected
		return nil
	})

	c := NewClient(Config{URL: wsURL(srv)}, nil, nil, bus)
	c.Start(context.Background())
	defer c.Stop()

	select {
	case connected := <-states:
		assert.True(t, connected)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connection state event")
	}
}

func TestHandleMessage_MalformedDropped(t *testing.T) {
	sink := newStubSink()
	c := NewClient(Config{URL: "ws://localhost:1/"}, nil, sink, nil)

	c.handleMessage(context.Background(), []byte("not json"))
	c.handleMessage(context.Background(), []byte(`{"event":"link.status","data":"not an object"}`))
	c.handleMessage(context.Background(), []byte(`{"event":"something.else","data":{}}`))

	assert.Empty(t, sink.all())
}
