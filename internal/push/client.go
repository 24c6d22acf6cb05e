package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/saikiran76/dailyfix-core/internal/event"
	"github.com/saikiran76/dailyfix-core/internal/gateway"
	"github.com/saikiran76/dailyfix-core/internal/logger"
	"github.com/saikiran76/dailyfix-core/internal/metrics"
)

// LinkSink receives link-handshake signals from the push channel.
// Implemented by the link service; signals flow into its multiplexer streams.
type LinkSink interface {
	IngestPush(ctx context.Context, platform, userID, state, code string)
}

// Message is one frame pushed by the backend
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type linkStatusData struct {
	Platform string `json:"platform"`
	State    string `json:"state"`
	Code     string `json:"code,omitempty"`
}

type linkConnectedData struct {
	Platform string `json:"platform"`
}

// Config tunes the push client. Zero values fall back to defaults.
type Config struct {
	URL                    string
	UserID                 string
	ReconnectDelay         time.Duration
	MaxReconnectDelay      time.Duration
	MaxConsecutiveFailures int
}

// Client maintains the WebSocket push channel to the backend with
// auto-reconnect. After too many consecutive failures it goes dormant and
// waits for a wakeup instead of hammering a dead endpoint.
type Client struct {
	cfg    Config
	tokens gateway.TokenSource
	sink   LinkSink
	bus    event.Bus

	conn     *websocket.Conn
	mu       sync.RWMutex
	shutdown chan struct{}
	wg       sync.WaitGroup

	connected bool
	dormant   bool

	wakeup chan struct{}
}

// NewClient creates a new push channel client
func NewClient(cfg Config, tokens gateway.TokenSource, sink LinkSink, bus event.Bus) *Client {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.MaxReconnectDelay <= 0 {
		cfg.MaxReconnectDelay = DefaultMaxReconnectDelay
	}
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = DefaultMaxConsecutiveFailures
	}
	return &Client{
		cfg:      cfg,
		tokens:   tokens,
		sink:     sink,
		bus:      bus,
		shutdown: make(chan struct{}),
		wakeup:   make(chan struct{}, 1), // Buffered to avoid blocking
	}
}

// Start begins the connection loop with auto-reconnect
func (c *Client) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.connectLoop(ctx)
}

// Stop gracefully shuts down the client
func (c *Client) Stop() {
	close(c.shutdown)
	c.wg.Wait()

	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.mu.Unlock()
}

// IsConnected returns whether the client currently holds a live connection
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// IsDormant returns whether the client gave up reconnecting
func (c *Client) IsDormant() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dormant
}

// Wakeup asks a dormant client to try connecting again. Called when a fresh
// operation (a handshake start, a sync kick-off) needs push coverage.
func (c *Client) Wakeup() {
	if !c.IsDormant() {
		return
	}
	logger.Debug(LogMsgDormantWakeup)
	select {
	case c.wakeup <- struct{}{}:
	default:
		// Already waking up
	}
}

func (c *Client) connectLoop(ctx context.Context) {
	defer c.wg.Done()

	backoff := c.cfg.ReconnectDelay
	consecutiveFailures := 0

	for {
		select {
		case <-c.shutdown:
			logger.Info(LogMsgClientStopped)
			return
		case <-ctx.Done():
			logger.Info(LogMsgClientStopped)
			return
		default:
		}

		err := c.connect(ctx)
		if err != nil {
			consecutiveFailures++
			c.setConnected(ctx, false)

			if consecutiveFailures >= c.cfg.MaxConsecutiveFailures {
				if stop := c.handleDormantMode(ctx, &consecutiveFailures, &backoff); stop {
					return
				}
				continue
			}

			// Log the first few failures and then periodically, not every one
			if consecutiveFailures <= 3 || consecutiveFailures%100 == 0 {
				logger.Warn(LogMsgReconnecting,
					"error", err,
					"backoff", backoff,
					"consecutive_failures", consecutiveFailures)
			}
			metrics.RecordPushReconnect()

			select {
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * ReconnectMultiplier)
				if backoff > c.cfg.MaxReconnectDelay {
					backoff = c.cfg.MaxReconnectDelay
				}
			case <-c.shutdown:
				return
			case <-ctx.Done():
				return
			}
		} else {
			if consecutiveFailures > 0 {
				logger.Info(LogMsgConnectionRestore, "after_failures", consecutiveFailures)
			}
			backoff = c.cfg.ReconnectDelay
			consecutiveFailures = 0
			c.mu.Lock()
			c.dormant = false
			c.mu.Unlock()
		}
	}
}

// handleDormantMode parks the client after too many failures and waits for a
// wakeup signal
func (c *Client) handleDormantMode(ctx context.Context, consecutiveFailures *int, backoff *time.Duration) bool {
	c.mu.Lock()
	c.dormant = true
	c.mu.Unlock()

	logger.Warn(LogMsgGivingUp,
		"consecutive_failures", *consecutiveFailures,
		"max_allowed", c.cfg.MaxConsecutiveFailures)

	select {
	case <-c.wakeup:
		logger.Info(LogMsgWakingUp)
		c.mu.Lock()
		c.dormant = false
		c.mu.Unlock()
		*backoff = c.cfg.ReconnectDelay
		*consecutiveFailures = 0
		return false
	case <-c.shutdown:
		return true
	case <-ctx.Done():
		return true
	}
}

func (c *Client) connect(ctx context.Context) error {
	logger.Info(LogMsgConnecting, "url", c.cfg.URL)

	header := http.Header{}
	if c.tokens != nil {
		token, err := c.tokens(ctx)
		if err != nil {
			logger.Warn(LogMsgTokenUnavailable, "error", err)
			return fmt.Errorf("failed to obtain access token: %w", err)
		}
		header.Set("Authorization", "Bearer "+token)
	}

	dialer := websocket.Dialer{
		ReadBufferSize:  ReadBufferSize,
		WriteBufferSize: WriteBufferSize,
	}

	conn, resp, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to connect: %w (status: %s)", err, resp.Status)
		}
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.setConnected(ctx, true)
	logger.Info(LogMsgConnected, "url", c.cfg.URL)

	return c.readLoop(ctx)
}

func (c *Client) readLoop(ctx context.Context) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	for {
		select {
		case <-c.shutdown:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			logger.Warn(LogMsgConnectionLost, "error", err)
			return err
		}

		c.handleMessage(ctx, raw)
	}
}

// handleMessage routes one pushed frame to the right sink. Unparseable or
// unknown frames are dropped, never fatal.
func (c *Client) handleMessage(ctx context.Context, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Debug(LogMsgMalformedEvent, "error", err)
		return
	}

	switch msg.Event {
	case EventLinkStatus:
		var data linkStatusData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			logger.Debug(LogMsgMalformedEvent, "event", msg.Event, "error", err)
			return
		}
		if c.sink != nil {
			c.sink.IngestPush(ctx, data.Platform, c.cfg.UserID, data.State, data.Code)
		}

	case EventLinkConnected:
		var data linkConnectedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			logger.Debug(LogMsgMalformedEvent, "event", msg.Event, "error", err)
			return
		}
		if c.sink != nil {
			c.sink.IngestPush(ctx, data.Platform, c.cfg.UserID, "connected", "")
		}

	default:
		logger.Debug(LogMsgUnknownEvent, "event", msg.Event)
	}
}

func (c *Client) setConnected(ctx context.Context, connected bool) {
	c.mu.Lock()
	changed := c.connected != connected
	c.connected = connected
	c.mu.Unlock()

	metrics.SetPushConnected(connected)
	if changed && c.bus != nil {
		_ = c.bus.Publish(ctx, event.NewPushConnectionStateEvent(connected))
	}
}
