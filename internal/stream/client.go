package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/coder/websocket"

	"github.com/muselabs/aria/internal/api"
	"github.com/muselabs/aria/internal/notify"
	"github.com/muselabs/aria/internal/state"
)

// Connection lifecycle. Teardown is only reachable from Connecting and Open;
// once Closing is entered no reconnect timer may fire.
type connState int

const (
	stateIdle connState = iota
	stateConnecting
	stateOpen
	stateClosing
)

const (
	// DefaultBackoffBase is the reconnect delay after the first
	// unexpected close.
	DefaultBackoffBase = 3 * time.Second
	// DefaultBackoffCeiling caps the reconnect delay.
	DefaultBackoffCeiling = 30 * time.Second
)

// Conn is the minimal websocket surface the client consumes; satisfied by
// *websocket.Conn through wsConn and by fakes in tests.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	CloseNow() error
}

// Dialer opens one push connection. The session token travels in the URL
// query; the transport does not support custom headers.
type Dialer func(ctx context.Context, url string) (Conn, error)

// DefaultDialer dials with coder/websocket.
func DefaultDialer(ctx context.Context, url string) (Conn, error) {
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{})
	if err != nil {
		return nil, err
	}
	return wsConn{c}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (w wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := w.conn.Read(ctx)
	return data, err
}

func (w wsConn) CloseNow() error {
	return w.conn.CloseNow()
}

// Config wires a Client.
type Config struct {
	// URL is the events endpoint with the token embedded; empty disables
	// the client entirely (no connection attempt, no backoff state).
	URL     string
	Dialer  Dialer
	Store   *state.Store
	Tracker *notify.Tracker
	Logger  *log.Logger

	BackoffBase    time.Duration
	BackoffCeiling time.Duration
}

// Client maintains one push connection to the daemon's event stream,
// applying entity deltas to the shared cache and reconnecting with
// exponential backoff on unexpected closes.
type Client struct {
	url     string
	dial    Dialer
	store   *state.Store
	tracker *notify.Tracker
	logger  *log.Logger

	mu    sync.Mutex
	st    connState
	conn  Conn
	timer *time.Timer
	retry *backoff.ExponentialBackOff
}

// New builds a Client. Call Connect to open the connection.
func New(cfg Config) *Client {
	dial := cfg.Dialer
	if dial == nil {
		dial = DefaultDialer
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	base := cfg.BackoffBase
	if base <= 0 {
		base = DefaultBackoffBase
	}
	ceiling := cfg.BackoffCeiling
	if ceiling <= 0 {
		ceiling = DefaultBackoffCeiling
	}
	return &Client{
		url:     cfg.URL,
		dial:    dial,
		store:   cfg.Store,
		tracker: cfg.Tracker,
		logger:  logger.With("component", "stream"),
		st:      stateIdle,
		retry:   newReconnectBackoff(base, ceiling),
	}
}

// newReconnectBackoff builds the deterministic doubling schedule: base,
// 2*base, ... capped at ceiling, never giving up.
func newReconnectBackoff(base, ceiling time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.MaxInterval = ceiling
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Connect opens the push connection. It is a no-op when no token was
// available (empty URL) or when the client is already running.
func (c *Client) Connect(ctx context.Context) {
	if c.url == "" {
		return
	}
	c.mu.Lock()
	if c.st != stateIdle {
		c.mu.Unlock()
		return
	}
	c.st = stateConnecting
	c.retry.Reset()
	c.mu.Unlock()

	go c.dialAndRead(ctx)
}

// Close tears the client down intentionally: the pending reconnect timer is
// stopped and the state machine enters Closing before the socket is closed,
// so a reconnect can never race the shutdown.
func (c *Client) Close() {
	c.mu.Lock()
	c.st = stateClosing
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.CloseNow()
	}
}

func (c *Client) dialAndRead(ctx context.Context) {
	conn, err := c.dial(ctx, c.url)

	c.mu.Lock()
	if c.st == stateClosing {
		c.mu.Unlock()
		if err == nil {
			_ = conn.CloseNow()
		}
		return
	}
	if err != nil {
		c.mu.Unlock()
		c.logger.Debug("dial failed", "err", err)
		c.scheduleReconnect(ctx)
		return
	}
	c.conn = conn
	c.st = stateOpen
	c.retry.Reset()
	c.mu.Unlock()

	c.logger.Info("event stream connected")
	c.readLoop(ctx, conn)
}

func (c *Client) readLoop(ctx context.Context, conn Conn) {
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			c.mu.Lock()
			closing := c.st == stateClosing
			if !closing {
				c.st = stateConnecting
				c.conn = nil
			}
			c.mu.Unlock()

			if closing || ctx.Err() != nil {
				return
			}
			_ = conn.CloseNow()
			c.logger.Debug("event stream closed", "err", err)
			c.scheduleReconnect(ctx)
			return
		}
		c.handleMessage(data)
	}
}

func (c *Client) scheduleReconnect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st == stateClosing {
		return
	}
	// Consume a backoff step only once the reconnect is actually armed; a
	// teardown racing in here must not advance the schedule.
	delay := c.retry.NextBackOff()
	c.st = stateConnecting
	c.logger.Debug("reconnecting", "delay", delay)
	c.timer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		if c.st != stateConnecting {
			c.mu.Unlock()
			return
		}
		c.timer = nil
		c.mu.Unlock()
		c.dialAndRead(ctx)
	})
}

// envelope is the tagged inbound message format.
type envelope struct {
	Type   string          `json:"type"`
	Entity json.RawMessage `json:"entity,omitempty"`
	Stats  *api.Stats      `json:"stats,omitempty"`
}

// handleMessage applies one frame. Malformed frames are dropped without
// error: one bad frame must not kill a healthy connection.
func (c *Client) handleMessage(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.Debug("dropping malformed frame", "err", err)
		return
	}

	switch env.Type {
	case "entity_update":
		var delta api.DownloadDelta
		if err := json.Unmarshal(env.Entity, &delta); err != nil || delta.ID == 0 {
			c.logger.Debug("dropping malformed entity update")
			return
		}
		merged := c.store.MergeDownload(delta)
		if delta.Status != nil && api.DownloadTerminal(*delta.Status) {
			c.store.InvalidateStats()
		}
		if merged && c.tracker != nil {
			if d, ok := c.store.FindDownload(delta.ID); ok {
				c.tracker.Observe([]notify.Observation{{ID: d.ID, Name: d.Label(), Status: d.Status}})
			}
		}

	case "stats_update":
		if env.Stats != nil {
			c.store.ReplaceStats(*env.Stats)
		}

	default:
		// Unknown message types are dropped silently.
	}
}
