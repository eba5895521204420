// Package stream implements the feedproc.LiveFeed port over a WebSocket
// connection to the live whale-transaction feed.
//
// The feed pushes JSON envelopes of the form
//
//	{"event": "newTransaction", "payload": {"type": "allWhaleTransactions", "data": {...}}}
//
// Envelopes with any other event name or payload type share the channel with
// unrelated feeds and are ignored here.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/whalefeed/whalefeed/internal/feed"
	"github.com/whalefeed/whalefeed/internal/feedproc"
	"github.com/whalefeed/whalefeed/internal/pkg/logger"
	"github.com/whalefeed/whalefeed/internal/pkg/resilience/retry"
	"github.com/whalefeed/whalefeed/internal/pkg/x/chflow"

	"github.com/gorilla/websocket"
)

const (
	// eventNewTransaction is the envelope event carrying feed transactions.
	eventNewTransaction = "newTransaction"

	// payloadAllWhaleTransactions is the only payload type this client consumes.
	payloadAllWhaleTransactions = "allWhaleTransactions"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultPingInterval     = 30 * time.Second
	defaultReadTimeout      = 60 * time.Second
	defaultWriteTimeout     = 10 * time.Second
	defaultEventBuffer      = 256
)

// ErrAlreadySubscribed is returned if Subscribe is called twice on the same client.
var ErrAlreadySubscribed = errors.New("live feed already subscribed")

// envelope is the outer wire message of the feed.
type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// transactionPayload is the payload of a newTransaction envelope.
type transactionPayload struct {
	Type string           `json:"type"`
	Data feed.Transaction `json:"data"`
}

type client struct {
	endpoint string

	handshakeTimeout time.Duration
	pingInterval     time.Duration
	readTimeout      time.Duration
	writeTimeout     time.Duration
	eventBuffer      int

	reconnect retry.Retry

	connMu sync.Mutex
	conn   *websocket.Conn

	mu         sync.Mutex
	subscribed bool
	done       chan struct{}
	wg         sync.WaitGroup
}

// Compile-time assertion that client implements the feedproc.LiveFeed interface.
var _ feedproc.LiveFeed = (*client)(nil)

// Option defines a functional option for configuring the feed client.
type Option func(*client)

// WithHandshakeTimeout sets the WebSocket dial handshake timeout. Default: 10s.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *client) {
		c.handshakeTimeout = d
	}
}

// WithPingInterval sets the interval between keepalive ping frames. Default: 30s.
func WithPingInterval(d time.Duration) Option {
	return func(c *client) {
		c.pingInterval = d
	}
}

// WithReadTimeout sets the per-message read deadline. Default: 60s.
func WithReadTimeout(d time.Duration) Option {
	return func(c *client) {
		c.readTimeout = d
	}
}

// WithWriteTimeout sets the per-message write deadline. Default: 10s.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *client) {
		c.writeTimeout = d
	}
}

// WithReconnect sets the retry policy used to re-establish a dropped
// connection. Default: 3 attempts with exponential backoff.
func WithReconnect(r retry.Retry) Option {
	return func(c *client) {
		c.reconnect = r
	}
}

// NewClient creates a live feed client for the given WebSocket endpoint.
// The connection is not established until Subscribe.
func NewClient(endpoint string, opts ...Option) *client {
	c := &client{
		endpoint:         endpoint,
		handshakeTimeout: defaultHandshakeTimeout,
		pingInterval:     defaultPingInterval,
		readTimeout:      defaultReadTimeout,
		writeTimeout:     defaultWriteTimeout,
		eventBuffer:      defaultEventBuffer,
		reconnect:        retry.New(),
		done:             make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe implements feedproc.LiveFeed. It dials the feed, starts the read
// and keepalive loops, and returns the delivery channel. The channel is closed
// when the client shuts down or the connection cannot be re-established.
func (c *client) Subscribe(ctx context.Context) (<-chan feed.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subscribed {
		return nil, ErrAlreadySubscribed
	}

	if err := c.dial(ctx); err != nil {
		return nil, err
	}

	events := make(chan feed.Transaction, c.eventBuffer)

	c.wg.Add(2)
	go c.readLoop(ctx, events)
	go c.pingLoop()

	c.subscribed = true
	return events, nil
}

// Close implements feedproc.LiveFeed. Safe to call multiple times.
func (c *client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.subscribed {
		return
	}
	c.subscribed = false

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		deadline := time.Now().Add(c.writeTimeout)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	c.wg.Wait()
}

// dial establishes the WebSocket connection, replacing any previous one.
func (c *client) dial(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.handshakeTimeout,
	}

	conn, res, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return err
	}
	if res != nil && res.Body != nil {
		_ = res.Body.Close()
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return nil
}

func (c *client) currentConn() *websocket.Conn {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn
}

func (c *client) isDone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// readLoop reads envelopes until shutdown. A read failure triggers a
// reconnect with backoff; if that fails, the delivery channel is closed and
// the loop exits.
func (c *client) readLoop(ctx context.Context, events chan<- feed.Transaction) {
	defer c.wg.Done()
	defer close(events)

	for {
		conn := c.currentConn()
		if conn == nil {
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.isDone() || ctx.Err() != nil {
				return
			}

			logger.Warn(ctx, "live feed connection dropped, reconnecting", "error", err)
			if err := c.reconnect.Execute(ctx, func() error { return c.dial(ctx) }); err != nil {
				logger.Error(ctx, "live feed reconnect failed", "error", err)
				return
			}
			continue
		}

		tx, ok := c.decode(ctx, message)
		if !ok {
			continue
		}

		if ok := chflow.Send(ctx, events, tx); !ok {
			return
		}
	}
}

// decode extracts a transaction from a raw envelope. Unknown events and
// payload types are skipped, as are malformed frames.
func (c *client) decode(ctx context.Context, message []byte) (feed.Transaction, bool) {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		logger.Warn(ctx, "discarding malformed feed frame", "error", err)
		return feed.Transaction{}, false
	}

	if env.Event != eventNewTransaction {
		return feed.Transaction{}, false
	}

	var payload transactionPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		logger.Warn(ctx, "discarding malformed feed payload", "error", err)
		return feed.Transaction{}, false
	}

	if payload.Type != payloadAllWhaleTransactions {
		return feed.Transaction{}, false
	}

	return payload.Data, true
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (c *client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			conn := c.currentConn()
			if conn == nil {
				return
			}

			deadline := time.Now().Add(c.writeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				// The read loop notices the dead connection and reconnects.
				continue
			}
		}
	}
}
