package stream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/whalefeed/whalefeed/internal/feed"
	"github.com/whalefeed/whalefeed/internal/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Initialize logger for tests to prevent nil pointer dereference
	_ = logger.Init("error")
}

// feedServer is a test WebSocket endpoint that pushes pre-scripted frames.
type feedServer struct {
	srv    *httptest.Server
	frames chan string
}

func newFeedServer(t *testing.T) *feedServer {
	t.Helper()

	fs := &feedServer{frames: make(chan string, 16)}

	upgrader := websocket.Upgrader{}
	fs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for frame := range fs.frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(fs.srv.Close)
	t.Cleanup(func() { close(fs.frames) })

	return fs
}

func (fs *feedServer) url() string {
	return "ws" + strings.TrimPrefix(fs.srv.URL, "http")
}

func receiveOne(t *testing.T, events <-chan feed.Transaction) feed.Transaction {
	t.Helper()
	select {
	case tx, ok := <-events:
		require.True(t, ok, "channel closed before delivery")
		return tx
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return feed.Transaction{}
	}
}

func TestClient_Subscribe(t *testing.T) {
	t.Run("delivers whale transactions from newTransaction envelopes", func(t *testing.T) {
		fs := newFeedServer(t)
		c := NewClient(fs.url())
		t.Cleanup(c.Close)

		events, err := c.Subscribe(t.Context())
		require.NoError(t, err)

		fs.frames <- `{
			"event": "newTransaction",
			"payload": {
				"type": "allWhaleTransactions",
				"data": {"id": "tx1", "signature": "sig1", "type": "buy", "buyAmount": 1500}
			}
		}`

		tx := receiveOne(t, events)
		assert.Equal(t, "tx1", tx.ID)
		assert.Equal(t, "sig1", tx.Signature)
		assert.Equal(t, feed.SideBuy, tx.Type)
	})

	t.Run("ignores other events and payload types", func(t *testing.T) {
		fs := newFeedServer(t)
		c := NewClient(fs.url())
		t.Cleanup(c.Close)

		events, err := c.Subscribe(t.Context())
		require.NoError(t, err)

		fs.frames <- `{"event": "priceUpdate", "payload": {"type": "prices", "data": {}}}`
		fs.frames <- `{"event": "newTransaction", "payload": {"type": "tokenLaunches", "data": {"id": "skip"}}}`
		fs.frames <- `not even json`
		fs.frames <- `{
			"event": "newTransaction",
			"payload": {"type": "allWhaleTransactions", "data": {"id": "tx2", "signature": "sig2"}}
		}`

		tx := receiveOne(t, events)
		assert.Equal(t, "tx2", tx.ID, "unrelated frames skipped")
	})

	t.Run("second subscribe fails", func(t *testing.T) {
		fs := newFeedServer(t)
		c := NewClient(fs.url())
		t.Cleanup(c.Close)

		_, err := c.Subscribe(t.Context())
		require.NoError(t, err)

		_, err = c.Subscribe(t.Context())
		assert.ErrorIs(t, err, ErrAlreadySubscribed)
	})

	t.Run("dial failure surfaces immediately", func(t *testing.T) {
		c := NewClient("ws://127.0.0.1:1/feed", WithHandshakeTimeout(100*time.Millisecond))

		_, err := c.Subscribe(t.Context())

		assert.Error(t, err)
	})

	t.Run("close stops delivery and closes the channel", func(t *testing.T) {
		fs := newFeedServer(t)
		c := NewClient(fs.url())

		events, err := c.Subscribe(t.Context())
		require.NoError(t, err)

		c.Close()

		select {
		case _, ok := <-events:
			assert.False(t, ok, "channel must be closed")
		case <-time.After(2 * time.Second):
			t.Fatal("channel not closed after Close")
		}
	})
}
