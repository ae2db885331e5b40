// Package transport maintains the websocket link to the backend
// agent. It delivers raw inbound frames to the session's intake
// channel and sends encoded user intents the other way.
//
// The transport never interprets frames; decoding and all state
// belongs to the session. Its only job is the link: dial, read,
// write, reconnect with backoff.
package transport

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Iron-Ham/sidecar/internal/errors"
	"github.com/Iron-Ham/sidecar/internal/event"
	"github.com/Iron-Ham/sidecar/internal/logging"
)

// Options configures a Client.
type Options struct {
	URL              string        // Backend websocket endpoint (ws:// or wss://)
	HandshakeTimeout time.Duration // Dial handshake bound; 0 means 5s
	ReconnectInitial time.Duration // First reconnect delay; 0 means 500ms
	ReconnectMax     time.Duration // Backoff cap; 0 means 30s
	Logger           *logging.Logger
	Bus              *event.Bus // Receives connection.changed events; may be nil
}

// Client is a reconnecting websocket client. Inbound frames are
// delivered on Frames in arrival order; Send is safe to call from any
// goroutine and fails fast while disconnected.
type Client struct {
	opts   Options
	frames chan []byte

	mu   sync.Mutex
	conn *websocket.Conn

	log *logging.Logger
}

// NewClient creates a Client. Run must be called before frames flow.
func NewClient(opts Options) *Client {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 5 * time.Second
	}
	if opts.ReconnectInitial <= 0 {
		opts.ReconnectInitial = 500 * time.Millisecond
	}
	if opts.ReconnectMax <= 0 {
		opts.ReconnectMax = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Client{
		opts:   opts,
		frames: make(chan []byte, 64),
		log:    logger,
	}
}

// Frames returns the channel of raw inbound frames. Closed when Run
// returns.
func (c *Client) Frames() <-chan []byte {
	return c.frames
}

// Run dials the backend and pumps inbound frames until the context is
// cancelled. Dropped connections are redialed with exponential
// backoff; frames lost while disconnected are gone (the backend
// re-reports current status on reconnect).
func (c *Client) Run(ctx context.Context) {
	defer close(c.frames)

	delay := c.opts.ReconnectInitial
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			c.notify(false, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay = min(delay*2, c.opts.ReconnectMax)
			continue
		}

		delay = c.opts.ReconnectInitial
		c.setConn(conn)
		c.notify(true, nil)

		// ReadMessage only returns when the connection breaks, so
		// cancellation has to break it.
		readDone := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				conn.Close()
			case <-readDone:
			}
		}()

		err = c.readLoop(ctx, conn)
		close(readDone)
		c.setConn(nil)
		conn.Close()
		if ctx.Err() != nil {
			return
		}
		c.notify(false, err)
		c.log.Warn("connection lost, reconnecting", "url", c.opts.URL, "error", err)
	}
}

// Send delivers one encoded payload to the backend. Returns
// errors.ErrNotConnected while the link is down so callers can keep
// the user's intent re-offerable instead of silently dropping it.
func (c *Client) Send(payload []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return errors.ErrNotConnected
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return errors.NewTransportError("write frame", err).WithURL(c.opts.URL)
	}
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.opts.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		return nil, errors.NewTransportError("dial backend", err).WithURL(c.opts.URL)
	}
	return conn, nil
}

// readLoop pumps inbound frames until the connection breaks or the
// context is cancelled.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errors.ErrConnectionClosed
			}
			return errors.NewTransportError("read frame", err).WithURL(c.opts.URL)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c.frames <- data:
		}
	}
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) notify(connected bool, err error) {
	if c.opts.Bus == nil {
		return
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	c.opts.Bus.Publish(event.NewConnectionChangedEvent(connected, msg))
}
