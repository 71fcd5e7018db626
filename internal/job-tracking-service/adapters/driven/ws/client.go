package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"mechanic-setu/internal/config"
	websocketdto "mechanic-setu/internal/job-tracking-service/core/domain/websocket_dto"
	"mechanic-setu/internal/job-tracking-service/core/ports/driven"
	"mechanic-setu/internal/mylogger"
)

// TokenSource provides the short-lived connection token.
type TokenSource interface {
	FetchWSToken(ctx context.Context) (string, error)
}

// Client owns the one live connection for the authenticated session.
// State machine: disconnected -> connecting -> connected -> disconnected,
// with error reachable from connecting or an abnormal close. On an
// abnormal close exactly one reconnect attempt runs after the configured
// backoff; a user-initiated Close never reconnects.
type Client struct {
	cfg    *config.WebSocketconfig
	tokens TokenSource
	notify driven.Notifier
	logger mylogger.Logger

	mu              sync.Mutex
	conn            *websocket.Conn
	status          driven.ConnStatus
	token           string
	events          chan websocketdto.Event
	last            *websocketdto.Event
	pending         []byte
	closed          bool
	reconnectBudget int
	reconnectTimer  *time.Timer
	writeMu         sync.Mutex
}

func NewClient(cfg *config.WebSocketconfig, tokens TokenSource, notify driven.Notifier, l mylogger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		tokens: tokens,
		notify: notify,
		logger: l.Action("websocket"),
		status: driven.ConnDisconnected,
		events: make(chan websocketdto.Event, 32),
	}
}

func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("connection already closed")
	}
	if c.status == driven.ConnConnected || c.status == driven.ConnConnecting {
		c.mu.Unlock()
		return nil
	}
	c.status = driven.ConnConnecting
	token := c.token
	c.mu.Unlock()
	c.notify.ConnStatus(driven.ConnConnecting)

	if !tokenFresh(token) {
		fetched, err := c.tokens.FetchWSToken(ctx)
		if err != nil {
			c.fail()
			c.notify.Error("Failed to establish real-time connection.")
			return fmt.Errorf("fetching connection token: %w", err)
		}
		token = fetched
		c.mu.Lock()
		c.token = token
		c.mu.Unlock()
	}

	u := url.URL{
		Scheme:   c.cfg.Scheme,
		Host:     c.cfg.Host,
		Path:     c.cfg.Path,
		RawQuery: url.Values{"token": {token}}.Encode(),
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		c.fail()
		c.notify.Error("A real-time connection error occurred.")
		return fmt.Errorf("connecting to %s: %w", u.String(), err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return fmt.Errorf("connection already closed")
	}
	c.conn = conn
	c.status = driven.ConnConnected
	c.reconnectBudget = 1
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	c.logger.Info("connected", "url", u.Redacted())
	c.notify.ConnStatus(driven.ConnConnected)

	if pending != nil {
		if err := c.writeRaw(pending); err != nil {
			c.logger.Error("flushing pending message", err)
		}
	}

	go c.readPump(conn)
	return nil
}

// Send marshals and transmits one command. When not connected the
// message is held as the single pending command and flushed on the next
// successful connect.
func (c *Client) Send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	c.mu.Lock()
	if c.status != driven.ConnConnected || c.conn == nil {
		c.pending = data
		c.mu.Unlock()
		c.logger.Debug("queued message while disconnected")
		return nil
	}
	c.mu.Unlock()

	return c.writeRaw(data)
}

func (c *Client) writeRaw(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	return nil
}

func (c *Client) Events() <-chan websocketdto.Event {
	return c.events
}

func (c *Client) LastMessage() *websocketdto.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *Client) Status() driven.ConnStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Close releases the connection with a normal closure. Must be called
// exactly once by the owning context; after it no reconnect runs.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.status = driven.ConnDisconnected
	conn := c.conn
	c.conn = nil
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.mu.Unlock()

	c.notify.ConnStatus(driven.ConnDisconnected)
	if conn == nil {
		return nil
	}
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"), deadline)
	return conn.Close()
}

func (c *Client) readPump(conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(conn, err)
			return
		}

		ev, decodeErr := websocketdto.Decode(payload)
		if decodeErr != nil {
			// Malformed frames are dropped, never propagated.
			c.logger.Error("dropping inbound message", decodeErr)
			continue
		}

		c.mu.Lock()
		c.last = &ev
		c.mu.Unlock()

		select {
		case c.events <- ev:
		default:
			c.logger.Warn("event buffer full, dropping", "type", ev.Type)
		}
	}
}

func (c *Client) handleClose(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.closed || c.conn != conn {
		// User-initiated close or an already superseded connection.
		c.mu.Unlock()
		return
	}
	c.conn = nil

	normal := websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
	if normal {
		c.status = driven.ConnDisconnected
		c.mu.Unlock()
		c.logger.Info("connection closed")
		c.notify.ConnStatus(driven.ConnDisconnected)
		return
	}

	c.status = driven.ConnError
	canRetry := c.reconnectBudget > 0
	if canRetry {
		c.reconnectBudget--
	}
	c.mu.Unlock()

	c.logger.Error("connection lost", err)
	c.notify.Error("Real-time connection lost.")
	c.notify.ConnStatus(driven.ConnError)

	if !canRetry {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.status = driven.ConnDisconnected
	c.reconnectTimer = time.AfterFunc(c.cfg.ReconnectBackoff, func() {
		if err := c.Connect(context.Background()); err != nil {
			c.logger.Error("reconnect attempt failed", err)
		}
	})
	c.mu.Unlock()
}

func (c *Client) fail() {
	c.mu.Lock()
	c.status = driven.ConnError
	c.mu.Unlock()
	c.notify.ConnStatus(driven.ConnError)
}
