package protocol

import (
	"context"
	"errors"
	log "log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

var ErrNotConnected = errors.New("not connected")

// Client keeps a websocket open to url. Whenever the connection fails or
// closes it waits a fixed delay and dials again, forever.
type Client struct {
	url    string
	reconn time.Duration
	dialer *ws.Dialer

	mu   sync.Mutex
	conn *ws.Conn

	// OnState is called on every connect and disconnect.
	OnState func(connected bool, err error)
}

func NewClient(url string, reconn time.Duration) *Client {
	if reconn <= 0 {
		reconn = 5 * time.Second
	}
	return &Client{
		url:    url,
		reconn: reconn,
		dialer: ws.DefaultDialer,
	}
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Run dials and reads until ctx is done, passing every valid frame to
// handle.
func (c *Client) Run(ctx context.Context, handle func(*Message)) {
	for {
		err := c.session(ctx, handle)
		if ctx.Err() != nil {
			return
		}

		log.Warn("Connection lost, retrying", "url", c.url, "in", c.reconn, "err", err)
		c.notify(false, err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconn):
		}
	}
}

func (c *Client) session(ctx context.Context, handle func(*Message)) error {
	log.Debug("Dialing", "url", c.url)
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.notify(true, nil)

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		msg, err := Parse(data)
		if err != nil {
			log.Warn("Failed to parse", "msg", string(data), "err", err)
			continue
		}
		handle(msg)
	}
}

func (c *Client) Send(m Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	data, err := m.Encode()
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(ws.TextMessage, data)
}

func (c *Client) notify(connected bool, err error) {
	if c.OnState != nil {
		c.OnState(connected, err)
	}
}

// IsClosed reports whether err is a normal websocket shutdown.
func IsClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
