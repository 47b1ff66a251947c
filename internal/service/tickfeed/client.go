package tickfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"CascadeWatch/internal/domain/models"
	drepo "CascadeWatch/internal/domain/repository"
)

const (
	readDeadline  = 30 * time.Second
	writeDeadline = 5 * time.Second
	maxBackoff    = 30 * time.Second
)

var _ drepo.TickStream = (*Client)(nil)

// Client is a TickStream over a websocket feed of normalized ticks.
//
// Frames: {"type":"tick","data":[{symbol, liq_notional, ret_1s, oi, ret_side_matches_liq, ts}]}.
// Subscriptions: {"type":"subscribe","symbol":"BTCUSDT"}.
type Client struct {
	url            string
	token          string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	connMu  sync.RWMutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	symMu      sync.Mutex
	subscribed map[string]struct{}
}

func New(feedURL, token string, reconnectDelay, pingInterval time.Duration) *Client {
	if reconnectDelay <= 0 {
		reconnectDelay = time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 15 * time.Second
	}
	return &Client{
		url:            feedURL,
		token:          token,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		subscribed:     make(map[string]struct{}),
	}
}

func (c *Client) dialURL() (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", fmt.Errorf("parse feed url: %w", err)
	}
	if c.token != "" {
		q := u.Query()
		q.Set("token", c.token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) Connect(ctx context.Context) error {
	u, err := c.dialURL()
	if err != nil {
		return err
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("tickfeed connect: %w", err)
	}

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	log.Printf("tickfeed: connected to %s", c.url)
	return nil
}

func (c *Client) current() *websocket.Conn {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn
}

func (c *Client) write(conn *websocket.Conn, messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteMessage(messageType, data)
}

// Subscribe asks the feed for symbols and remembers them for reconnects.
func (c *Client) Subscribe(ctx context.Context, symbols []string) error {
	conn := c.current()
	if conn == nil {
		return fmt.Errorf("tickfeed not connected")
	}
	for _, s := range symbols {
		b, _ := json.Marshal(map[string]string{"type": "subscribe", "symbol": s})
		if err := c.write(conn, websocket.TextMessage, b); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
		c.symMu.Lock()
		c.subscribed[s] = struct{}{}
		c.symMu.Unlock()
	}
	return nil
}

func (c *Client) subscriptions() []string {
	c.symMu.Lock()
	defer c.symMu.Unlock()
	out := make([]string, 0, len(c.subscribed))
	for s := range c.subscribed {
		out = append(out, s)
	}
	return out
}

type frame struct {
	Type string        `json:"type"`
	Data []models.Tick `json:"data"`
}

// Read streams ticks until ctx is done. Read failures are reported on the
// error channel (dropped if nobody is listening) and the client reconnects
// with backoff on its own.
func (c *Client) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	ticks := make(chan *models.Tick, 1024)
	errs := make(chan error, 1)

	go c.pingLoop(ctx)

	go func() {
		defer close(ticks)
		defer close(errs)

		backoff := c.reconnectDelay
		for ctx.Err() == nil {
			err := c.readConn(ctx, ticks)
			if ctx.Err() != nil {
				return
			}
			select {
			case errs <- err:
			default:
			}

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			if rerr := c.Reconnect(ctx); rerr != nil {
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
			backoff = c.reconnectDelay
		}
	}()

	return ticks, errs
}

func (c *Client) readConn(ctx context.Context, out chan<- *models.Tick) error {
	conn := c.current()
	if conn == nil {
		return fmt.Errorf("tickfeed conn nil")
	}
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("tickfeed read: %w", err)
		}
		var f frame
		if err := json.Unmarshal(b, &f); err != nil || f.Type != "tick" {
			continue
		}
		for i := range f.Data {
			t := f.Data[i]
			select {
			case out <- &t:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if conn := c.current(); conn != nil {
				_ = c.write(conn, websocket.PingMessage, nil)
			}
		}
	}
}

// Reconnect closes the current connection, dials again and restores subscriptions.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx, c.subscriptions())
}

func (c *Client) Close() error {
	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) IsConnected() bool { return c.current() != nil }
