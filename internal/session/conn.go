package session

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coder/websocket"

	"github.com/Guliveer/twitch-eventsub-go/internal/constants"
)

// Conn is one WebSocket connection as the Manager sees it.
type Conn interface {
	// Read returns the next text message.
	Read(ctx context.Context) ([]byte, error)
	// Close performs the closing handshake with a normal closure status.
	Close(reason string) error
	// CloseNow drops the connection without a handshake.
	CloseNow() error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WSDialer is the production Dialer.
type WSDialer struct {
	HTTPClient *http.Client
	Header     http.Header
	// ReadLimit defaults to constants.WebSocketReadLimit.
	ReadLimit int64
}

// Dial implements Dialer.
func (d WSDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPClient: d.HTTPClient,
		HTTPHeader: d.Header,
	})
	if err != nil {
		return nil, fmt.Errorf("dialing EventSub server: %w", err)
	}

	limit := d.ReadLimit
	if limit <= 0 {
		limit = constants.WebSocketReadLimit
	}
	conn.SetReadLimit(limit)

	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Read(ctx context.Context) ([]byte, error) {
	typ, data, err := c.conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	if typ != websocket.MessageText {
		return nil, fmt.Errorf("%w: binary message", ErrUnexpectedFrame)
	}
	return data, nil
}

func (c *wsConn) Close(reason string) error {
	return c.conn.Close(websocket.StatusNormalClosure, reason)
}

func (c *wsConn) CloseNow() error {
	return c.conn.CloseNow()
}
