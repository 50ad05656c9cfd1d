package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mtzanidakis/skopos/internal/wire"
)

// SocketTransport dials the websocket endpoint. It is the only transport
// that supports the outbound control vocabulary.
type SocketTransport struct {
	URL    string
	Header http.Header
	Dialer *websocket.Dialer
}

func NewSocketTransport(url string) *SocketTransport {
	return &SocketTransport{URL: url}
}

func (t *SocketTransport) Connect(ctx context.Context) (Conn, error) {
	dialer := t.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, t.URL, t.Header)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return &socketConn{conn: conn}, nil
}

type socketConn struct {
	conn *websocket.Conn
}

func (c *socketConn) Recv() ([]wire.Frame, error) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			return nil, err
		}
		if f, ok := wire.DecodeSocketMessage(data); ok {
			return []wire.Frame{f}, nil
		}
	}
}

func (c *socketConn) Send(v any) error {
	return c.conn.WriteJSON(v)
}

func (c *socketConn) Close() error {
	return c.conn.Close()
}
