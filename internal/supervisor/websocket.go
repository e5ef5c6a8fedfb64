package supervisor

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
)

// WebsocketDialer opens notification channel transports over websocket.
type WebsocketDialer struct{}

func (WebsocketDialer) Dial(ctx context.Context, uri string) (Conn, error) {
	c, _, err := websocket.DefaultDialer.DialContext(ctx, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", uri, err)
	}
	return wsConn{c}, nil
}

type wsConn struct {
	c *websocket.Conn
}

func (w wsConn) ReadMessage() ([]byte, error) {
	_, data, err := w.c.ReadMessage()
	return data, err
}

func (w wsConn) WriteMessage(data []byte) error {
	return w.c.WriteMessage(websocket.TextMessage, data)
}

func (w wsConn) Close() error {
	return w.c.Close()
}
