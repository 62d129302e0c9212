package websocket

import (
	"net/http"
	"time"

	gws "github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

// BearerSubprotocol is offered by browser consoles ahead of their token,
// as in new WebSocket(url, ["bearer", token]). The server echoes only
// this name back, never the token.
const BearerSubprotocol = "bearer"

// Client is one connected console. The hub owns send and closes it when
// the client is dropped.
type Client struct {
	hub    *Hub
	conn   *gws.Conn
	send   chan []byte
	remote string
}

var upgrader = gws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	Subprotocols:    []string{BearerSubprotocol},
	// Origin is already checked by the CORS unit and the caller is an
	// authenticated admin by the time the upgrade runs.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeWS upgrades the request and registers the connection. On failure
// the upgrader has already written the HTTP error.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		remote: conn.RemoteAddr().String(),
	}
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()
	return nil
}

// readPump discards inbound frames; it exists to process control frames
// and notice when the peer goes away.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(gws.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(gws.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(gws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
