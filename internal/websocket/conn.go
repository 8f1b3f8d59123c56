package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/handmade-storefront/pkg/logger"
)

// Limits of one cart feed connection. The browser only ever sends a
// tiny sync request, so inbound frames are kept small.
const (
	writeTimeout   = 10 * time.Second
	silenceTimeout = 60 * time.Second
	keepAlive      = silenceTimeout * 9 / 10
	maxInboundSize = 512
)

// Conn wraps a gorilla websocket connection
type Conn struct {
	*websocket.Conn
}

// Serve runs the cart feed of c until the browser goes away. It blocks
// on the inbound side and sends from its own goroutine.
func (c *Client) Serve() {
	go c.sendLoop()
	c.receiveLoop()
}

func (c *Client) receiveLoop() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	extend := func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(silenceTimeout))
	}
	c.Conn.SetReadLimit(maxInboundSize)
	extend("")
	c.Conn.SetPongHandler(extend)

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Cart feed closed unexpectedly", map[string]interface{}{
					"cart_session": c.SessionID,
					"error":        err.Error(),
				})
			}
			return
		}
		c.Hub.HandleClientMessage(c, data)
	}
}

// sendLoop drains Send. A closed Send means the hub dropped the client.
func (c *Client) sendLoop() {
	keepalive := time.NewTicker(keepAlive)
	defer func() {
		keepalive.Stop()
		c.Conn.Close()
	}()

	for {
		var err error
		select {
		case frame, open := <-c.Send:
			if !open {
				c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			err = c.write(websocket.TextMessage, frame)
		case <-keepalive.C:
			err = c.write(websocket.PingMessage, nil)
		}
		if err != nil {
			logger.Debug("Cart feed write failed", map[string]interface{}{
				"cart_session": c.SessionID,
				"error":        err.Error(),
			})
			return
		}
	}
}

func (c *Client) write(kind int, data []byte) error {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(kind, data)
}
