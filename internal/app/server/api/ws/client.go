package ws

import (
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"
)

const maxMessageSize = 512

// Client одно websocket подключение устройства
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	groupID  string
	deviceID string
	send     chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn, groupID, deviceID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		groupID:  groupID,
		deviceID: deviceID,
		send:     make(chan []byte, sendBuffer),
	}
}

// readPump читает только control frames, входящие сообщения игнорируются
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.hub.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.config.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket read failed",
					slog.String("device_id", c.deviceID),
					slog.String("error", err.Error()),
				)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
