package ws

import (
	"fmt"
	"log/slog"

	"github.com/gorilla/websocket"
)

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// readPump only watches for the connection closing; the push channel
// is one-way.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteJSON(message); err != nil {
			slog.Error(fmt.Errorf("websocket write json: %w", err).Error())
			return
		}
	}
}
