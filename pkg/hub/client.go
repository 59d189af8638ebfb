package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	// writeWait is how long to wait for a write to complete
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong response
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds what a client may send; dashboards only
	// send control frames.
	maxMessageSize = 4 * 1024
)

// Client is a single websocket subscriber.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan Message
	topics map[string]bool // nil means every topic
}

// NewClient creates a client for conn subscribed to topics (all topics
// when none are given).
func NewClient(hub *Hub, conn *websocket.Conn, topics ...string) *Client {
	var set map[string]bool
	if len(topics) > 0 {
		set = make(map[string]bool, len(topics))
		for _, t := range topics {
			set[t] = true
		}
	}
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan Message, 256),
		topics: set,
	}
}

func (c *Client) wants(topic string) bool {
	return c.topics == nil || topic == "" || c.topics[topic]
}

// Run registers the client and serves it until the connection closes.
// It should be called from the websocket handler.
func (c *Client) Run() {
	if !c.hub.join(c) {
		c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		c.conn.Close()
		return
	}
	go c.writePump()
	c.readPump()
}

// readPump discards client input; it exists to notice disconnects and
// to receive pongs.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only writer on the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			wsType := websocket.TextMessage
			if message.Type == BinaryMessage {
				wsType = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(wsType, message.Data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
