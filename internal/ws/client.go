package ws

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is one live relay connection
type Client struct {
	// id is the connection handle; disconnect removes registry entries
	// by handle equality, since the user id is not known at that point.
	id string

	conn *websocket.Conn

	// Buffered channel of outbound events
	send chan Event

	closeOnce sync.Once
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Event, 256),
	}
}

// enqueue offers an event to the connection's send buffer. A full buffer
// drops the event; the durable store remains the source of truth.
func (c *Client) enqueue(ev Event) bool {
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func (c *Client) writer() {
	for ev := range c.send {
		if err := c.conn.WriteJSON(ev); err != nil {
			break
		}
	}
	c.conn.Close()
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}
