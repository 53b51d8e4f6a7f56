package ws

import "sync"

// Hub is the connection registry mapping user id to the user's single
// active connection. It is an explicit, injectable object so multiple
// server instances and tests run in isolation. At most one connection per
// user: a later join for the same id overwrites the entry
// (last-connected-wins; no multi-device fan-out).
type Hub struct {
	mu    sync.RWMutex
	conns map[uint]*Client
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uint]*Client)}
}

// Join registers c as the user's connection, displacing any previous one.
// The displaced connection's send channel is closed so its writer winds
// down.
func (h *Hub) Join(userID uint, c *Client) {
	h.mu.Lock()
	prev := h.conns[userID]
	h.conns[userID] = c
	h.mu.Unlock()

	if prev != nil && prev != c {
		prev.close()
	}
}

// Disconnect removes every registry entry whose connection handle equals
// c. Reverse lookup by handle, since the user id is not known a priori at
// disconnect time.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conn := range h.conns {
		if conn.id == c.id {
			delete(h.conns, userID)
		}
	}
}

// Get returns the user's active connection, if any.
func (h *Hub) Get(userID uint) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[userID]
	return c, ok
}

// Count reports the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
