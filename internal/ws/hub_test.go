package ws

import (
	"testing"

	"github.com/google/uuid"
)

func testClient() *Client {
	return &Client{id: uuid.NewString(), send: make(chan Event, 8)}
}

func TestHubJoinAndGet(t *testing.T) {
	h := NewHub()
	c := testClient()

	h.Join(7, c)
	got, ok := h.Get(7)
	if !ok || got != c {
		t.Fatal("expected registered connection for user 7")
	}
	if _, ok := h.Get(8); ok {
		t.Error("unexpected connection for user 8")
	}
}

func TestHubLastConnectWins(t *testing.T) {
	h := NewHub()
	first := testClient()
	second := testClient()

	h.Join(7, first)
	h.Join(7, second)

	got, ok := h.Get(7)
	if !ok || got != second {
		t.Fatal("later join must overwrite the registry entry")
	}
	if h.Count() != 1 {
		t.Errorf("expected 1 registered connection, got %d", h.Count())
	}

	// The displaced connection's send channel is closed.
	if _, open := <-first.send; open {
		t.Error("displaced connection's send channel should be closed")
	}
}

func TestHubDisconnectByHandle(t *testing.T) {
	h := NewHub()
	a := testClient()
	b := testClient()
	h.Join(1, a)
	h.Join(2, b)

	h.Disconnect(a)

	if _, ok := h.Get(1); ok {
		t.Error("disconnected handle should be removed")
	}
	if got, ok := h.Get(2); !ok || got != b {
		t.Error("unrelated connection must survive a disconnect")
	}
}

func TestHubDisconnectStaleHandleIsNoOp(t *testing.T) {
	h := NewHub()
	old := testClient()
	replacement := testClient()
	h.Join(1, old)
	h.Join(1, replacement)

	// The displaced connection disconnects later; the replacement's
	// registration must not be removed.
	h.Disconnect(old)

	if got, ok := h.Get(1); !ok || got != replacement {
		t.Error("stale disconnect removed the live registration")
	}
}
