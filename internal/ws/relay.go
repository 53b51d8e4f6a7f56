package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/ecobin-app/backend/internal/repositories"
)

// Relay dispatches realtime events between connected clients. Persistence
// always goes through the same MessageRepository the HTTP routes use; the
// realtime path is best-effort acceleration on top of the durable store.
type Relay struct {
	hub   *Hub
	store repositories.MessageRepository
}

func NewRelay(hub *Hub, store repositories.MessageRepository) *Relay {
	return &Relay{hub: hub, store: store}
}

// HandleConnection runs the read loop for a connection until it drops,
// then removes it from the registry.
func (r *Relay) HandleConnection(c *Client) {
	defer func() {
		r.hub.Disconnect(c)
		c.close()
		c.conn.Close()
	}()

	for {
		var ev Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			return
		}
		r.handleEvent(context.Background(), c, ev)
	}
}

func (r *Relay) handleEvent(ctx context.Context, c *Client, ev Event) {
	switch ev.Event {
	case EventJoin:
		r.handleJoin(c, ev.Data)
	case EventSendMessage:
		r.handleSend(ctx, c, ev.Data)
	case EventMarkSeen:
		r.handleSeen(ctx, c, ev.Data)
	default:
		log.Printf("Ignoring unknown realtime event %q", ev.Event)
	}
}

func (r *Relay) handleJoin(c *Client, data json.RawMessage) {
	var p JoinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.UserID == 0 {
		r.sendError(c, "join requires a userId")
		return
	}
	r.hub.Join(p.UserID, c)
}

// handleSend persists the message first (durability precedes fan-out),
// then forwards the stored shape to the receiver if connected and echoes
// it back to the sender's own channel so other open views converge. A
// missing receiver connection is not an error; the message is durable and
// will be fetched on the receiver's next open.
func (r *Relay) handleSend(ctx context.Context, c *Client, data json.RawMessage) {
	var p SendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		r.sendError(c, "malformed sendMessage payload")
		return
	}

	msg, err := r.store.Send(ctx, p.SenderID, p.ReceiverID, p.Text)
	if err != nil {
		r.sendError(c, err.Error())
		return
	}

	ev, err := NewEvent(EventReceiveMessage, msg)
	if err != nil {
		log.Printf("Failed to encode receiveMessage event: %v", err)
		return
	}

	if receiver, ok := r.hub.Get(msg.ReceiverID); ok {
		receiver.enqueue(ev)
	}

	c.enqueue(ev)
	if sender, ok := r.hub.Get(msg.SenderID); ok && sender.id != c.id {
		sender.enqueue(ev)
	}
}

// handleSeen flips read-state in the store, then tells the original
// sender, if connected, which receiver has seen its messages.
func (r *Relay) handleSeen(ctx context.Context, c *Client, data json.RawMessage) {
	var p MarkSeenPayload
	if err := json.Unmarshal(data, &p); err != nil {
		r.sendError(c, "malformed markSeen payload")
		return
	}

	if _, err := r.store.MarkRead(ctx, p.SenderID, p.ReceiverID); err != nil {
		log.Printf("Failed to mark messages seen (%d -> %d): %v", p.SenderID, p.ReceiverID, err)
		r.sendError(c, err.Error())
		return
	}

	if sender, ok := r.hub.Get(p.SenderID); ok {
		if ev, err := NewEvent(EventMessagesSeen, MessagesSeenPayload{ReceiverID: p.ReceiverID}); err == nil {
			sender.enqueue(ev)
		}
	}
}

func (r *Relay) sendError(c *Client, msg string) {
	if ev, err := NewEvent(EventMessageError, MessageErrorPayload{Error: msg}); err == nil {
		c.enqueue(ev)
	}
}
