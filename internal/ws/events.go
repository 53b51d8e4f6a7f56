package ws

import "encoding/json"

// Event names on the realtime channel.
const (
	EventJoin           = "join"
	EventSendMessage    = "sendMessage"
	EventReceiveMessage = "receiveMessage"
	EventMarkSeen       = "markSeen"
	EventMessagesSeen   = "messagesSeen"
	EventMessageError   = "messageError"
)

// Event is the JSON envelope exchanged over a relay connection.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinPayload struct {
	UserID uint `json:"userId"`
}

type SendMessagePayload struct {
	SenderID   uint   `json:"senderId"`
	ReceiverID uint   `json:"receiverId"`
	Text       string `json:"text"`
}

type MarkSeenPayload struct {
	SenderID   uint `json:"senderId"`
	ReceiverID uint `json:"receiverId"`
}

type MessagesSeenPayload struct {
	ReceiverID uint `json:"receiverId"`
}

type MessageErrorPayload struct {
	Error string `json:"error"`
}

// NewEvent wraps a payload into the wire envelope.
func NewEvent(name string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Event: name, Data: data}, nil
}
