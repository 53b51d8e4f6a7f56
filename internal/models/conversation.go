package models

import "time"

// LastMessage is the most-recent-message snapshot inside a conversation entry.
type LastMessage struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
	SenderID  uint      `json:"senderId"`
}

// ConversationSnapshot is the store-derived view of one conversation,
// before user enrichment.
type ConversationSnapshot struct {
	CounterpartID uint
	LastMessage   LastMessage
	Unread        bool
}

// Conversation is the client-ready shape: snapshot plus counterpart info.
type Conversation struct {
	User        UserCompact `json:"user"`
	LastMessage LastMessage `json:"lastMessage"`
	Unread      bool        `json:"unread"`
}

// BuildConversationSnapshots derives one snapshot per distinct counterpart
// from messages involving userID. Input must be sorted newest-first
// (timestamp descending, then id descending), which makes the first message
// seen per counterpart its snapshot and keeps the output
// newest-activity-first. Unread is true iff the snapshot's receiver is
// userID and the message is unread.
func BuildConversationSnapshots(msgs []Message, userID uint) []ConversationSnapshot {
	snapshots := make([]ConversationSnapshot, 0, len(msgs))
	seen := make(map[uint]bool)

	for _, m := range msgs {
		counterpart := m.SenderID
		if counterpart == userID {
			counterpart = m.ReceiverID
		}
		if seen[counterpart] {
			continue
		}
		seen[counterpart] = true
		snapshots = append(snapshots, ConversationSnapshot{
			CounterpartID: counterpart,
			LastMessage: LastMessage{
				Text:      m.Text,
				Timestamp: m.Timestamp,
				Read:      m.Read,
				SenderID:  m.SenderID,
			},
			Unread: m.ReceiverID == userID && !m.Read,
		})
	}
	return snapshots
}
