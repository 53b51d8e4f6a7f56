package client

import (
	"sync"

	"github.com/ecobin-app/backend/internal/models"
)

// ConversationList is the client-side conversation index. It reconciles
// live relay events into the fetched list incrementally: upsert the
// affected conversation, move it to the front, and set the unread flag,
// without a full refetch.
type ConversationList struct {
	mu      sync.Mutex
	entries []models.Conversation
}

func NewConversationList() *ConversationList {
	return &ConversationList{}
}

// Replace installs a freshly fetched list. Server responses are
// authoritative; the local list is only a cache.
func (l *ConversationList) Replace(conversations []models.Conversation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make([]models.Conversation, len(conversations))
	copy(l.entries, conversations)
}

// Apply folds one live message into the list for the viewing user. The
// counterpart's entry is updated or inserted, moved to the front, and its
// unread flag follows the rule: unread iff the message's receiver is the
// viewing user and the message is unread.
func (l *ConversationList) Apply(msg models.Message, viewerID uint) {
	counterpartID := msg.SenderID
	if counterpartID == viewerID {
		counterpartID = msg.ReceiverID
	}

	last := models.LastMessage{
		Text:      msg.Text,
		Timestamp: msg.Timestamp,
		Read:      msg.Read,
		SenderID:  msg.SenderID,
	}
	unread := msg.ReceiverID == viewerID && !msg.Read

	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.entries {
		if l.entries[i].User.ID != counterpartID {
			continue
		}
		entry := l.entries[i]
		entry.LastMessage = last
		entry.Unread = unread
		copy(l.entries[1:i+1], l.entries[:i])
		l.entries[0] = entry
		return
	}

	entry := models.Conversation{
		User:        models.UserCompact{ID: counterpartID},
		LastMessage: last,
		Unread:      unread,
	}
	l.entries = append([]models.Conversation{entry}, l.entries...)
}

// MarkSeen reflects a messagesSeen event: our sent messages to receiverID
// were read, so that conversation's last-message indicator flips.
func (l *ConversationList) MarkSeen(receiverID, viewerID uint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		if l.entries[i].User.ID == receiverID && l.entries[i].LastMessage.SenderID == viewerID {
			l.entries[i].LastMessage.Read = true
		}
	}
}

// MarkConversationRead clears the unread flag after the viewer opens a
// conversation.
func (l *ConversationList) MarkConversationRead(counterpartID uint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		if l.entries[i].User.ID == counterpartID {
			l.entries[i].Unread = false
			if l.entries[i].LastMessage.SenderID == counterpartID {
				l.entries[i].LastMessage.Read = true
			}
		}
	}
}

// Entries returns a copy of the list, newest activity first.
func (l *ConversationList) Entries() []models.Conversation {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Conversation, len(l.entries))
	copy(out, l.entries)
	return out
}
