package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func idFromByte(b byte) primitive.ObjectID {
	var id primitive.ObjectID
	id[11] = b
	return id
}

func msgAt(id byte, sender, receiver uint, text string, read bool, minute int) Message {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return Message{
		ID:         idFromByte(id),
		SenderID:   sender,
		ReceiverID: receiver,
		Text:       text,
		Read:       read,
		Timestamp:  base.Add(time.Duration(minute) * time.Minute),
	}
}

func TestBuildConversationSnapshotsGroupsByCounterpart(t *testing.T) {
	// Newest-first input, as the store delivers it.
	msgs := []Message{
		msgAt(4, 3, 1, "latest from 3", false, 30),
		msgAt(3, 1, 2, "reply to 2", true, 20),
		msgAt(2, 2, 1, "from 2", true, 10),
		msgAt(1, 3, 1, "older from 3", false, 0),
	}

	snapshots := BuildConversationSnapshots(msgs, 1)
	if len(snapshots) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(snapshots))
	}

	seen := make(map[uint]bool)
	for _, s := range snapshots {
		if seen[s.CounterpartID] {
			t.Errorf("duplicate counterpart %d in snapshots", s.CounterpartID)
		}
		seen[s.CounterpartID] = true
	}

	if snapshots[0].CounterpartID != 3 {
		t.Errorf("expected counterpart 3 first (newest activity), got %d", snapshots[0].CounterpartID)
	}
	if snapshots[0].LastMessage.Text != "latest from 3" {
		t.Errorf("wrong snapshot message: %q", snapshots[0].LastMessage.Text)
	}
	if snapshots[1].CounterpartID != 2 {
		t.Errorf("expected counterpart 2 second, got %d", snapshots[1].CounterpartID)
	}
	if snapshots[1].LastMessage.Text != "reply to 2" {
		t.Errorf("wrong snapshot for counterpart 2: %q", snapshots[1].LastMessage.Text)
	}
}

func TestBuildConversationSnapshotsUnreadRule(t *testing.T) {
	tests := []struct {
		name   string
		msg    Message
		unread bool
	}{
		{"incoming unread", msgAt(1, 2, 1, "hi", false, 0), true},
		{"incoming read", msgAt(2, 2, 1, "hi", true, 0), false},
		{"outgoing unread", msgAt(3, 1, 2, "hi", false, 0), false},
		{"outgoing read", msgAt(4, 1, 2, "hi", true, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshots := BuildConversationSnapshots([]Message{tt.msg}, 1)
			if len(snapshots) != 1 {
				t.Fatalf("expected 1 snapshot, got %d", len(snapshots))
			}
			if snapshots[0].Unread != tt.unread {
				t.Errorf("unread = %v, want %v", snapshots[0].Unread, tt.unread)
			}
		})
	}
}

func TestBuildConversationSnapshotsTieBreakByID(t *testing.T) {
	// Equal timestamps: the store orders by id descending, so the higher
	// id arrives first and must win the snapshot.
	msgs := []Message{
		msgAt(9, 2, 1, "second send", false, 0),
		msgAt(1, 2, 1, "first send", false, 0),
	}

	snapshots := BuildConversationSnapshots(msgs, 1)
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snapshots))
	}
	if snapshots[0].LastMessage.Text != "second send" {
		t.Errorf("tie-break picked %q, want %q", snapshots[0].LastMessage.Text, "second send")
	}
}

func TestBuildConversationSnapshotsEmpty(t *testing.T) {
	snapshots := BuildConversationSnapshots(nil, 1)
	if len(snapshots) != 0 {
		t.Errorf("expected empty result, got %d entries", len(snapshots))
	}
}
