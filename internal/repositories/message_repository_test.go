package repositories

import (
	"context"
	"testing"

	"github.com/ecobin-app/backend/internal/apperr"
)

// Validation rejects bad input before any collection access, so a
// zero-value repository is enough to exercise it.
func TestMessageSendValidation(t *testing.T) {
	repo := &MongoMessageRepository{}

	tests := []struct {
		name       string
		senderID   uint
		receiverID uint
		text       string
	}{
		{"zero sender", 0, 2, "hi"},
		{"zero receiver", 1, 0, "hi"},
		{"self send", 5, 5, "hi"},
		{"empty text", 1, 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := repo.Send(context.Background(), tt.senderID, tt.receiverID, tt.text)
			if !apperr.IsValidation(err) {
				t.Fatalf("Send(%d, %d, %q) err = %v, want validation error",
					tt.senderID, tt.receiverID, tt.text, err)
			}
			if msg != nil {
				t.Error("no message should be returned on validation failure")
			}
		})
	}
}
