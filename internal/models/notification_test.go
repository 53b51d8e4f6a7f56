package models

import (
	"testing"
	"time"
)

const retention = 30 * 24 * time.Hour

func TestPurgeEligibleSoftDeleteBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		markedAt time.Time
		want     bool
	}{
		{"exactly at boundary", now.Add(-retention), true},
		{"one second before boundary", now.Add(-retention + time.Second), false},
		{"well past boundary", now.Add(-retention - 24*time.Hour), true},
		{"just marked", now, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			markedAt := tt.markedAt
			n := Notification{
				MarkedForDeletion:   true,
				MarkedForDeletionAt: &markedAt,
				CreatedAt:           now.Add(-60 * 24 * time.Hour),
			}
			if got := n.PurgeEligible(now, retention, false); got != tt.want {
				t.Errorf("PurgeEligible = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPurgeEligibleReadAging(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	old := Notification{Read: true, CreatedAt: now.Add(-retention)}

	if !old.PurgeEligible(now, retention, true) {
		t.Error("aged read notification should be purgeable when read-aging is on")
	}
	if old.PurgeEligible(now, retention, false) {
		t.Error("aged read notification must survive when read-aging is off")
	}

	unread := Notification{Read: false, CreatedAt: now.Add(-retention)}
	if unread.PurgeEligible(now, retention, true) {
		t.Error("unread notification must never age out")
	}
}

func TestPurgeEligibleUnmarkedUnread(t *testing.T) {
	now := time.Now().UTC()
	n := Notification{CreatedAt: now.Add(-365 * 24 * time.Hour)}
	if n.PurgeEligible(now, retention, true) {
		t.Error("unmarked unread notification must never be purged")
	}
}

func TestNotificationTypeValid(t *testing.T) {
	for _, valid := range []NotificationType{
		NotificationReportCreated, NotificationReportProcessed,
		NotificationRecyclingTips, NotificationSystem,
	} {
		if !valid.Valid() {
			t.Errorf("%q should be valid", valid)
		}
	}
	if NotificationType("like").Valid() {
		t.Error("unknown type should not be valid")
	}
}
