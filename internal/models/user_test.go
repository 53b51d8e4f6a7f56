package models

import "testing"

func TestAllowsPushGatingTable(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		prefs   NotificationPreferences
		nType   NotificationType
		want    bool
	}{
		{"global off short-circuits everything", false,
			NotificationPreferences{ReportUpdates: true, RecyclingTips: true, SystemNotifications: true},
			NotificationReportCreated, false},
		{"report_created gated by reportUpdates", true,
			NotificationPreferences{ReportUpdates: true}, NotificationReportCreated, true},
		{"report_processed gated by reportUpdates", true,
			NotificationPreferences{ReportUpdates: false, RecyclingTips: true, SystemNotifications: true},
			NotificationReportProcessed, false},
		{"recycling_tips gated by recyclingTips", true,
			NotificationPreferences{RecyclingTips: true}, NotificationRecyclingTips, true},
		{"system gated by systemNotifications", true,
			NotificationPreferences{SystemNotifications: false, ReportUpdates: true},
			NotificationSystem, false},
		{"unknown type denied", true,
			NotificationPreferences{ReportUpdates: true, RecyclingTips: true, SystemNotifications: true},
			NotificationType("like"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := User{NotificationsEnabled: tt.enabled, NotificationPreferences: tt.prefs}
			if got := u.AllowsPush(tt.nType); got != tt.want {
				t.Errorf("AllowsPush(%q) = %v, want %v", tt.nType, got, tt.want)
			}
		})
	}
}
