package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType enumerates the notification categories.
type NotificationType string

const (
	NotificationReportCreated   NotificationType = "report_created"
	NotificationReportProcessed NotificationType = "report_processed"
	NotificationRecyclingTips   NotificationType = "recycling_tips"
	NotificationSystem          NotificationType = "system"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationReportCreated, NotificationReportProcessed,
		NotificationRecyclingTips, NotificationSystem:
		return true
	}
	return false
}

// Notification represents a user-directed notification (MongoDB).
// Deletion is two-phase: a soft-delete marker first, then a hard delete
// once the retention window has elapsed.
type Notification struct {
	ID                  primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID              uint               `json:"userId" bson:"user"`
	Title               string             `json:"title" bson:"title"`
	Message             string             `json:"message" bson:"message"`
	Type                NotificationType   `json:"type" bson:"type"`
	RelatedReportID     string             `json:"relatedReportId,omitempty" bson:"relatedReport,omitempty"`
	Read                bool               `json:"read" bson:"read"`
	ReadAt              *time.Time         `json:"readAt,omitempty" bson:"readAt,omitempty"`
	MarkedForDeletion   bool               `json:"markedForDeletion" bson:"markedForDeletion"`
	MarkedForDeletionAt *time.Time         `json:"markedForDeletionAt,omitempty" bson:"markedForDeletionAt,omitempty"`
	CreatedAt           time.Time          `json:"createdAt" bson:"createdAt"`
}

// PurgeEligible reports whether the retention sweep may permanently delete
// this notification at time now. Two triggers: soft-deleted rows past the
// retention window, and (when readAging is enabled) read rows whose age
// reaches the window even without an explicit delete.
func (n *Notification) PurgeEligible(now time.Time, retention time.Duration, readAging bool) bool {
	if n.MarkedForDeletion && n.MarkedForDeletionAt != nil &&
		now.Sub(*n.MarkedForDeletionAt) >= retention {
		return true
	}
	if readAging && n.Read && now.Sub(n.CreatedAt) >= retention {
		return true
	}
	return false
}

// NotificationStats summarizes a user's notification counts. Soft-deleted
// rows are excluded from Total and Unread and reported separately.
type NotificationStats struct {
	Total             int64 `json:"total"`
	Unread            int64 `json:"unread"`
	MarkedForDeletion int64 `json:"markedForDeletion"`
}

type CreateNotificationRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	Message         string `json:"message" validate:"required"`
	Type            string `json:"type" validate:"required,oneof=report_created report_processed recycling_tips system"`
	RelatedReportID string `json:"relatedReportId,omitempty"`
}

type UpdatePreferencesRequest struct {
	NotificationsEnabled *bool `json:"notificationsEnabled,omitempty"`
	ReportUpdates        *bool `json:"reportUpdates,omitempty"`
	RecyclingTips        *bool `json:"recyclingTips,omitempty"`
	SystemNotifications  *bool `json:"systemNotifications,omitempty"`
}

type RegisterPushTokenRequest struct {
	Token string `json:"token" validate:"required"`
}
