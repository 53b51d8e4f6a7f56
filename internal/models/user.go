package models

import (
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// NotificationPreferences holds the per-category push preference flags.
type NotificationPreferences struct {
	ReportUpdates       bool `json:"reportUpdates" gorm:"default:true"`
	RecyclingTips       bool `json:"recyclingTips" gorm:"default:true"`
	SystemNotifications bool `json:"systemNotifications" gorm:"default:true"`
}

type User struct {
	gorm.Model `json:"-"`
	ID         uint   `json:"id" gorm:"primaryKey"`
	Name       string `json:"name"`
	Email      string `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	AvatarURL  string `json:"avatar_url"`

	// Push delivery subset consumed by the dispatcher.
	PushToken               string                  `json:"-"`
	NotificationsEnabled    bool                    `json:"notifications_enabled" gorm:"default:true"`
	NotificationPreferences NotificationPreferences `json:"notification_preferences" gorm:"embedded;embeddedPrefix:pref_"`
}

// UserCompact is the minimal user shape embedded in conversation and
// notification payloads.
type UserCompact struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// ToCompact returns the compact representation of the user.
func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
}

// AllowsPush reports whether push delivery of a notification of type t is
// permitted by the user's preference flags. The global flag short-circuits
// every category.
func (u *User) AllowsPush(t NotificationType) bool {
	if !u.NotificationsEnabled {
		return false
	}
	switch t {
	case NotificationReportCreated, NotificationReportProcessed:
		return u.NotificationPreferences.ReportUpdates
	case NotificationRecyclingTips:
		return u.NotificationPreferences.RecyclingTips
	case NotificationSystem:
		return u.NotificationPreferences.SystemNotifications
	}
	return false
}

type UpdateUserRequest struct {
	Name      string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	AvatarURL string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
