package models

import "gorm.io/gorm"

type NotificationType string

const (
	NotificationFriendRequest  NotificationType = "friend_request"
	NotificationFriendAccepted NotificationType = "friend_accepted"
	NotificationFriendRejected NotificationType = "friend_rejected"
	NotificationGeneric        NotificationType = "generic"
)

// Notification is an event record delivered to exactly one recipient.
// Rows are append-only; the recipient flips Read/Handled, and the nightly
// retention sweep removes read rows past their age limit.
type Notification struct {
	gorm.Model
	UserUID   string           `gorm:"size:128;index;not null"` // recipient
	FromUID   string           `gorm:"size:128;index"`
	Type      NotificationType `gorm:"size:30;index;not null;default:'generic'"`
	Title     string           `gorm:"size:255"`
	Message   string
	RequestID uint `gorm:"index"` // originating friend request, if any
	Read      bool `gorm:"not null;default:false;index"`
	Handled   bool `gorm:"not null;default:false"`
}
