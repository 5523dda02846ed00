package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User represents a user in the system. UID is the externally visible
// identity (a Firebase UID or a locally minted UUID); every other aggregate
// references users by UID only.
type User struct {
	gorm.Model
	UID              string `gorm:"size:128;uniqueIndex;not null"`
	DisplayName      string `gorm:"size:255;not null"`
	DisplayNameLower string `gorm:"size:255;index;not null"`
	Email            string `gorm:"size:255;uniqueIndex;not null"`
	EmailLower       string `gorm:"size:255;index;not null"`
	PasswordHash     string `gorm:"size:255"` // empty for Firebase-authenticated accounts
	PhotoURL         string `gorm:"size:512"`
	LastSeenAt       *time.Time
}

// Normalize refreshes the lowercase search columns from the display fields.
func (u *User) Normalize() {
	u.DisplayNameLower = strings.ToLower(u.DisplayName)
	u.EmailLower = strings.ToLower(u.Email)
}
