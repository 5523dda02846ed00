package models

import "gorm.io/gorm"

// Message is a chat message owned by exactly one conversation. Immutable
// once created; ordering is by creation time ascending.
type Message struct {
	gorm.Model
	ConversationID string `gorm:"size:260;index;not null"`
	SenderUID      string `gorm:"size:128;not null"`
	Text           string `gorm:"not null"`
}
