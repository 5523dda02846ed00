package models

import "time"

// Conversation identifies a messaging channel for exactly two participants.
// The primary key is the PairKey of the two UIDs, so repeated lookups for
// the same pair resolve without a query and concurrent creates collapse
// onto one row.
type Conversation struct {
	ID            string `gorm:"primaryKey;size:260"`
	ParticipantA  string `gorm:"size:128;index;not null"`
	ParticipantB  string `gorm:"size:128;index;not null"`
	CreatedAt     time.Time
	LastMessageAt time.Time
}
