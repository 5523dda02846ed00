package models

import (
	"time"

	"gorm.io/gorm"
)

// Story is an ephemeral media item. Expired stories are filtered at read
// time; rows linger until their author deletes them or the account goes.
type Story struct {
	gorm.Model
	AuthorUID string    `gorm:"size:128;index;not null"`
	MediaURL  string    `gorm:"size:512;not null"`
	MediaType string    `gorm:"size:30"`
	ExpiresAt time.Time `gorm:"index;not null"`
}
