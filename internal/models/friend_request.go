package models

import "time"

// FriendRequest is an unresolved friendship proposal. A row's existence
// means "pending": accepting or rejecting deletes the row, so resolved
// requests leave no trace here (the notification history keeps it).
//
// PairKey is the sorted unordered pair of the two UIDs. Its unique index
// makes the duplicate and reverse-direction checks atomic: two users
// racing to request each other can never both insert.
type FriendRequest struct {
	ID        uint   `gorm:"primaryKey"`
	PairKey   string `gorm:"size:260;uniqueIndex;not null"`
	FromUID   string `gorm:"size:128;index;not null"`
	ToUID     string `gorm:"size:128;index;not null"`
	CreatedAt time.Time
}
