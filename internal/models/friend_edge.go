package models

import "time"

// FriendEdge is a confirmed, symmetric friendship: exactly one row per
// unordered pair. UserAUID and UserBUID are stored in sorted order so that
// PairKey, lookups and deletes are representation-independent.
type FriendEdge struct {
	ID        uint   `gorm:"primaryKey"`
	PairKey   string `gorm:"size:260;uniqueIndex;not null"`
	UserAUID  string `gorm:"size:128;index;not null"`
	UserBUID  string `gorm:"size:128;index;not null"`
	CreatedAt time.Time
}

// PairKey returns the canonical key for an unordered pair of UIDs: the two
// ids sorted lexically and joined with an underscore. The same rule names
// conversations, so a friendship and its chat share an identity.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "_" + b
}

// SortPair returns the two UIDs in lexical order.
func SortPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}
