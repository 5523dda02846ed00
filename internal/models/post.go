package models

import "gorm.io/gorm"

// Post is a community feed entry. Media is stored as already-uploaded
// URLs; the upload pipeline itself lives client-side. LikeCount is a
// denormalized counter maintained in the same transaction as the like rows.
type Post struct {
	gorm.Model
	AuthorUID string   `gorm:"size:128;index;not null"`
	Content   string   `gorm:"not null"`
	MediaURLs []string `gorm:"serializer:json"`
	LikeCount int64    `gorm:"not null;default:0"`
}

// PostLike records one user liking one post. The composite unique index
// makes the like toggle race-safe: concurrent likes collapse to one row.
type PostLike struct {
	ID      uint   `gorm:"primaryKey"`
	PostID  uint   `gorm:"uniqueIndex:idx_post_like;not null"`
	UserUID string `gorm:"size:128;uniqueIndex:idx_post_like;not null"`
}
