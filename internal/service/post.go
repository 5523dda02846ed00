package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"leaflens/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrEmptyPost = errors.New("post needs text or media")

// storyTTL is how long a story stays visible after posting.
const storyTTL = 24 * time.Hour

// FeedItem is a post hydrated for a specific viewer.
type FeedItem struct {
	Post   models.Post
	Author *models.User // nil when the author's account is gone
	Liked  bool
}

// PostService owns the community feed: posts, likes and stories.
type PostService struct {
	db *gorm.DB
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{db: db}
}

// CreatePost appends a feed entry. Media URLs arrive already uploaded.
func (s *PostService) CreatePost(ctx context.Context, authorUID, content string, mediaURLs []string) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(mediaURLs) == 0 {
		return nil, ErrEmptyPost
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	post := models.Post{
		AuthorUID: authorUID,
		Content:   content,
		MediaURLs: mediaURLs,
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// ListFeed returns the feed newest-first, hydrated for the viewer: author
// profiles batched in, and the viewer's own likes flagged. Posts whose
// author no longer resolves are kept with a nil Author.
func (s *PostService) ListFeed(ctx context.Context, viewerUID string, page, limit int) ([]FeedItem, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 5
	}
	if limit > 50 {
		limit = 50
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := db.Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	if len(posts) == 0 {
		return []FeedItem{}, total, nil
	}

	authorUIDs := make([]string, 0, len(posts))
	postIDs := make([]uint, 0, len(posts))
	for _, p := range posts {
		authorUIDs = append(authorUIDs, p.AuthorUID)
		postIDs = append(postIDs, p.ID)
	}

	var authors []models.User
	if err := db.Where("uid IN ?", authorUIDs).Find(&authors).Error; err != nil {
		return nil, 0, err
	}
	byUID := make(map[string]models.User, len(authors))
	for _, u := range authors {
		byUID[u.UID] = u
	}

	likedIDs := make(map[uint]bool)
	if viewerUID != "" {
		var likes []models.PostLike
		if err := db.Where("user_uid = ? AND post_id IN ?", viewerUID, postIDs).Find(&likes).Error; err != nil {
			return nil, 0, err
		}
		for _, l := range likes {
			likedIDs[l.PostID] = true
		}
	}

	items := make([]FeedItem, 0, len(posts))
	for _, p := range posts {
		item := FeedItem{Post: p, Liked: likedIDs[p.ID]}
		if author, ok := byUID[p.AuthorUID]; ok {
			item.Author = &author
		}
		items = append(items, item)
	}
	return items, total, nil
}

// ToggleLike flips the viewer's like on a post and returns the new state
// plus the updated count. The like-row unique index arbitrates concurrent
// toggles; the counter moves in the same transaction as the row.
func (s *PostService) ToggleLike(ctx context.Context, userUID string, postID uint) (bool, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var liked bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		like := models.PostLike{PostID: postID, UserUID: userUID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = true
			return tx.Model(&models.Post{}).Where("id = ?", postID).
				Update("like_count", gorm.Expr("like_count + ?", 1)).Error
		}

		if err := tx.Where("post_id = ? AND user_uid = ?", postID, userUID).
			Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ? AND like_count > 0", postID).
			Update("like_count", gorm.Expr("like_count - ?", 1)).Error
	})
	if err != nil {
		return false, 0, err
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		Select("like_count").
		Scan(&count).Error
	return liked, count, err
}

// CreateStory posts an ephemeral media item visible for the story TTL.
func (s *PostService) CreateStory(ctx context.Context, authorUID, mediaURL, mediaType string) (*models.Story, error) {
	if strings.TrimSpace(mediaURL) == "" {
		return nil, ErrEmptyPost
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	story := models.Story{
		AuthorUID: authorUID,
		MediaURL:  mediaURL,
		MediaType: mediaType,
		ExpiresAt: time.Now().Add(storyTTL),
	}
	if err := s.db.WithContext(ctx).Create(&story).Error; err != nil {
		return nil, err
	}
	return &story, nil
}

// ListStories returns the unexpired stories, newest-first.
func (s *PostService) ListStories(ctx context.Context) ([]models.Story, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var stories []models.Story
	err := s.db.WithContext(ctx).
		Where("expires_at > ?", time.Now()).
		Order("created_at DESC, id DESC").
		Find(&stories).Error
	return stories, err
}

// DeleteStory removes one of the actor's stories. A story that is already
// gone counts as success; someone else's story is forbidden.
func (s *PostService) DeleteStory(ctx context.Context, actorUID string, storyID uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	db := s.db.WithContext(ctx)

	var story models.Story
	if err := db.First(&story, storyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if story.AuthorUID != actorUID {
		return ErrNotAllowed
	}
	return db.Delete(&models.Story{}, storyID).Error
}
