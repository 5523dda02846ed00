package service

import (
	"context"
	"testing"
	"time"

	"leaflens/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects a post with neither text nor media", func(t *testing.T) {
		s := newTestServices(t)
		_, err := s.posts.CreatePost(ctx, "u1", "   ", nil)
		assert.ErrorIs(t, err, ErrEmptyPost)
	})

	t.Run("media-only posts are allowed", func(t *testing.T) {
		s := newTestServices(t)
		post, err := s.posts.CreatePost(ctx, "u1", "", []string{"https://cdn/x.jpg"})
		require.NoError(t, err)
		assert.Equal(t, []string{"https://cdn/x.jpg"}, post.MediaURLs)
	})
}

func TestListFeed(t *testing.T) {
	ctx := context.Background()

	t.Run("newest first with author hydration and liked flags", func(t *testing.T) {
		s := newTestServices(t)
		createUser(t, s.db, "u1", "alice")

		first, err := s.posts.CreatePost(ctx, "u1", "first", nil)
		require.NoError(t, err)
		_, err = s.posts.CreatePost(ctx, "u1", "second", nil)
		require.NoError(t, err)

		liked, _, err := s.posts.ToggleLike(ctx, "u2", first.ID)
		require.NoError(t, err)
		require.True(t, liked)

		items, total, err := s.posts.ListFeed(ctx, "u2", 1, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, items, 2)

		assert.Equal(t, "second", items[0].Post.Content)
		assert.False(t, items[0].Liked)
		require.NotNil(t, items[0].Author)
		assert.Equal(t, "alice", items[0].Author.DisplayName)

		assert.Equal(t, "first", items[1].Post.Content)
		assert.True(t, items[1].Liked)
	})

	t.Run("a vanished author does not drop the post", func(t *testing.T) {
		s := newTestServices(t)
		_, err := s.posts.CreatePost(ctx, "ghost", "still here", nil)
		require.NoError(t, err)

		items, _, err := s.posts.ListFeed(ctx, "u2", 1, 10)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Nil(t, items[0].Author)
	})

	t.Run("paginates", func(t *testing.T) {
		s := newTestServices(t)
		for _, text := range []string{"a", "b", "c"} {
			_, err := s.posts.CreatePost(ctx, "u1", text, nil)
			require.NoError(t, err)
		}

		items, total, err := s.posts.ListFeed(ctx, "u1", 2, 2)
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, items, 1)
		assert.Equal(t, "a", items[0].Post.Content)
	})
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()

	t.Run("like then unlike", func(t *testing.T) {
		s := newTestServices(t)
		post, err := s.posts.CreatePost(ctx, "u1", "hello", nil)
		require.NoError(t, err)

		liked, count, err := s.posts.ToggleLike(ctx, "u2", post.ID)
		require.NoError(t, err)
		assert.True(t, liked)
		assert.EqualValues(t, 1, count)

		liked, count, err = s.posts.ToggleLike(ctx, "u2", post.ID)
		require.NoError(t, err)
		assert.False(t, liked)
		assert.EqualValues(t, 0, count)

		var rows int64
		require.NoError(t, s.db.Model(&models.PostLike{}).Count(&rows).Error)
		assert.Zero(t, rows)
	})

	t.Run("independent likers accumulate", func(t *testing.T) {
		s := newTestServices(t)
		post, err := s.posts.CreatePost(ctx, "u1", "hello", nil)
		require.NoError(t, err)

		for _, uid := range []string{"u2", "u3", "u4"} {
			_, _, err := s.posts.ToggleLike(ctx, uid, post.ID)
			require.NoError(t, err)
		}

		_, count, err := s.posts.ToggleLike(ctx, "u2", post.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
	})

	t.Run("missing post", func(t *testing.T) {
		s := newTestServices(t)
		_, _, err := s.posts.ToggleLike(ctx, "u2", 4242)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStories(t *testing.T) {
	ctx := context.Background()

	t.Run("expired stories are filtered out", func(t *testing.T) {
		s := newTestServices(t)

		fresh, err := s.posts.CreateStory(ctx, "u1", "https://cdn/fresh.jpg", "image")
		require.NoError(t, err)
		stale, err := s.posts.CreateStory(ctx, "u1", "https://cdn/stale.jpg", "image")
		require.NoError(t, err)

		require.NoError(t, s.db.Model(&models.Story{}).Where("id = ?", stale.ID).
			Update("expires_at", time.Now().Add(-time.Hour)).Error)

		stories, err := s.posts.ListStories(ctx)
		require.NoError(t, err)
		require.Len(t, stories, 1)
		assert.Equal(t, fresh.ID, stories[0].ID)
	})

	t.Run("requires a media url", func(t *testing.T) {
		s := newTestServices(t)
		_, err := s.posts.CreateStory(ctx, "u1", " ", "image")
		assert.ErrorIs(t, err, ErrEmptyPost)
	})

	t.Run("only the author may delete, missing is a no-op", func(t *testing.T) {
		s := newTestServices(t)
		story, err := s.posts.CreateStory(ctx, "u1", "https://cdn/s.jpg", "image")
		require.NoError(t, err)

		assert.ErrorIs(t, s.posts.DeleteStory(ctx, "u2", story.ID), ErrNotAllowed)
		assert.NoError(t, s.posts.DeleteStory(ctx, "u1", story.ID))
		assert.NoError(t, s.posts.DeleteStory(ctx, "u1", story.ID))

		stories, err := s.posts.ListStories(ctx)
		require.NoError(t, err)
		assert.Empty(t, stories)
	})
}
