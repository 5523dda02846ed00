package service

import (
	"context"
	"testing"

	"leaflens/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		s := newTestServices(t)

		user, err := s.users.Register(ctx, "Alice", "alice@example.com", "secret123")
		require.NoError(t, err)
		assert.NotEmpty(t, user.UID)
		assert.Equal(t, "alice", user.DisplayNameLower)
		assert.NotEqual(t, "secret123", user.PasswordHash)

		got, err := s.users.Authenticate(ctx, "Alice", "secret123")
		require.NoError(t, err)
		assert.Equal(t, user.UID, got.UID)

		// Email works as the login too.
		got, err = s.users.Authenticate(ctx, "alice@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, user.UID, got.UID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		s := newTestServices(t)

		_, err := s.users.Register(ctx, "Alice", "alice@example.com", "secret123")
		require.NoError(t, err)

		_, err = s.users.Register(ctx, "Someone Else", "alice@example.com", "secret123")
		assert.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("shared display name forces email login", func(t *testing.T) {
		s := newTestServices(t)

		first, err := s.users.Register(ctx, "Alice", "alice@example.com", "secret123")
		require.NoError(t, err)
		second, err := s.users.Register(ctx, "Alice", "alice2@example.com", "secret456")
		require.NoError(t, err)
		assert.NotEqual(t, first.UID, second.UID)

		_, err = s.users.Authenticate(ctx, "Alice", "secret123")
		assert.ErrorIs(t, err, ErrAmbiguousLogin)

		got, err := s.users.Authenticate(ctx, "alice2@example.com", "secret456")
		require.NoError(t, err)
		assert.Equal(t, second.UID, got.UID)
	})

	t.Run("wrong password and unknown login", func(t *testing.T) {
		s := newTestServices(t)

		_, err := s.users.Register(ctx, "Alice", "alice@example.com", "secret123")
		require.NoError(t, err)

		_, err = s.users.Authenticate(ctx, "Alice", "nope")
		assert.ErrorIs(t, err, ErrCredentials)

		_, err = s.users.Authenticate(ctx, "nobody", "secret123")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUpsertProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("create then merge", func(t *testing.T) {
		s := newTestServices(t)

		first, err := s.users.UpsertProfile(ctx, "fb-1", "Bob", "bob@example.com", "")
		require.NoError(t, err)
		assert.Equal(t, "bob", first.DisplayNameLower)

		second, err := s.users.UpsertProfile(ctx, "fb-1", "Bobby", "bob@example.com", "https://img/bob.png")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Bobby", second.DisplayName)
		assert.Equal(t, "bobby", second.DisplayNameLower)
		assert.Equal(t, "https://img/bob.png", second.PhotoURL)
	})

	t.Run("requires a display name", func(t *testing.T) {
		s := newTestServices(t)
		_, err := s.users.UpsertProfile(ctx, "fb-1", "", "bob@example.com", "")
		assert.ErrorIs(t, err, ErrEmptyProfile)
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("case-insensitive prefix match over name and email", func(t *testing.T) {
		s := newTestServices(t)
		createUser(t, s.db, "u1", "Alice")
		createUser(t, s.db, "u2", "Alicia")
		createUser(t, s.db, "u3", "Bob")

		users, total, err := s.users.Search(ctx, "ALI", "", 1, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, users, 2)
		assert.Equal(t, "Alice", users[0].DisplayName)

		// createUser derives emails from the uid.
		users, total, err = s.users.Search(ctx, "u3@", "", 1, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, "Bob", users[0].DisplayName)
	})

	t.Run("excludes the caller", func(t *testing.T) {
		s := newTestServices(t)
		createUser(t, s.db, "u1", "Alice")
		createUser(t, s.db, "u2", "Alicia")

		users, total, err := s.users.Search(ctx, "ali", "u1", 1, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, users, 1)
		assert.Equal(t, "u2", users[0].UID)
	})

	t.Run("paginates", func(t *testing.T) {
		s := newTestServices(t)
		createUser(t, s.db, "u1", "planta")
		createUser(t, s.db, "u2", "plantb")
		createUser(t, s.db, "u3", "plantc")

		users, total, err := s.users.Search(ctx, "plant", "", 2, 2)
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, users, 1)
		assert.Equal(t, "plantc", users[0].DisplayName)
	})

	t.Run("empty term", func(t *testing.T) {
		s := newTestServices(t)
		_, _, err := s.users.Search(ctx, "", "", 1, 10)
		assert.ErrorIs(t, err, ErrEmptySearch)
	})
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)
	createUser(t, s.db, "u1", "alice")
	createUser(t, s.db, "u2", "bob")

	req, err := s.friends.SendRequest(ctx, "u1", "u2")
	require.NoError(t, err)
	require.NoError(t, s.friends.AcceptRequest(ctx, "u2", req.ID))
	_, err = s.chat.SendMessage(ctx, ConversationIDFor("u1", "u2"), "u1", "bye")
	require.NoError(t, err)

	// u1 posts and likes u2's post; both traces must be retracted.
	ownPost, err := s.posts.CreatePost(ctx, "u1", "my fern", nil)
	require.NoError(t, err)
	peerPost, err := s.posts.CreatePost(ctx, "u2", "my cactus", nil)
	require.NoError(t, err)
	liked, _, err := s.posts.ToggleLike(ctx, "u1", peerPost.ID)
	require.NoError(t, err)
	require.True(t, liked)

	require.NoError(t, s.users.Delete(ctx, "u1"))

	_, err = s.users.GetByUID(ctx, "u1")
	assert.ErrorIs(t, err, ErrUserNotFound)

	ok, err := s.friends.AreFriends(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, ok)

	notifs, err := s.notifications.List(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, notifs)

	// Conversation history survives for the remaining participant.
	msgs, err := s.chat.ListMessages(ctx, ConversationIDFor("u1", "u2"), "u2")
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	var count int64
	require.NoError(t, s.db.Model(&models.FriendRequest{}).Count(&count).Error)
	assert.Zero(t, count)

	// u1's own post is gone; the like on u2's post is retracted and the
	// counter follows.
	require.NoError(t, s.db.Model(&models.Post{}).Where("id = ?", ownPost.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, s.db.Model(&models.PostLike{}).Where("user_uid = ?", "u1").Count(&count).Error)
	assert.Zero(t, count)

	items, _, err := s.posts.ListFeed(ctx, "u2", 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.EqualValues(t, 0, items[0].Post.LikeCount)
}
