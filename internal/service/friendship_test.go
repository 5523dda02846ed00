package service

import (
	"context"
	"testing"

	"leaflens/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects self request", func(t *testing.T) {
		s := newTestServices(t)
		createUser(t, s.db, "u1", "alice")

		_, err := s.friends.SendRequest(ctx, "u1", "u1")
		assert.ErrorIs(t, err, ErrSelfRequest)
		assert.True(t, IsValidation(err))
	})

	t.Run("rejects unknown target", func(t *testing.T) {
		s := newTestServices(t)
		createUser(t, s.db, "u1", "alice")

		_, err := s.friends.SendRequest(ctx, "u1", "ghost")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("creates pending request and notifies recipient", func(t *testing.T) {
		s := newTestServices(t)
		createUser(t, s.db, "u1", "alice")
		createUser(t, s.db, "u2", "bob")

		req, err := s.friends.SendRequest(ctx, "u1", "u2")
		require.NoError(t, err)
		assert.Equal(t, "u1", req.FromUID)
		assert.Equal(t, "u2", req.ToUID)
		assert.Equal(t, models.PairKey("u1", "u2"), req.PairKey)

		status, err := s.friends.Status(ctx, "u1", "u2")
		require.NoError(t, err)
		assert.Equal(t, RelationSent, status)

		status, err = s.friends.Status(ctx, "u2", "u1")
		require.NoError(t, err)
		assert.Equal(t, RelationReceived, status)

		notifs, err := s.notifications.List(ctx, "u2", nil)
		require.NoError(t, err)
		require.Len(t, notifs, 1)
		assert.Equal(t, models.NotificationFriendRequest, notifs[0].Type)
		assert.Equal(t, "u1", notifs[0].FromUID)
		assert.False(t, notifs[0].Read)
	})

	t.Run("rejects duplicate request", func(t *testing.T) {
		s := newTestServices(t)
		createUser(t, s.db, "u1", "alice")
		createUser(t, s.db, "u2", "bob")

		_, err := s.friends.SendRequest(ctx, "u1", "u2")
		require.NoError(t, err)

		_, err = s.friends.SendRequest(ctx, "u1", "u2")
		assert.ErrorIs(t, err, ErrDuplicateRequest)
		assert.True(t, IsConflict(err))
	})

	t.Run("rejects reverse pending request", func(t *testing.T) {
		s := newTestServices(t)
		createUser(t, s.db, "u1", "alice")
		createUser(t, s.db, "u2", "bob")

		_, err := s.friends.SendRequest(ctx, "u1", "u2")
		require.NoError(t, err)

		_, err = s.friends.SendRequest(ctx, "u2", "u1")
		assert.ErrorIs(t, err, ErrReverseRequestExists)
	})

	t.Run("rejects request between existing friends", func(t *testing.T) {
		s := newTestServices(t)
		createUser(t, s.db, "u1", "alice")
		createUser(t, s.db, "u2", "bob")

		req, err := s.friends.SendRequest(ctx, "u1", "u2")
		require.NoError(t, err)
		require.NoError(t, s.friends.AcceptRequest(ctx, "u2", req.ID))

		_, err = s.friends.SendRequest(ctx, "u1", "u2")
		assert.ErrorIs(t, err, ErrAlreadyFriends)
	})
}

func TestAcceptRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("commits edge, resolves request, fans out, bootstraps conversation", func(t *testing.T) {
		s := newTestServices(t)
		createUser(t, s.db, "u1", "alice")
		createUser(t, s.db, "u2", "bob")

		req, err := s.friends.SendRequest(ctx, "u1", "u2")
		require.NoError(t, err)

		require.NoError(t, s.friends.AcceptRequest(ctx, "u2", req.ID))

		ok, err := s.friends.AreFriends(ctx, "u1", "u2")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = s.friends.AreFriends(ctx, "u2", "u1")
		require.NoError(t, err)
		assert.True(t, ok)

		// Pending request is gone: terminal state is absence.
		var count int64
		require.NoError(t, s.db.Model(&models.FriendRequest{}).Count(&count).Error)
		assert.Zero(t, count)

		// Requester was notified of the acceptance.
		notifs, err := s.notifications.List(ctx, "u1", []models.NotificationType{models.NotificationFriendAccepted})
		require.NoError(t, err)
		require.Len(t, notifs, 1)
		assert.Equal(t, "u2", notifs[0].FromUID)

		// The originating friend_request notification is now read.
		notifs, err = s.notifications.List(ctx, "u2", nil)
		require.NoError(t, err)
		require.Len(t, notifs, 1)
		assert.True(t, notifs[0].Read)

		// Conversation exists under the deterministic id.
		conv, err := s.chat.GetConversation(ctx, ConversationIDFor("u1", "u2"), "u1")
		require.NoError(t, err)
		assert.Equal(t, "u1", conv.ParticipantA)
		assert.Equal(t, "u2", conv.ParticipantB)
	})

	t.Run("missing request is idempotent success", func(t *testing.T) {
		s := newTestServices(t)
		createUser(t, s.db, "u2", "bob")

		assert.NoError(t, s.friends.AcceptRequest(ctx, "u2", 4242))
	})

	t.Run("only the recipient may accept", func(t *testing.T) {
		s := newTestServices(t)
		createUser(t, s.db, "u1", "alice")
		createUser(t, s.db, "u2", "bob")

		req, err := s.friends.SendRequest(ctx, "u1", "u2")
		require.NoError(t, err)

		assert.ErrorIs(t, s.friends.AcceptRequest(ctx, "u1", req.ID), ErrNotAllowed)

		ok, err := s.friends.AreFriends(ctx, "u1", "u2")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("double accept leaves one edge", func(t *testing.T) {
		s := newTestServices(t)
		createUser(t, s.db, "u1", "alice")
		createUser(t, s.db, "u2", "bob")

		req, err := s.friends.SendRequest(ctx, "u1", "u2")
		require.NoError(t, err)

		require.NoError(t, s.friends.AcceptRequest(ctx, "u2", req.ID))
		require.NoError(t, s.friends.AcceptRequest(ctx, "u2", req.ID))

		var count int64
		require.NoError(t, s.db.Model(&models.FriendEdge{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})
}

func TestRejectRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("removes request without creating an edge", func(t *testing.T) {
		s := newTestServices(t)
		createUser(t, s.db, "u1", "alice")
		createUser(t, s.db, "u2", "bob")

		req, err := s.friends.SendRequest(ctx, "u1", "u2")
		require.NoError(t, err)

		require.NoError(t, s.friends.RejectRequest(ctx, "u2", req.ID))

		ok, err := s.friends.AreFriends(ctx, "u1", "u2")
		require.NoError(t, err)
		assert.False(t, ok)

		status, err := s.friends.Status(ctx, "u1", "u2")
		require.NoError(t, err)
		assert.Equal(t, RelationNone, status)

		notifs, err := s.notifications.List(ctx, "u1", []models.NotificationType{models.NotificationFriendRejected})
		require.NoError(t, err)
		assert.Len(t, notifs, 1)
	})

	t.Run("missing request is idempotent success", func(t *testing.T) {
		s := newTestServices(t)
		createUser(t, s.db, "u2", "bob")

		assert.NoError(t, s.friends.RejectRequest(ctx, "u2", 99))
	})
}

func TestUnfriend(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the edge and allows a fresh request", func(t *testing.T) {
		s := newTestServices(t)
		createUser(t, s.db, "u1", "alice")
		createUser(t, s.db, "u2", "bob")

		req, err := s.friends.SendRequest(ctx, "u1", "u2")
		require.NoError(t, err)
		require.NoError(t, s.friends.AcceptRequest(ctx, "u2", req.ID))

		require.NoError(t, s.friends.Unfriend(ctx, "u1", "u2"))

		ok, err := s.friends.AreFriends(ctx, "u1", "u2")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = s.friends.SendRequest(ctx, "u1", "u2")
		assert.NoError(t, err)
	})

	t.Run("zero matches is a no-op success", func(t *testing.T) {
		s := newTestServices(t)
		assert.NoError(t, s.friends.Unfriend(ctx, "u1", "u2"))
	})
}

func TestListFriends(t *testing.T) {
	ctx := context.Background()

	t.Run("hydrates peers and skips unknown participants", func(t *testing.T) {
		s := newTestServices(t)
		createUser(t, s.db, "u1", "alice")
		createUser(t, s.db, "u2", "bob")

		req, err := s.friends.SendRequest(ctx, "u1", "u2")
		require.NoError(t, err)
		require.NoError(t, s.friends.AcceptRequest(ctx, "u2", req.ID))

		// An edge whose peer was deleted must be skipped, not fail.
		a, b := models.SortPair("u1", "ghost")
		require.NoError(t, s.db.Create(&models.FriendEdge{
			PairKey:  models.PairKey("u1", "ghost"),
			UserAUID: a,
			UserBUID: b,
		}).Error)

		friends, err := s.friends.ListFriends(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, friends, 1)
		assert.Equal(t, "u2", friends[0].UID)
	})

	t.Run("empty for a user with no edges", func(t *testing.T) {
		s := newTestServices(t)
		friends, err := s.friends.ListFriends(ctx, "loner")
		require.NoError(t, err)
		assert.Empty(t, friends)
	})
}

func TestStatusOrdering(t *testing.T) {
	ctx := context.Background()

	// An edge dominates a stale pending request.
	s := newTestServices(t)
	createUser(t, s.db, "u1", "alice")
	createUser(t, s.db, "u2", "bob")

	a, b := models.SortPair("u1", "u2")
	require.NoError(t, s.db.Create(&models.FriendEdge{
		PairKey:  models.PairKey("u1", "u2"),
		UserAUID: a,
		UserBUID: b,
	}).Error)
	require.NoError(t, s.db.Create(&models.FriendRequest{
		PairKey: models.PairKey("u1", "u2"),
		FromUID: "u1",
		ToUID:   "u2",
	}).Error)

	status, err := s.friends.Status(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, RelationFriends, status)
}
