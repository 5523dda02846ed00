package service

import (
	"context"
	"errors"
	"log"

	"leaflens/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationshipStatus describes one user's relation to another, from the
// first user's point of view.
type RelationshipStatus string

const (
	RelationFriends  RelationshipStatus = "friends"
	RelationSent     RelationshipStatus = "sent"
	RelationReceived RelationshipStatus = "received"
	RelationNone     RelationshipStatus = "none"
)

// FriendshipService owns the friend-request lifecycle and the friend
// graph derived from accepted requests. Request terminal states are
// realized by deleting the pending row; the notification history is the
// only durable trace of a resolution.
type FriendshipService struct {
	db            *gorm.DB
	notifications *NotificationService
	chat          *ChatService
}

func NewFriendshipService(db *gorm.DB, notifications *NotificationService, chat *ChatService) *FriendshipService {
	return &FriendshipService{db: db, notifications: notifications, chat: chat}
}

// SendRequest creates a pending friend request from fromUID to toUID and
// notifies the recipient. The pending row is keyed by the sorted pair, so
// two users racing to request each other cannot both succeed: the loser of
// the race gets the same conflict error as a sequential caller.
func (s *FriendshipService) SendRequest(ctx context.Context, fromUID, toUID string) (*models.FriendRequest, error) {
	if fromUID == toUID {
		return nil, ErrSelfRequest
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()
	db := s.db.WithContext(ctx)

	var target models.User
	if err := db.First(&target, "uid = ?", toUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	pairKey := models.PairKey(fromUID, toUID)

	var edgeCount int64
	if err := db.Model(&models.FriendEdge{}).Where("pair_key = ?", pairKey).Count(&edgeCount).Error; err != nil {
		return nil, err
	}
	if edgeCount > 0 {
		return nil, ErrAlreadyFriends
	}

	if err := s.conflictForPending(db, pairKey, fromUID); err != nil {
		return nil, err
	}

	req := models.FriendRequest{
		PairKey: pairKey,
		FromUID: fromUID,
		ToUID:   toUID,
	}
	if err := db.Create(&req).Error; err != nil {
		// Unique pair-key violation: a concurrent request won the race.
		// Re-read to report the right conflict.
		if conflictErr := s.conflictForPending(db, pairKey, fromUID); conflictErr != nil {
			return nil, conflictErr
		}
		return nil, err
	}

	// Fan-out must not roll back the request on failure.
	if err := s.notifications.Emit(ctx, toUID, fromUID, models.NotificationFriendRequest,
		"New friend request", "sent you a friend request", req.ID); err != nil {
		log.Printf("friend_request notification for %s failed: %v", toUID, err)
	}

	return &req, nil
}

// conflictForPending returns the conflict error matching an existing
// pending request on the pair, or nil when none exists.
func (s *FriendshipService) conflictForPending(db *gorm.DB, pairKey, fromUID string) error {
	var existing models.FriendRequest
	err := db.First(&existing, "pair_key = ?", pairKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.FromUID == fromUID {
		return ErrDuplicateRequest
	}
	return ErrReverseRequestExists
}

// AcceptRequest resolves a pending request addressed to actorUID: commits
// the friend edge and removes the request in one transaction, then marks
// the originating notification read, notifies the requester, and bootstraps
// the conversation. A request that no longer exists is treated as already
// resolved (concurrent double-accept is an expected race, not a failure).
func (s *FriendshipService) AcceptRequest(ctx context.Context, actorUID string, requestID uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	db := s.db.WithContext(ctx)

	var req models.FriendRequest
	if err := db.First(&req, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if req.ToUID != actorUID {
		return ErrNotAllowed
	}

	a, b := models.SortPair(req.FromUID, req.ToUID)
	err := db.Transaction(func(tx *gorm.DB) error {
		edge := models.FriendEdge{
			PairKey:  req.PairKey,
			UserAUID: a,
			UserBUID: b,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
			return err
		}
		return tx.Delete(&models.FriendRequest{}, req.ID).Error
	})
	if err != nil {
		return err
	}

	// The follow-on steps are idempotent and replay-safe; their failure
	// must not undo the committed edge.
	if err := s.notifications.MarkRequestRead(ctx, req.ToUID, req.FromUID); err != nil {
		log.Printf("marking request notification read for %s failed: %v", req.ToUID, err)
	}
	if err := s.notifications.Emit(ctx, req.FromUID, req.ToUID, models.NotificationFriendAccepted,
		"Friend request accepted", "accepted your friend request", req.ID); err != nil {
		log.Printf("friend_accepted notification for %s failed: %v", req.FromUID, err)
	}
	if _, err := s.chat.EnsureConversation(ctx, req.FromUID, req.ToUID); err != nil {
		log.Printf("conversation bootstrap for %s failed: %v", req.PairKey, err)
	}

	return nil
}

// RejectRequest resolves a pending request addressed to actorUID by
// deleting it, marks the originating notification read, and notifies the
// requester. Missing requests are tolerated the same way as in AcceptRequest.
func (s *FriendshipService) RejectRequest(ctx context.Context, actorUID string, requestID uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	db := s.db.WithContext(ctx)

	var req models.FriendRequest
	if err := db.First(&req, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if req.ToUID != actorUID {
		return ErrNotAllowed
	}

	if err := db.Delete(&models.FriendRequest{}, req.ID).Error; err != nil {
		return err
	}

	if err := s.notifications.MarkRequestRead(ctx, req.ToUID, req.FromUID); err != nil {
		log.Printf("marking request notification read for %s failed: %v", req.ToUID, err)
	}
	if err := s.notifications.Emit(ctx, req.FromUID, req.ToUID, models.NotificationFriendRejected,
		"Friend request declined", "declined your friend request", req.ID); err != nil {
		log.Printf("friend_rejected notification for %s failed: %v", req.FromUID, err)
	}

	return nil
}

// AreFriends reports whether an edge exists for the unordered pair.
func (s *FriendshipService) AreFriends(ctx context.Context, a, b string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int64
	err := s.db.WithContext(ctx).Model(&models.FriendEdge{}).
		Where("pair_key = ?", models.PairKey(a, b)).
		Count(&count).Error
	return count > 0, err
}

// Status resolves currentUID's relation to targetUID. An edge dominates
// any stale pending request; then an outgoing request reads as "sent", an
// incoming one as "received".
func (s *FriendshipService) Status(ctx context.Context, currentUID, targetUID string) (RelationshipStatus, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	db := s.db.WithContext(ctx)

	pairKey := models.PairKey(currentUID, targetUID)

	var edgeCount int64
	if err := db.Model(&models.FriendEdge{}).Where("pair_key = ?", pairKey).Count(&edgeCount).Error; err != nil {
		return RelationNone, err
	}
	if edgeCount > 0 {
		return RelationFriends, nil
	}

	var req models.FriendRequest
	err := db.First(&req, "pair_key = ?", pairKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return RelationNone, nil
	}
	if err != nil {
		return RelationNone, err
	}
	if req.FromUID == currentUID {
		return RelationSent, nil
	}
	return RelationReceived, nil
}

// ListFriends returns the hydrated peer list for a user. An edge whose
// other participant no longer resolves to a user is silently skipped.
func (s *FriendshipService) ListFriends(ctx context.Context, uid string) ([]models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	db := s.db.WithContext(ctx)

	var edges []models.FriendEdge
	if err := db.Where("user_a_uid = ? OR user_b_uid = ?", uid, uid).Order("created_at DESC").Find(&edges).Error; err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return []models.User{}, nil
	}

	peerUIDs := make([]string, 0, len(edges))
	for _, e := range edges {
		if e.UserAUID == uid {
			peerUIDs = append(peerUIDs, e.UserBUID)
		} else {
			peerUIDs = append(peerUIDs, e.UserAUID)
		}
	}

	var users []models.User
	if err := db.Where("uid IN ?", peerUIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	byUID := make(map[string]models.User, len(users))
	for _, u := range users {
		byUID[u.UID] = u
	}

	friends := make([]models.User, 0, len(peerUIDs))
	for _, peer := range peerUIDs {
		if u, ok := byUID[peer]; ok {
			friends = append(friends, u)
		}
	}
	return friends, nil
}

// ListRequests returns the user's pending requests, incoming or outgoing.
func (s *FriendshipService) ListRequests(ctx context.Context, uid, direction string) ([]models.FriendRequest, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := s.db.WithContext(ctx)
	switch direction {
	case "incoming":
		query = query.Where("to_uid = ?", uid)
	case "outgoing":
		query = query.Where("from_uid = ?", uid)
	default:
		query = query.Where("from_uid = ? OR to_uid = ?", uid, uid)
	}

	var requests []models.FriendRequest
	err := query.Order("created_at DESC").Find(&requests).Error
	return requests, err
}

// Unfriend removes every edge for the unordered pair. Zero matches is a
// no-op success, so the operation is safe to repeat.
func (s *FriendshipService) Unfriend(ctx context.Context, a, b string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.db.WithContext(ctx).
		Where("pair_key = ?", models.PairKey(a, b)).
		Delete(&models.FriendEdge{}).Error
}
