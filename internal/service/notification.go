package service

import (
	"context"
	"log"
	"time"

	"leaflens/backend/internal/hub"
	"leaflens/backend/internal/models"

	"gorm.io/gorm"
)

// NotificationService appends notification records and fans them out to
// live subscribers. Appends never block the triggering social-graph
// mutation: callers log-and-continue on Emit failure.
type NotificationService struct {
	db  *gorm.DB
	hub *hub.Hub
}

func NewNotificationService(db *gorm.DB, h *hub.Hub) *NotificationService {
	return &NotificationService{db: db, hub: h}
}

// NotificationTopic is the hub topic carrying a recipient's live feed.
func NotificationTopic(uid string) string {
	return "notifications:" + uid
}

// Emit appends an immutable notification for recipientUID and pushes a
// fresh snapshot to live subscribers.
func (s *NotificationService) Emit(ctx context.Context, recipientUID, fromUID string, t models.NotificationType, title, message string, requestID uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	n := models.Notification{
		UserUID:   recipientUID,
		FromUID:   fromUID,
		Type:      t,
		Title:     title,
		Message:   message,
		RequestID: requestID,
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return err
	}
	s.publish(recipientUID)
	return nil
}

// List returns the recipient's notifications newest-first. The type filter
// is a pure predicate applied over the single authoritative feed, not a
// separate query, so filtered and unfiltered views can never diverge.
func (s *NotificationService) List(ctx context.Context, recipientUID string, types []models.NotificationType) ([]models.Notification, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var all []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_uid = ?", recipientUID).
		Order("created_at DESC, id DESC").
		Find(&all).Error
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return all, nil
	}

	want := make(map[models.NotificationType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	filtered := make([]models.Notification, 0, len(all))
	for _, n := range all {
		if want[n.Type] {
			filtered = append(filtered, n)
		}
	}
	return filtered, nil
}

// UnreadCount returns the number of unread notifications for a recipient.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientUID string) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_uid = ? AND read = ?", recipientUID, false).
		Count(&count).Error
	return count, err
}

// Subscribe attaches a live feed client for the recipient. consumerID
// deduplicates reconnecting views: at most one client per (feed, consumer).
func (s *NotificationService) Subscribe(recipientUID, consumerID string) hub.Client {
	return s.hub.Subscribe(NotificationTopic(recipientUID), consumerID)
}

// Unsubscribe detaches a live feed client.
func (s *NotificationService) Unsubscribe(recipientUID string, client hub.Client) {
	s.hub.Unsubscribe(NotificationTopic(recipientUID), client)
}

// MarkRead marks one of the recipient's notifications read and handled.
// Marking an already-read or missing notification is a no-op success.
func (s *NotificationService) MarkRead(ctx context.Context, recipientUID string, notificationID uint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_uid = ?", notificationID, recipientUID).
		Updates(map[string]interface{}{"read": true, "handled": true})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.publish(recipientUID)
	}
	return nil
}

// MarkAllRead marks every unread notification for the recipient read.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientUID string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_uid = ? AND read = ?", recipientUID, false).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.publish(recipientUID)
	}
	return nil
}

// MarkRequestRead marks the friend_request notification that fromUID's
// request produced for recipientUID as read. Used when the request is
// resolved; idempotent and tolerant of the notification never existing.
func (s *NotificationService) MarkRequestRead(ctx context.Context, recipientUID, fromUID string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_uid = ? AND from_uid = ? AND type = ?", recipientUID, fromUID, models.NotificationFriendRequest).
		Updates(map[string]interface{}{"read": true, "handled": true})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.publish(recipientUID)
	}
	return nil
}

// Sweep deletes read notifications older than maxAge. Unread rows are kept
// regardless of age. Returns the number of rows removed.
func (s *NotificationService) Sweep(ctx context.Context, maxAge time.Duration) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cutoff := time.Now().Add(-maxAge)
	res := s.db.WithContext(ctx).
		Where("read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

// publish pushes the full newest-first snapshot to the recipient's topic.
func (s *NotificationService) publish(recipientUID string) {
	snapshot, err := s.List(context.Background(), recipientUID, nil)
	if err != nil {
		log.Printf("notification publish for %s failed: %v", recipientUID, err)
		return
	}
	s.hub.Broadcast(NotificationTopic(recipientUID), hub.Event{
		Type:    "notifications",
		Payload: snapshot,
	})
}
