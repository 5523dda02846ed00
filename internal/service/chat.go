package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"leaflens/backend/internal/hub"
	"leaflens/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatService owns conversations and their messages. Conversation identity
// is always the deterministic sorted-pair id, so both participants resolve
// the same record without a lookup query and concurrent first messages
// cannot create duplicates.
type ChatService struct {
	db  *gorm.DB
	hub *hub.Hub
}

func NewChatService(db *gorm.DB, h *hub.Hub) *ChatService {
	return &ChatService{db: db, hub: h}
}

// ConversationIDFor derives the canonical conversation id for a pair of
// users: both UIDs sorted lexically, joined with an underscore.
func ConversationIDFor(a, b string) string {
	return models.PairKey(a, b)
}

// ConversationTopic is the hub topic carrying a conversation's live stream.
func ConversationTopic(conversationID string) string {
	return "conversation:" + conversationID
}

// EnsureConversation creates the conversation for a pair if it does not
// exist yet. Safe to call concurrently from both participants: the insert
// is a do-nothing upsert on the deterministic id, and an existing row's
// LastMessageAt is never clobbered.
func (s *ChatService) EnsureConversation(ctx context.Context, a, b string) (*models.Conversation, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	first, second := models.SortPair(a, b)
	now := time.Now()
	conv := models.Conversation{
		ID:            ConversationIDFor(a, b),
		ParticipantA:  first,
		ParticipantB:  second,
		CreatedAt:     now,
		LastMessageAt: now,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&conv).Error
	if err != nil {
		return nil, err
	}

	var existing models.Conversation
	if err := s.db.WithContext(ctx).First(&existing, "id = ?", conv.ID).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// GetConversation returns a conversation the requester participates in.
func (s *ChatService) GetConversation(ctx context.Context, conversationID, requesterUID string) (*models.Conversation, error) {
	conversationID, err := canonicalConversationID(conversationID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var conv models.Conversation
	err = s.db.WithContext(ctx).First(&conv, "id = ?", conversationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if conv.ParticipantA != requesterUID && conv.ParticipantB != requesterUID {
		return nil, ErrNotAllowed
	}
	return &conv, nil
}

// ListConversations returns the user's conversations, most recent activity
// first. This backs the Messages view.
func (s *ChatService) ListConversations(ctx context.Context, uid string) ([]models.Conversation, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var convs []models.Conversation
	err := s.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", uid, uid).
		Order("last_message_at DESC").
		Find(&convs).Error
	return convs, err
}

// SendMessage appends a message to the conversation and bumps its
// LastMessageAt. The conversation is created first if absent (idempotent
// create-then-append), with participants recovered from the id itself.
func (s *ChatService) SendMessage(ctx context.Context, conversationID, senderUID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	a, b, err := participantsOf(conversationID)
	if err != nil {
		return nil, err
	}
	if senderUID != a && senderUID != b {
		return nil, ErrNotAllowed
	}
	// The sorted pair id is the only conversation identity; an unsorted
	// caller-supplied id must land on the same record and topic.
	conversationID = ConversationIDFor(a, b)

	if _, err := s.EnsureConversation(ctx, a, b); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	msg := models.Message{
		ConversationID: conversationID,
		SenderUID:      senderUID,
		Text:           text,
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Update("last_message_at", msg.CreatedAt).Error; err != nil {
		return nil, err
	}

	s.hub.Broadcast(ConversationTopic(conversationID), hub.Event{
		Type:    "message.created",
		Payload: msg,
	})
	return &msg, nil
}

// ListMessages returns a conversation's messages ascending by creation
// time. Only participants may read.
func (s *ChatService) ListMessages(ctx context.Context, conversationID, requesterUID string) ([]models.Message, error) {
	conversationID, err := canonicalConversationID(conversationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetConversation(ctx, conversationID, requesterUID); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var msgs []models.Message
	err = s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

// Subscribe attaches a live message stream client for the conversation.
func (s *ChatService) Subscribe(conversationID, consumerID string) hub.Client {
	if id, err := canonicalConversationID(conversationID); err == nil {
		conversationID = id
	}
	return s.hub.Subscribe(ConversationTopic(conversationID), consumerID)
}

// Unsubscribe detaches a live message stream client.
func (s *ChatService) Unsubscribe(conversationID string, client hub.Client) {
	if id, err := canonicalConversationID(conversationID); err == nil {
		conversationID = id
	}
	s.hub.Unsubscribe(ConversationTopic(conversationID), client)
}

// SubscribeWithSnapshot attaches a live stream client and returns the
// current ascending message snapshot. The subscription is registered
// before the snapshot read, so a message appended between the two arrives
// on the channel instead of falling into the gap.
func (s *ChatService) SubscribeWithSnapshot(ctx context.Context, conversationID, requesterUID, consumerID string) (hub.Client, []models.Message, error) {
	client := s.Subscribe(conversationID, consumerID)
	msgs, err := s.ListMessages(ctx, conversationID, requesterUID)
	if err != nil {
		s.Unsubscribe(conversationID, client)
		return nil, nil, err
	}
	return client, msgs, nil
}

// participantsOf recovers the two participant UIDs from a deterministic
// conversation id. UIDs never contain underscores (Firebase UIDs are
// alphanumeric, local ones are UUIDs), so the split is unambiguous.
func participantsOf(conversationID string) (string, string, error) {
	parts := strings.Split(conversationID, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrNotFound
	}
	return parts[0], parts[1], nil
}

// canonicalConversationID re-derives the sorted pair id from whatever the
// caller supplied, so reversed ids resolve to the canonical record.
func canonicalConversationID(conversationID string) (string, error) {
	a, b, err := participantsOf(conversationID)
	if err != nil {
		return "", err
	}
	return ConversationIDFor(a, b), nil
}
