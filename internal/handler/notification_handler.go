package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"leaflens/backend/internal/auth"
	"leaflens/backend/internal/hub"
	"leaflens/backend/internal/models"
	"leaflens/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// NotificationHandler serves the notification feed and its live stream.
type NotificationHandler struct {
	notifications *service.NotificationService
}

func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List godoc
// @Summary      List notifications
// @Description  Returns the caller's notifications newest-first, optionally narrowed to specific types.
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        types query  string  false  "Comma-separated types (friend_request, friend_accepted, friend_rejected, generic)"
// @Success      200  {array}   models.Notification
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	list, err := h.notifications.List(c.Request.Context(), auth.CurrentUID(c), parseTypes(c.Query("types")))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UnreadCount godoc
// @Summary      Count unread notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]int64 "{"unread": 3}"
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications/unread [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notifications.UnreadCount(c.Request.Context(), auth.CurrentUID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// Stream godoc
// @Summary      Live notification feed
// @Description  Server-sent events: delivers the full newest-first snapshot immediately and again on every change, until the client disconnects.
// @Tags         notifications
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        consumer query  string  false  "Consumer id; reconnecting with the same id replaces the previous stream"
// @Success      200  "event stream"
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications/stream [get]
func (h *NotificationHandler) Stream(c *gin.Context) {
	uid := auth.CurrentUID(c)
	consumer := c.DefaultQuery("consumer", uid)

	client := h.notifications.Subscribe(uid, consumer)

	// Seed the stream with the current snapshot so the view renders
	// without waiting for the next change.
	if snapshot, err := h.notifications.List(c.Request.Context(), uid, nil); err == nil {
		if seed, err := json.Marshal(hub.Event{Type: "notifications", Payload: snapshot}); err == nil {
			select {
			case client <- seed:
			default:
			}
		}
	}

	streamEvents(c, client, func() {
		h.notifications.Unsubscribe(uid, client)
	})
}

// MarkRead godoc
// @Summary      Mark a notification read
// @Description  Idempotent: marking an already-read or missing notification succeeds.
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Notification ID"
// @Success      200  {object}  map[string]string "{"message": "Marked read"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseRequestID(c)
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), auth.CurrentUID(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Marked read"})
}

// MarkAllRead godoc
// @Summary      Mark all notifications read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string "{"message": "All marked read"}"
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.notifications.MarkAllRead(c.Request.Context(), auth.CurrentUID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All marked read"})
}

func parseTypes(raw string) []models.NotificationType {
	if raw == "" {
		return nil
	}
	var types []models.NotificationType
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			types = append(types, models.NotificationType(part))
		}
	}
	return types
}
