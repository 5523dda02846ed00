package handler

import (
	"encoding/json"
	"net/http"

	"leaflens/backend/internal/auth"
	"leaflens/backend/internal/hub"
	"leaflens/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// OpenConversationInput identifies the peer to open a conversation with.
type OpenConversationInput struct {
	PeerUID string `json:"peer_uid" binding:"required" example:"u2"`
}

// SendMessageInput carries a new chat message.
type SendMessageInput struct {
	Text string `json:"text" binding:"required" example:"hey, your monstera looks great"`
}

// endregion

// ChatHandler serves conversations and their message streams.
type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// ListConversations godoc
// @Summary      List conversations
// @Description  Returns the caller's conversations, most recent activity first.
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Conversation
// @Failure      401  {object}  ErrorResponse
// @Router       /conversations [get]
func (h *ChatHandler) ListConversations(c *gin.Context) {
	convs, err := h.chat.ListConversations(c.Request.Context(), auth.CurrentUID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

// OpenConversation godoc
// @Summary      Open a conversation with a peer
// @Description  Returns the conversation for the caller and the peer, creating it if absent. The id is deterministic, so both sides always land on the same record.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body OpenConversationInput true "Peer"
// @Success      200  {object}  models.Conversation
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /conversations [post]
func (h *ChatHandler) OpenConversation(c *gin.Context) {
	var input OpenConversationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := h.chat.EnsureConversation(c.Request.Context(), auth.CurrentUID(c), input.PeerUID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// GetConversation godoc
// @Summary      Get a conversation
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Conversation ID"
// @Success      200  {object}  models.Conversation
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Caller is not a participant"
// @Failure      404  {object}  ErrorResponse
// @Router       /conversations/{id} [get]
func (h *ChatHandler) GetConversation(c *gin.Context) {
	conv, err := h.chat.GetConversation(c.Request.Context(), c.Param("id"), auth.CurrentUID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// ListMessages godoc
// @Summary      List messages
// @Description  Returns a conversation's messages ascending by creation time.
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Conversation ID"
// @Success      200  {array}   models.Message
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /conversations/{id}/messages [get]
func (h *ChatHandler) ListMessages(c *gin.Context) {
	msgs, err := h.chat.ListMessages(c.Request.Context(), c.Param("id"), auth.CurrentUID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// SendMessage godoc
// @Summary      Send a message
// @Description  Appends a message, creating the conversation first if it does not exist yet.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string            true  "Conversation ID"
// @Param        input body  SendMessageInput  true  "Message"
// @Success      201  {object}  models.Message
// @Failure      400  {object}  ErrorResponse "Empty message"
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /conversations/{id}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chat.SendMessage(c.Request.Context(), c.Param("id"), auth.CurrentUID(c), input.Text)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// Stream godoc
// @Summary      Live message stream
// @Description  Server-sent events: delivers the current ascending message snapshot, then every append, until the client disconnects.
// @Tags         chat
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        id       path   string  true   "Conversation ID"
// @Param        consumer query  string  false  "Consumer id; reconnecting with the same id replaces the previous stream"
// @Success      200  "event stream"
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /conversations/{id}/stream [get]
func (h *ChatHandler) Stream(c *gin.Context) {
	uid := auth.CurrentUID(c)
	conversationID := c.Param("id")
	consumer := c.DefaultQuery("consumer", uid)

	client, snapshot, err := h.chat.SubscribeWithSnapshot(c.Request.Context(), conversationID, uid, consumer)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if seed, err := json.Marshal(hub.Event{Type: "messages", Payload: snapshot}); err == nil {
		select {
		case client <- seed:
		default:
		}
	}

	streamEvents(c, client, func() {
		h.chat.Unsubscribe(conversationID, client)
	})
}
