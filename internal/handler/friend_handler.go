package handler

import (
	"net/http"
	"strconv"
	"time"

	"leaflens/backend/internal/auth"
	"leaflens/backend/internal/models"
	"leaflens/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// SendRequestInput defines the structure for sending a friend request.
type SendRequestInput struct {
	ToUID string `json:"to_uid" binding:"required" example:"u2"`
}

// FriendRequestResponse defines the structure for a pending friend request.
type FriendRequestResponse struct {
	ID        uint   `json:"id" example:"1"`
	FromUID   string `json:"from_uid" example:"u1"`
	ToUID     string `json:"to_uid" example:"u2"`
	CreatedAt string `json:"created_at"`
}

// endregion

// FriendHandler serves the friend-request lifecycle and friend graph queries.
type FriendHandler struct {
	friends *service.FriendshipService
}

func NewFriendHandler(friends *service.FriendshipService) *FriendHandler {
	return &FriendHandler{friends: friends}
}

// SendRequest godoc
// @Summary      Send friend request
// @Description  Sends a friend request to another user and notifies them.
// @Tags         friendship
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body SendRequestInput true "Target user"
// @Success      201  {object}  FriendRequestResponse
// @Failure      400  {object}  ErrorResponse "Self request"
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Target user not found"
// @Failure      409  {object}  ErrorResponse "Already friends, duplicate, or reverse pending request"
// @Router       /friends/requests [post]
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var input SendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.friends.SendRequest(c.Request.Context(), auth.CurrentUID(c), input.ToUID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, buildRequestResponse(*req))
}

// ListRequests godoc
// @Summary      List pending friend requests
// @Description  Lists the caller's pending requests, filterable by direction.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        direction query  string  false  "Filter by direction (incoming, outgoing)"
// @Success      200  {array}   FriendRequestResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /friends/requests [get]
func (h *FriendHandler) ListRequests(c *gin.Context) {
	requests, err := h.friends.ListRequests(c.Request.Context(), auth.CurrentUID(c), c.Query("direction"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := make([]FriendRequestResponse, 0, len(requests))
	for _, r := range requests {
		responses = append(responses, buildRequestResponse(r))
	}
	c.JSON(http.StatusOK, responses)
}

// AcceptRequest godoc
// @Summary      Accept friend request
// @Description  Accepts a pending request addressed to the caller. A request that was already resolved by a concurrent accept counts as success.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  map[string]string "{"message": "Request accepted"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Request is not addressed to the caller"
// @Router       /friends/requests/{id}/accept [post]
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	requestID, ok := parseRequestID(c)
	if !ok {
		return
	}

	if err := h.friends.AcceptRequest(c.Request.Context(), auth.CurrentUID(c), requestID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request accepted"})
}

// RejectRequest godoc
// @Summary      Reject friend request
// @Description  Declines a pending request addressed to the caller; already-resolved requests count as success.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  map[string]string "{"message": "Request declined"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /friends/requests/{id}/reject [post]
func (h *FriendHandler) RejectRequest(c *gin.Context) {
	requestID, ok := parseRequestID(c)
	if !ok {
		return
	}

	if err := h.friends.RejectRequest(c.Request.Context(), auth.CurrentUID(c), requestID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request declined"})
}

// ListFriends godoc
// @Summary      List friends
// @Description  Returns the caller's hydrated friend list.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   PublicUserResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /friends [get]
func (h *FriendHandler) ListFriends(c *gin.Context) {
	friends, err := h.friends.ListFriends(c.Request.Context(), auth.CurrentUID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := make([]PublicUserResponse, 0, len(friends))
	for _, u := range friends {
		responses = append(responses, PublicUserResponse{
			UID:          u.UID,
			DisplayName:  u.DisplayName,
			PhotoURL:     u.PhotoURL,
			Relationship: string(service.RelationFriends),
		})
	}
	c.JSON(http.StatusOK, responses)
}

// Unfriend godoc
// @Summary      Remove a friend
// @Description  Removes the friendship with the target user; removing a non-friend is a no-op success.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        uid  path      string  true  "Target User UID"
// @Success      200  {object}  map[string]string "{"message": "Friend removed"}"
// @Failure      401  {object}  ErrorResponse
// @Router       /friends/{uid} [delete]
func (h *FriendHandler) Unfriend(c *gin.Context) {
	if err := h.friends.Unfriend(c.Request.Context(), auth.CurrentUID(c), c.Param("uid")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Friend removed"})
}

// Status godoc
// @Summary      Relationship status
// @Description  Returns the caller's relation to the target: friends, sent, received, or none.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        uid  path      string  true  "Target User UID"
// @Success      200  {object}  map[string]string "{"status": "friends"}"
// @Failure      401  {object}  ErrorResponse
// @Router       /friends/status/{uid} [get]
func (h *FriendHandler) Status(c *gin.Context) {
	status, err := h.friends.Status(c.Request.Context(), auth.CurrentUID(c), c.Param("uid"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(status)})
}

// region --- Helpers ---

func parseRequestID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return 0, false
	}
	return uint(id), true
}

func buildRequestResponse(r models.FriendRequest) FriendRequestResponse {
	return FriendRequestResponse{
		ID:        r.ID,
		FromUID:   r.FromUID,
		ToUID:     r.ToUID,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// endregion
