package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"leaflens/backend/internal/auth"
	"leaflens/backend/internal/models"
	"leaflens/backend/internal/presence"
	"leaflens/backend/internal/service"
	"leaflens/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	DisplayName string `json:"display_name" binding:"required" example:"plantlover"`
	Email       string `json:"email" binding:"required,email" example:"test@example.com"`
	Password    string `json:"password" binding:"required,min=8" example:"password123"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Login    string `json:"login" binding:"required" example:"plantlover"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// UpdateProfileInput defines the structure for a profile edit.
type UpdateProfileInput struct {
	DisplayName string `json:"display_name" example:"plantlover"`
	PhotoURL    string `json:"photo_url" example:"https://example.com/me.jpg"`
}

// PublicUserResponse defines the structure for a user's public profile.
type PublicUserResponse struct {
	UID          string `json:"uid" example:"u1"`
	DisplayName  string `json:"display_name" example:"plantlover"`
	PhotoURL     string `json:"photo_url,omitempty"`
	Relationship string `json:"relationship,omitempty" example:"friends"`
}

// PrivateUserResponse defines the structure for the authenticated user's own profile.
type PrivateUserResponse struct {
	UID         string `json:"uid" example:"u1"`
	DisplayName string `json:"display_name" example:"plantlover"`
	Email       string `json:"email" example:"test@example.com"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// endregion

// UserHandler serves account, profile, search and presence endpoints.
type UserHandler struct {
	users    *service.UserService
	friends  *service.FriendshipService
	presence *presence.Store
}

func NewUserHandler(users *service.UserService, friends *service.FriendshipService, pres *presence.Store) *UserHandler {
	return &UserHandler{users: users, friends: friends, presence: pres}
}

// region --- Auth Handlers ---

// Register godoc
// @Summary      Register a new user
// @Description  Creates a new user and returns an authentication token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  map[string]string "{"token": "..."}"
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), input.DisplayName, input.Email, input.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	token, err := jwt.GenerateToken(user.UID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "uid": user.UID})
}

// Login godoc
// @Summary      Log in a user
// @Description  Authenticates a user with display name/email and password, and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  map[string]string "{"token": "..."}"
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Failure      404  {object}  ErrorResponse "User not found"
// @Router       /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), input.Login, input.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	token, err := jwt.GenerateToken(user.UID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	// Best-effort presence bump on sign-in.
	if err := h.presence.Heartbeat(c.Request.Context(), user.UID); err != nil {
		log.Printf("presence heartbeat on login failed for %s: %v", user.UID, err)
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "uid": user.UID})
}

// SyncProfile godoc
// @Summary      Sync the authenticated profile
// @Description  Upserts the caller's profile from their identity-provider claims (Firebase mode).
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PrivateUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me/sync [post]
func (h *UserHandler) SyncProfile(c *gin.Context) {
	uid := auth.CurrentUID(c)
	email := c.GetString("email")
	displayName := c.GetString("displayName")
	if displayName == "" && email != "" {
		// Same fallback the clients use: the mailbox part of the address.
		for i := 0; i < len(email); i++ {
			if email[i] == '@' {
				displayName = email[:i]
				break
			}
		}
	}

	user, err := h.users.UpsertProfile(c.Request.Context(), uid, displayName, email, c.GetString("photoURL"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, buildPrivateUserResponse(*user))
}

// endregion

// region --- User Handlers ---

// SearchUsers godoc
// @Summary      Search for users
// @Description  Case-insensitive prefix search over display name and email, with pagination.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        q     query     string  true   "Search prefix"
// @Param        page  query     int     false  "Page number" default(1)
// @Param        limit query     int     false  "Items per page" default(10)
// @Success      200   {object}  PaginatedResponse[PublicUserResponse]
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /users [get]
func (h *UserHandler) SearchUsers(c *gin.Context) {
	viewerUID := auth.CurrentUID(c)

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}

	users, total, err := h.users.Search(c.Request.Context(), c.Query("q"), viewerUID, page, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := make([]PublicUserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, h.buildPublicUserResponse(c.Request.Context(), u, viewerUID))
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(responses, total, page, limit))
}

// GetMe godoc
// @Summary      Get current user's info
// @Description  Retrieves the private profile for the currently authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PrivateUserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.users.GetByUID(c.Request.Context(), auth.CurrentUID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildPrivateUserResponse(*user))
}

// UpdateMe godoc
// @Summary      Update current user's profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body UpdateProfileInput true "Profile fields"
// @Success      200  {object}  PrivateUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), auth.CurrentUID(c), input.DisplayName, input.PhotoURL)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildPrivateUserResponse(*user))
}

// DeleteMe godoc
// @Summary      Delete the current account
// @Description  Removes the account and its social-graph rows. Conversation history is retained.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string "{"message": "Account deleted"}"
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me [delete]
func (h *UserHandler) DeleteMe(c *gin.Context) {
	uid := auth.CurrentUID(c)
	if err := h.users.Delete(c.Request.Context(), uid); err != nil {
		abortWithError(c, err)
		return
	}
	if err := h.presence.SetOffline(c.Request.Context(), uid); err != nil {
		log.Printf("clearing presence for deleted account %s failed: %v", uid, err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

// GetUserByUID godoc
// @Summary      Get user by UID
// @Description  Retrieves a public profile, including the relationship to the viewer.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        uid  path      string  true  "User UID"
// @Success      200  {object}  PublicUserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{uid} [get]
func (h *UserHandler) GetUserByUID(c *gin.Context) {
	viewerUID := auth.CurrentUID(c)
	targetUID := c.Param("uid")

	if targetUID == viewerUID {
		h.GetMe(c)
		return
	}

	user, err := h.users.GetByUID(c.Request.Context(), targetUID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.buildPublicUserResponse(c.Request.Context(), *user, viewerUID))
}

// endregion

// region --- Presence Handlers ---

// Heartbeat godoc
// @Summary      Report the caller as online
// @Description  Best-effort presence heartbeat; expires on its own when heartbeats stop.
// @Tags         presence
// @Security     BearerAuth
// @Success      204  "No Content"
// @Router       /users/me/presence [post]
func (h *UserHandler) Heartbeat(c *gin.Context) {
	uid := auth.CurrentUID(c)
	if err := h.presence.Heartbeat(c.Request.Context(), uid); err != nil {
		// Presence is a side-channel; never fail the request over it.
		log.Printf("presence heartbeat failed for %s: %v", uid, err)
	}
	c.Status(http.StatusNoContent)
}

// GoOffline godoc
// @Summary      Report the caller as offline
// @Tags         presence
// @Security     BearerAuth
// @Success      204  "No Content"
// @Router       /users/me/presence [delete]
func (h *UserHandler) GoOffline(c *gin.Context) {
	uid := auth.CurrentUID(c)
	if err := h.presence.SetOffline(c.Request.Context(), uid); err != nil {
		log.Printf("presence offline write failed for %s: %v", uid, err)
	}
	c.Status(http.StatusNoContent)
}

// GetPresence godoc
// @Summary      Get a user's presence
// @Tags         presence
// @Produce      json
// @Security     BearerAuth
// @Param        uid  path      string  true  "User UID"
// @Success      200  {object}  presence.Presence
// @Failure      401  {object}  ErrorResponse
// @Router       /users/{uid}/presence [get]
func (h *UserHandler) GetPresence(c *gin.Context) {
	p, err := h.presence.Get(c.Request.Context(), c.Param("uid"))
	if err != nil {
		log.Printf("presence read failed for %s: %v", c.Param("uid"), err)
		c.JSON(http.StatusOK, presence.Presence{})
		return
	}
	c.JSON(http.StatusOK, p)
}

// endregion

// region --- Helpers ---

func (h *UserHandler) buildPublicUserResponse(ctx context.Context, user models.User, viewerUID string) PublicUserResponse {
	resp := PublicUserResponse{
		UID:         user.UID,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
	}
	if viewerUID != "" && viewerUID != user.UID {
		if status, err := h.friends.Status(ctx, viewerUID, user.UID); err == nil {
			resp.Relationship = string(status)
		}
	}
	return resp
}

func buildPrivateUserResponse(user models.User) PrivateUserResponse {
	return PrivateUserResponse{
		UID:         user.UID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		PhotoURL:    user.PhotoURL,
	}
}

// endregion
