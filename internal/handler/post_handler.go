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

// CreatePostInput defines the structure for a new feed post.
type CreatePostInput struct {
	Content   string   `json:"content" example:"repotted my monstera today"`
	MediaURLs []string `json:"media_urls"`
}

// CreateStoryInput defines the structure for a new story.
type CreateStoryInput struct {
	MediaURL  string `json:"media_url" binding:"required" example:"https://cdn.example.com/story.jpg"`
	MediaType string `json:"media_type" example:"image"`
}

// PostResponse defines the structure for a feed post as seen by a viewer.
type PostResponse struct {
	ID        uint                `json:"id" example:"1"`
	Author    *PublicUserResponse `json:"author,omitempty"`
	Content   string              `json:"content"`
	MediaURLs []string            `json:"media_urls,omitempty"`
	LikeCount int64               `json:"like_count" example:"3"`
	Liked     bool                `json:"liked"`
	CreatedAt string              `json:"created_at"`
}

// StoryResponse defines the structure for an unexpired story.
type StoryResponse struct {
	ID        uint   `json:"id" example:"1"`
	AuthorUID string `json:"author_uid" example:"u1"`
	MediaURL  string `json:"media_url"`
	MediaType string `json:"media_type,omitempty"`
	ExpiresAt string `json:"expires_at"`
}

// endregion

// PostHandler serves the community feed and stories.
type PostHandler struct {
	posts *service.PostService
}

func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// CreatePost godoc
// @Summary      Create a feed post
// @Description  Appends a post to the community feed. Media URLs must already be uploaded.
// @Tags         community
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CreatePostInput true "Post"
// @Success      201  {object}  PostResponse
// @Failure      400  {object}  ErrorResponse "Neither text nor media"
// @Failure      401  {object}  ErrorResponse
// @Router       /posts [post]
func (h *PostHandler) CreatePost(c *gin.Context) {
	var input CreatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), auth.CurrentUID(c), input.Content, input.MediaURLs)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, buildPostResponse(service.FeedItem{Post: *post}))
}

// ListFeed godoc
// @Summary      List the community feed
// @Description  Returns posts newest-first with the viewer's likes flagged.
// @Tags         community
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int  false  "Page number" default(1)
// @Param        limit query     int  false  "Items per page" default(5)
// @Success      200   {object}  PaginatedResponse[PostResponse]
// @Failure      401   {object}  ErrorResponse
// @Router       /posts [get]
func (h *PostHandler) ListFeed(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if err != nil || limit < 1 {
		limit = 5
	}

	items, total, err := h.posts.ListFeed(c.Request.Context(), auth.CurrentUID(c), page, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := make([]PostResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, buildPostResponse(item))
	}
	c.JSON(http.StatusOK, NewPaginatedResponse(responses, total, page, limit))
}

// ToggleLike godoc
// @Summary      Toggle a like on a post
// @Description  Likes the post if the caller has not liked it, unlikes it otherwise.
// @Tags         community
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Post ID"
// @Success      200  {object}  map[string]interface{} "{"liked": true, "like_count": 4}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /posts/{id}/like [post]
func (h *PostHandler) ToggleLike(c *gin.Context) {
	id, ok := parseRequestID(c)
	if !ok {
		return
	}

	liked, count, err := h.posts.ToggleLike(c.Request.Context(), auth.CurrentUID(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked, "like_count": count})
}

// CreateStory godoc
// @Summary      Post a story
// @Description  Publishes an ephemeral media item that expires after 24 hours.
// @Tags         community
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CreateStoryInput true "Story"
// @Success      201  {object}  StoryResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /stories [post]
func (h *PostHandler) CreateStory(c *gin.Context) {
	var input CreateStoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	story, err := h.posts.CreateStory(c.Request.Context(), auth.CurrentUID(c), input.MediaURL, input.MediaType)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, buildStoryResponse(*story))
}

// ListStories godoc
// @Summary      List active stories
// @Description  Returns unexpired stories, newest-first.
// @Tags         community
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   StoryResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /stories [get]
func (h *PostHandler) ListStories(c *gin.Context) {
	stories, err := h.posts.ListStories(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := make([]StoryResponse, 0, len(stories))
	for _, s := range stories {
		responses = append(responses, buildStoryResponse(s))
	}
	c.JSON(http.StatusOK, responses)
}

// DeleteStory godoc
// @Summary      Delete one of the caller's stories
// @Description  Idempotent: a story that is already gone counts as success.
// @Tags         community
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Story ID"
// @Success      200  {object}  map[string]string "{"message": "Story deleted"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Not the story's author"
// @Router       /stories/{id} [delete]
func (h *PostHandler) DeleteStory(c *gin.Context) {
	id, ok := parseRequestID(c)
	if !ok {
		return
	}

	if err := h.posts.DeleteStory(c.Request.Context(), auth.CurrentUID(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Story deleted"})
}

// region --- Helpers ---

func buildPostResponse(item service.FeedItem) PostResponse {
	resp := PostResponse{
		ID:        item.Post.ID,
		Content:   item.Post.Content,
		MediaURLs: item.Post.MediaURLs,
		LikeCount: item.Post.LikeCount,
		Liked:     item.Liked,
		CreatedAt: item.Post.CreatedAt.UTC().Format(time.RFC3339),
	}
	if item.Author != nil {
		resp.Author = &PublicUserResponse{
			UID:         item.Author.UID,
			DisplayName: item.Author.DisplayName,
			PhotoURL:    item.Author.PhotoURL,
		}
	}
	return resp
}

func buildStoryResponse(s models.Story) StoryResponse {
	return StoryResponse{
		ID:        s.ID,
		AuthorUID: s.AuthorUID,
		MediaURL:  s.MediaURL,
		MediaType: s.MediaType,
		ExpiresAt: s.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// endregion
