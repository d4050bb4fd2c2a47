package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"recipebox/internal/apperr"
	"recipebox/internal/feed"
)

type createPostRequest struct {
	Username string `json:"username"`
	Caption  string `json:"caption"`
	ImageURL string `json:"image_url"`
}

type likeRequest struct {
	FirebaseUID string `json:"firebase_uid"`
}

type createCommentRequest struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

func (h *Handler) GetPosts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	posts, err := h.Feed.ListPosts(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("Invalid request body"))
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		respondError(c, apperr.Validation("username is required"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	p := &feed.Post{Username: req.Username, Caption: req.Caption, ImageURL: req.ImageURL}
	if err := h.Feed.CreatePost(ctx, p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeletePost removes a post with its comments and likes.
func (h *Handler) DeletePost(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.Feed.DeletePost(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

// ToggleLike likes or unlikes a post and returns the new state.
func (h *Handler) ToggleLike(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FirebaseUID == "" {
		respondError(c, apperr.Validation("firebase_uid is required"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	liked, err := h.Feed.ToggleLike(ctx, id, req.FirebaseUID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

func (h *Handler) GetLikeCounts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	counts, err := h.Feed.LikeCounts(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *Handler) GetComments(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	comments, err := h.Feed.ListComments(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *Handler) CreateComment(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("Invalid request body"))
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Text) == "" {
		respondError(c, apperr.Validation("username and text are required"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	comment := &feed.Comment{PostID: id, Username: req.Username, Text: req.Text}
	if err := h.Feed.CreateComment(ctx, comment); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// ResetFeed deletes every post, comment and like. Only registered for admin builds.
func (h *Handler) ResetFeed(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.Feed.Reset(ctx); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feed reset successful"})
}
