package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"recipebox/internal/apperr"
	"recipebox/internal/recipe"
)

type rateRequest struct {
	UserID   string `json:"userId"`
	Nickname string `json:"nickname"`
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// RateRecipe stores the caller's rating; a second rating replaces the first.
func (h *Handler) RateRecipe(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("Invalid request body"))
		return
	}
	if req.UserID == "" || req.Nickname == "" || req.Rating == 0 {
		respondError(c, apperr.Validation("Missing required fields"))
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondError(c, apperr.Validation("Rating must be between 1 and 5"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	err = h.Recipes.SaveRating(ctx, recipe.Rating{
		UserID:   req.UserID,
		Nickname: req.Nickname,
		RecipeID: id,
		Rating:   req.Rating,
		Feedback: req.Feedback,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rating saved successfully"})
}

func (h *Handler) GetFeedbacks(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	ratings, err := h.Recipes.ListFeedback(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ratings)
}

func (h *Handler) GetUserRating(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	r, err := h.Recipes.GetRating(ctx, id, c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if r == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "No rating found"})
		return
	}
	c.JSON(http.StatusOK, r)
}
