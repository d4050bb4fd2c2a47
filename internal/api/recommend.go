package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"recipebox/internal/apperr"
)

// RecommendRecipes suggests recipe names from the user's ingredient preferences.
// ?mode=score skips the language model.
func (h *Handler) RecommendRecipes(c *gin.Context) {
	uid := c.Query("uid")
	if uid == "" {
		respondError(c, apperr.Validation("Missing UID"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), recommendTimeout)
	defer cancel()

	u, err := h.Users.GetUser(ctx, uid)
	if err != nil {
		respondError(c, err)
		return
	}
	if u == nil {
		respondError(c, apperr.NotFound("User not found"))
		return
	}

	names, err := h.Recommender.Recommend(ctx, u.LikedIngredients, u.DislikedIngredients, c.Query("mode") == "score")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": names})
}
