package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"recipebox/internal/apperr"
	"recipebox/internal/user"
)

type registerRequest struct {
	FirebaseUID         string   `json:"firebase_uid"`
	Email               string   `json:"email"`
	Nickname            string   `json:"nickname"`
	LikedIngredients    []string `json:"liked_ingredients"`
	DislikedIngredients []string `json:"disliked_ingredients"`
}

type preferencesRequest struct {
	LikedIngredients    []string `json:"liked_ingredients"`
	DislikedIngredients []string `json:"disliked_ingredients"`
}

type favoriteRecipeRequest struct {
	RecipeName string `json:"recipeName"`
}

type favoriteUserRecipeRequest struct {
	RecipeID int64 `json:"recipeId"`
}

func (h *Handler) GetUsers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	users, err := h.Users.ListUsers(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUser reports whether the uid is registered and returns the profile when it is.
func (h *Handler) GetUser(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.GetUser(ctx, c.Param("uid"))
	if err != nil {
		respondError(c, err)
		return
	}
	if u == nil {
		c.JSON(http.StatusOK, gin.H{"exists": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": true, "user": u})
}

func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("Invalid request body"))
		return
	}
	if req.FirebaseUID == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Nickname) == "" {
		respondError(c, apperr.Validation("Missing required fields"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	err := h.Users.CreateUser(ctx, &user.User{
		FirebaseUID:         req.FirebaseUID,
		Email:               strings.TrimSpace(req.Email),
		Nickname:            strings.TrimSpace(req.Nickname),
		LikedIngredients:    user.StringList(req.LikedIngredients),
		DislikedIngredients: user.StringList(req.DislikedIngredients),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered"})
}

// UpdatePreferences replaces the user's liked and disliked ingredients.
func (h *Handler) UpdatePreferences(c *gin.Context) {
	uid := c.Param("uid")
	if err := checkOwner(c, uid); err != nil {
		respondError(c, err)
		return
	}

	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("Invalid request body"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	err := h.Users.UpdatePreferences(ctx, uid, user.StringList(req.LikedIngredients), user.StringList(req.DislikedIngredients))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Preferences updated"})
}

func (h *Handler) AddFavorite(c *gin.Context) {
	h.changeFavorite(c, h.Users.AddFavoriteRecipe, "Recipe added to favorites")
}

func (h *Handler) RemoveFavorite(c *gin.Context) {
	h.changeFavorite(c, h.Users.RemoveFavoriteRecipe, "Recipe removed from favorites")
}

func (h *Handler) changeFavorite(c *gin.Context, apply func(ctx context.Context, uid, name string) error, message string) {
	uid := c.Param("uid")
	if err := checkOwner(c, uid); err != nil {
		respondError(c, err)
		return
	}

	var req favoriteRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.RecipeName) == "" {
		respondError(c, apperr.Validation("recipeName is required"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := apply(ctx, uid, req.RecipeName); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (h *Handler) AddFavoriteUserRecipe(c *gin.Context) {
	h.changeFavoriteUserRecipe(c, h.Users.AddFavoriteUserRecipe, "Recipe added to favorites")
}

func (h *Handler) RemoveFavoriteUserRecipe(c *gin.Context) {
	h.changeFavoriteUserRecipe(c, h.Users.RemoveFavoriteUserRecipe, "Recipe removed from favorites")
}

func (h *Handler) changeFavoriteUserRecipe(c *gin.Context, apply func(ctx context.Context, uid string, id int64) error, message string) {
	uid := c.Param("uid")
	if err := checkOwner(c, uid); err != nil {
		respondError(c, err)
		return
	}

	var req favoriteUserRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RecipeID <= 0 {
		respondError(c, apperr.Validation("recipeId is required"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := apply(ctx, uid, req.RecipeID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// GetUserLikes lists the posts a user liked.
func (h *Handler) GetUserLikes(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	liked, err := h.Feed.LikedPosts(ctx, c.Param("uid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, liked)
}
