package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"recipebox/internal/apperr"
	"recipebox/internal/recipe"
)

type createUserRecipeRequest struct {
	FirebaseUID string           `json:"firebase_uid"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	ImageURL    string           `json:"image_url"`
	Ingredients string           `json:"ingredients"`
	Steps       []recipe.Step    `json:"steps"`
	Nutrition   recipe.Nutrition `json:"nutrition"`
}

func (h *Handler) CreateUserRecipe(c *gin.Context) {
	var req createUserRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("Invalid request body"))
		return
	}
	if req.FirebaseUID == "" || strings.TrimSpace(req.Title) == "" {
		respondError(c, apperr.Validation("firebase_uid and title are required"))
		return
	}
	if err := checkOwner(c, req.FirebaseUID); err != nil {
		respondError(c, err)
		return
	}

	r := &recipe.UserRecipe{
		FirebaseUID: req.FirebaseUID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Ingredients: req.Ingredients,
		Steps:       recipe.Steps(req.Steps),
		Nutrition:   recipe.NutritionColumn{Nutrition: req.Nutrition},
	}
	if r.Steps == nil {
		r.Steps = recipe.Steps{}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.Recipes.CreateUserRecipe(ctx, r); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// GetMyRecipes lists the recipes uploaded by ?firebase_uid=.
func (h *Handler) GetMyRecipes(c *gin.Context) {
	uid := c.Query("firebase_uid")
	if uid == "" {
		respondError(c, apperr.Validation("firebase_uid is required"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	recipes, err := h.Recipes.ListUserRecipesByOwner(ctx, uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

func (h *Handler) GetUserRecipe(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	r, err := h.Recipes.GetUserRecipe(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if r == nil {
		respondError(c, apperr.NotFound("Recipe not found"))
		return
	}
	c.JSON(http.StatusOK, r)
}

// DeleteUserRecipe deletes a recipe; only its owner can.
func (h *Handler) DeleteUserRecipe(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	uid := c.Query("firebase_uid")
	if uid == "" {
		respondError(c, apperr.Validation("firebase_uid is required"))
		return
	}
	if err := checkOwner(c, uid); err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	deleted, err := h.Recipes.DeleteUserRecipe(ctx, id, uid)
	if err != nil {
		respondError(c, err)
		return
	}
	if !deleted {
		respondError(c, apperr.NotFound("Recipe not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recipe deleted"})
}

// ExploreRecipes lists every uploaded recipe, newest first.
func (h *Handler) ExploreRecipes(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	recipes, err := h.Recipes.ListUserRecipes(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}
