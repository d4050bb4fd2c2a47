package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"recipebox/internal/apperr"
	"recipebox/internal/logger"
	"recipebox/internal/recipe"
)

const popularLimit = 4

type createRecipeRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	ImageURL string `json:"image_url"`
}

// GetRecipes returns the whole catalogue.
func (h *Handler) GetRecipes(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	recipes, err := h.Recipes.ListRecipes(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// CreateRecipe adds a catalogue recipe. An existing name is left untouched and still reported as success.
func (h *Handler) CreateRecipe(c *gin.Context) {
	var req createRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("Invalid request body"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(c, apperr.Validation("name is required"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	_, _, err := h.Recipes.InsertRecipe(ctx, &recipe.Recipe{
		Name:     req.Name,
		Category: req.Category,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		logger.Error("Failed to insert recipe", "name", req.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetPopularRecipes returns the most liked recipes.
func (h *Handler) GetPopularRecipes(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	recipes, err := h.Recipes.PopularRecipes(ctx, popularLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// GetRecipeDetail looks a recipe up by name.
func (h *Handler) GetRecipeDetail(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	r, err := h.Recipes.GetRecipeByName(ctx, c.Param("ref"))
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

// GetNutrition returns the nutrition of a recipe by id.
func (h *Handler) GetNutrition(c *gin.Context) {
	id, err := paramID(c, "ref")
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	n, err := h.Recipes.GetNutrition(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if n == nil {
		respondError(c, apperr.NotFound("Nutrition info not found for this recipe."))
		return
	}
	c.JSON(http.StatusOK, n)
}

// GetSteps returns the steps of a recipe ordered by step number.
func (h *Handler) GetSteps(c *gin.Context) {
	id, err := paramID(c, "ref")
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	steps, err := h.Recipes.ListSteps(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, steps)
}
