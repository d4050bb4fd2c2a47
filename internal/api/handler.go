package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"recipebox/internal/apperr"
	"recipebox/internal/feed"
	"recipebox/internal/importer"
	"recipebox/internal/logger"
	"recipebox/internal/recipe"
	"recipebox/internal/recommend"
	"recipebox/internal/user"
)

const (
	requestTimeout   = 5 * time.Second
	recommendTimeout = 45 * time.Second
)

// RecipeStore defines the interface for recipe data operations.
type RecipeStore interface {
	ListRecipes(ctx context.Context) ([]recipe.Recipe, error)
	InsertRecipe(ctx context.Context, r *recipe.Recipe) (int64, bool, error)
	PopularRecipes(ctx context.Context, limit int) ([]recipe.PopularRecipe, error)
	GetRecipeByName(ctx context.Context, name string) (*recipe.Recipe, error)
	GetNutrition(ctx context.Context, recipeID int64) (*recipe.Nutrition, error)
	ListSteps(ctx context.Context, recipeID int64) ([]recipe.Step, error)

	SaveRating(ctx context.Context, r recipe.Rating) error
	ListFeedback(ctx context.Context, recipeID int64) ([]recipe.Rating, error)
	GetRating(ctx context.Context, recipeID int64, userID string) (*recipe.Rating, error)

	CreateUserRecipe(ctx context.Context, r *recipe.UserRecipe) error
	ListUserRecipesByOwner(ctx context.Context, firebaseUID string) ([]recipe.UserRecipe, error)
	ListUserRecipes(ctx context.Context) ([]recipe.UserRecipe, error)
	GetUserRecipe(ctx context.Context, id int64) (*recipe.UserRecipe, error)
	DeleteUserRecipe(ctx context.Context, id int64, firebaseUID string) (bool, error)
}

// UserStore defines the interface for user data operations.
type UserStore interface {
	GetUser(ctx context.Context, firebaseUID string) (*user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	CreateUser(ctx context.Context, u *user.User) error
	UpdatePreferences(ctx context.Context, firebaseUID string, liked, disliked user.StringList) error
	AddFavoriteRecipe(ctx context.Context, firebaseUID, recipeName string) error
	RemoveFavoriteRecipe(ctx context.Context, firebaseUID, recipeName string) error
	AddFavoriteUserRecipe(ctx context.Context, firebaseUID string, recipeID int64) error
	RemoveFavoriteUserRecipe(ctx context.Context, firebaseUID string, recipeID int64) error
}

// FeedStore defines the interface for the social feed.
type FeedStore interface {
	ListPosts(ctx context.Context) ([]feed.Post, error)
	CreatePost(ctx context.Context, p *feed.Post) error
	DeletePost(ctx context.Context, id int64) error
	ToggleLike(ctx context.Context, postID int64, firebaseUID string) (bool, error)
	LikeCounts(ctx context.Context) ([]feed.LikeCount, error)
	LikedPosts(ctx context.Context, firebaseUID string) ([]feed.LikedPost, error)
	ListComments(ctx context.Context, postID int64) ([]feed.Comment, error)
	CreateComment(ctx context.Context, c *feed.Comment) error
	Reset(ctx context.Context) error
}

type Recommender interface {
	Recommend(ctx context.Context, liked, disliked []string, scoreOnly bool) ([]string, error)
}

type ImageStore interface {
	Save(data []byte, ext string) (string, error)
}

type Importer interface {
	Run(ctx context.Context, force bool) (*importer.Stats, error)
}

// Handler handles HTTP requests.
type Handler struct {
	Recipes     RecipeStore
	Users       UserStore
	Feed        FeedStore
	Recommender Recommender
	Images      ImageStore
	Importer    Importer
}

// NewHandler creates a new Handler.
func NewHandler(recipes RecipeStore, users UserStore, feedStore FeedStore, recommender Recommender, images ImageStore, imp Importer) *Handler {
	return &Handler{
		Recipes:     recipes,
		Users:       users,
		Feed:        feedStore,
		Recommender: recommender,
		Images:      images,
		Importer:    imp,
	}
}

// respondError writes {"error": msg} with the status derived from err.
func respondError(c *gin.Context, err error) {
	err = classify(err)
	status, msg := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		fields := []any{"method", c.Request.Method, "path", c.FullPath()}
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			fields = append(fields, appErr.LogFields()...)
		} else {
			fields = append(fields, "error", err)
		}
		logger.Error("Request failed", fields...)
	}
	c.JSON(status, gin.H{"error": msg})
}

// classify turns domain sentinel errors into application errors.
func classify(err error) error {
	var appErr *apperr.Error
	var llmErr *recommend.LLMError
	switch {
	case errors.As(err, &appErr), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, user.ErrNotFound):
		return apperr.NotFound("User not found")
	case errors.Is(err, user.ErrExists):
		return apperr.Wrap(err, apperr.TypeConflict, "USER_EXISTS", "User already registered")
	case errors.Is(err, user.ErrRecipeNotFound):
		return apperr.NotFound("Recipe not found")
	case errors.Is(err, feed.ErrPostNotFound):
		return apperr.NotFound("Post not found")
	case errors.Is(err, recipe.ErrRatingTarget):
		return apperr.NotFound("Recipe or user not found")
	case errors.Is(err, recommend.ErrInvalidReply):
		return apperr.Wrap(err, apperr.TypeExternal, "LLM_INVALID_JSON", "Invalid JSON from LLM")
	case errors.As(err, &llmErr):
		return apperr.External(err, "LLM")
	case errors.Is(err, importer.ErrImportRunning):
		return apperr.Wrap(err, apperr.TypeConflict, "IMPORT_RUNNING", "Import already in progress")
	default:
		return apperr.Database(err)
	}
}

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid id")
	}
	return id, nil
}
