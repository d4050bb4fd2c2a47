package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouteOptions controls the optional parts of the router.
type RouteOptions struct {
	// Auth guards user-scoped mutations when non-nil.
	Auth gin.HandlerFunc
	// AdminEndpoints registers the feed reset and manual import routes.
	AdminEndpoints bool
	// ImageDir is served under /images when set.
	ImageDir string
}

// RegisterRoutes registers every route of the API on r.
func (h *Handler) RegisterRoutes(r *gin.Engine, opts RouteOptions) {
	secured := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		if opts.Auth == nil {
			return []gin.HandlerFunc{handler}
		}
		return []gin.HandlerFunc{opts.Auth, handler}
	}

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	recipes := r.Group("/recipes")
	{
		recipes.GET("", h.GetRecipes)
		recipes.POST("", h.CreateRecipe)
		recipes.GET("/popular", h.GetPopularRecipes)
		recipes.GET("/detail/:ref", h.GetRecipeDetail)
		recipes.GET("/detail/:ref/nutrition", h.GetNutrition)
		recipes.GET("/detail/:ref/steps", h.GetSteps)

		recipes.POST("/my", secured(h.CreateUserRecipe)...)
		recipes.GET("/my", h.GetMyRecipes)
		recipes.GET("/my/:id", h.GetUserRecipe)
		recipes.DELETE("/my/:id", secured(h.DeleteUserRecipe)...)
		recipes.GET("/explore", h.ExploreRecipes)

		recipes.POST("/:id/rate", h.RateRecipe)
		recipes.GET("/:id/feedbacks", h.GetFeedbacks)
		recipes.GET("/:id/rate/:userId", h.GetUserRating)
	}

	posts := r.Group("/posts")
	{
		posts.GET("", h.GetPosts)
		posts.POST("", h.CreatePost)
		posts.GET("/likes", h.GetLikeCounts)
		posts.DELETE("/:id", h.DeletePost)
		posts.POST("/:id/like", h.ToggleLike)
		posts.GET("/:id/comments", h.GetComments)
		posts.POST("/:id/comments", h.CreateComment)
	}

	users := r.Group("/users")
	{
		users.GET("", h.GetUsers)
		users.POST("/register", h.RegisterUser)
		users.GET("/:uid", h.GetUser)
		users.PUT("/:uid", secured(h.UpdatePreferences)...)
		users.POST("/:uid/favorites", secured(h.AddFavorite)...)
		users.DELETE("/:uid/favorites", secured(h.RemoveFavorite)...)
		users.POST("/:uid/favorite-user-recipes", secured(h.AddFavoriteUserRecipe)...)
		users.DELETE("/:uid/favorite-user-recipes", secured(h.RemoveFavoriteUserRecipe)...)
		users.GET("/:uid/likes", h.GetUserLikes)
	}

	r.GET("/recommend-recipes", h.RecommendRecipes)
	r.POST("/images", h.UploadImage)
	if opts.ImageDir != "" {
		r.Static("/images", opts.ImageDir)
	}

	if opts.AdminEndpoints {
		r.GET("/admin/reset-feed", h.ResetFeed)
		r.POST("/admin/import", h.RunImport)
	}
}
