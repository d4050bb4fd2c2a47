package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrRatingTarget is returned when the rated recipe or the rating user does not exist.
var ErrRatingTarget = errors.New("recipe or user not found")

// SaveRating inserts or replaces the rating a user gave a recipe.
func (s *PostgresStore) SaveRating(ctx context.Context, r Rating) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recipes_rate (user_id, nickname, recipe_id, rating, feedback, rated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, recipe_id)
		DO UPDATE SET
			rating = EXCLUDED.rating,
			feedback = EXCLUDED.feedback,
			nickname = EXCLUDED.nickname,
			rated_at = NOW()`,
		r.UserID, r.Nickname, r.RecipeID, r.Rating, r.Feedback,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return ErrRatingTarget
	}
	if err != nil {
		return fmt.Errorf("failed to save rating: %w", err)
	}
	return nil
}

// ListFeedback returns every rating of a recipe, newest first.
func (s *PostgresStore) ListFeedback(ctx context.Context, recipeID int64) ([]Rating, error) {
	ratings := []Rating{}
	err := s.db.SelectContext(ctx, &ratings,
		`SELECT COALESCE(nickname, '') AS nickname, rating, COALESCE(feedback, '') AS feedback, rated_at
		FROM recipes_rate WHERE recipe_id = $1 ORDER BY rated_at DESC`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return ratings, nil
}

// GetRating returns nil, nil when the user has not rated the recipe.
func (s *PostgresStore) GetRating(ctx context.Context, recipeID int64, userID string) (*Rating, error) {
	var r Rating
	err := s.db.GetContext(ctx, &r,
		`SELECT rating, COALESCE(feedback, '') AS feedback, rated_at
		FROM recipes_rate WHERE user_id = $1 AND recipe_id = $2`, userID, recipeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return &r, nil
}
