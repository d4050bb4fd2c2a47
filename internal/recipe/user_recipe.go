package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const userRecipeColumns = `id, firebase_uid, title, COALESCE(description, '') AS description,
	COALESCE(image_url, '') AS image_url, COALESCE(ingredients, '') AS ingredients,
	steps, nutrition, likes, created_at`

// CreateUserRecipe inserts r and fills in its generated id, likes and creation time.
func (s *PostgresStore) CreateUserRecipe(ctx context.Context, r *UserRecipe) error {
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO user_recipes (firebase_uid, title, description, image_url, ingredients, steps, nutrition)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, likes, created_at`,
		r.FirebaseUID, r.Title, r.Description, r.ImageURL, r.Ingredients, r.Steps, r.Nutrition,
	).Scan(&r.ID, &r.Likes, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user recipe: %w", err)
	}
	return nil
}

// ListUserRecipesByOwner returns the recipes a user uploaded, newest first.
func (s *PostgresStore) ListUserRecipesByOwner(ctx context.Context, firebaseUID string) ([]UserRecipe, error) {
	recipes := []UserRecipe{}
	err := s.db.SelectContext(ctx, &recipes,
		"SELECT "+userRecipeColumns+" FROM user_recipes WHERE firebase_uid = $1 ORDER BY created_at DESC, id DESC",
		firebaseUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user recipes: %w", err)
	}
	return recipes, nil
}

// ListUserRecipes returns every uploaded recipe, newest first.
func (s *PostgresStore) ListUserRecipes(ctx context.Context) ([]UserRecipe, error) {
	recipes := []UserRecipe{}
	err := s.db.SelectContext(ctx, &recipes,
		"SELECT "+userRecipeColumns+" FROM user_recipes ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list user recipes: %w", err)
	}
	return recipes, nil
}

// GetUserRecipe returns nil, nil when the recipe does not exist.
func (s *PostgresStore) GetUserRecipe(ctx context.Context, id int64) (*UserRecipe, error) {
	var r UserRecipe
	err := s.db.GetContext(ctx, &r, "SELECT "+userRecipeColumns+" FROM user_recipes WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user recipe: %w", err)
	}
	return &r, nil
}

// DeleteUserRecipe deletes a recipe owned by firebaseUID and reports whether a row was removed.
func (s *PostgresStore) DeleteUserRecipe(ctx context.Context, id int64, firebaseUID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM user_recipes WHERE id = $1 AND firebase_uid = $2", id, firebaseUID)
	if err != nil {
		return false, fmt.Errorf("failed to delete user recipe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete user recipe: %w", err)
	}
	return n > 0, nil
}
