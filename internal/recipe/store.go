package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const recipeColumns = `id, name, COALESCE(category, '') AS category, COALESCE(image_url, '') AS image_url,
	COALESCE(ingredients, '') AS ingredients, COALESCE(name_en, '') AS name_en,
	COALESCE(ingredients_en, '') AS ingredients_en, likes`

// PostgresStore implements recipe, rating and user-recipe persistence on PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new PostgresStore on an open database handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CountRecipes returns the number of catalogue rows.
func (s *PostgresStore) CountRecipes(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM recipes"); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return n, nil
}

// InsertRecipe inserts r unless a recipe with the same name exists.
// inserted is false on a name conflict, in which case id is 0.
func (s *PostgresStore) InsertRecipe(ctx context.Context, r *Recipe) (id int64, inserted bool, err error) {
	err = s.db.QueryRowxContext(ctx,
		`INSERT INTO recipes (name, category, image_url, ingredients, name_en, ingredients_en)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''))
		ON CONFLICT (name) DO NOTHING
		RETURNING id`,
		r.Name, r.Category, r.ImageURL, r.Ingredients, r.NameEN, r.IngredientsEN,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert recipe %q: %w", r.Name, err)
	}
	return id, true, nil
}

// RecipeIDByName resolves a recipe id, returning 0 when no recipe has that name.
func (s *PostgresStore) RecipeIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, "SELECT id FROM recipes WHERE name = $1", name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get recipe id by name: %w", err)
	}
	return id, nil
}

// InsertNutrition stores nutrition once per recipe; an existing row is left untouched.
func (s *PostgresStore) InsertNutrition(ctx context.Context, recipeID int64, n Nutrition) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO nutrition (recipe_id, calories, carbohydrates, protein, fat, sodium)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (recipe_id) DO NOTHING`,
		recipeID, n.Calories, n.Carbohydrates, n.Protein, n.Fat, n.Sodium,
	)
	if err != nil {
		return fmt.Errorf("failed to insert nutrition: %w", err)
	}
	return nil
}

// InsertStep stores one step; an existing (recipe_id, step_number) row is left untouched.
func (s *PostgresStore) InsertStep(ctx context.Context, recipeID int64, step Step) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recipe_steps (recipe_id, step_number, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (recipe_id, step_number) DO NOTHING`,
		recipeID, step.Number, step.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to insert step %d: %w", step.Number, err)
	}
	return nil
}

// ListRecipes returns the whole catalogue ordered by id.
func (s *PostgresStore) ListRecipes(ctx context.Context) ([]Recipe, error) {
	recipes := []Recipe{}
	if err := s.db.SelectContext(ctx, &recipes, "SELECT "+recipeColumns+" FROM recipes ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// GetRecipeByName returns nil, nil when the recipe does not exist.
func (s *PostgresStore) GetRecipeByName(ctx context.Context, name string) (*Recipe, error) {
	var r Recipe
	err := s.db.GetContext(ctx, &r, "SELECT "+recipeColumns+" FROM recipes WHERE name = $1", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe by name: %w", err)
	}
	return &r, nil
}

// GetNutrition returns nil, nil when the recipe has no nutrition row.
func (s *PostgresStore) GetNutrition(ctx context.Context, recipeID int64) (*Nutrition, error) {
	var n Nutrition
	err := s.db.GetContext(ctx, &n,
		`SELECT calories, carbohydrates, protein, fat, sodium FROM nutrition WHERE recipe_id = $1`, recipeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get nutrition: %w", err)
	}
	return &n, nil
}

// ListSteps returns a recipe's steps ordered by step number.
func (s *PostgresStore) ListSteps(ctx context.Context, recipeID int64) ([]Step, error) {
	steps := []Step{}
	err := s.db.SelectContext(ctx, &steps,
		`SELECT step_number, description FROM recipe_steps WHERE recipe_id = $1 ORDER BY step_number`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	return steps, nil
}

// PopularRecipes returns the most liked recipes.
func (s *PostgresStore) PopularRecipes(ctx context.Context, limit int) ([]PopularRecipe, error) {
	recipes := []PopularRecipe{}
	err := s.db.SelectContext(ctx, &recipes,
		`SELECT id, name, COALESCE(image_url, '') AS image_url, COALESCE(category, '') AS category
		FROM recipes ORDER BY likes DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get popular recipes: %w", err)
	}
	return recipes, nil
}
