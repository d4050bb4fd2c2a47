package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when no user has the given Firebase uid.
	ErrNotFound = errors.New("user not found")
	// ErrExists is returned when registering a Firebase uid twice.
	ErrExists = errors.New("user already registered")
	// ErrRecipeNotFound is returned when favoriting a user recipe that does not exist.
	ErrRecipeNotFound = errors.New("recipe not found")
)

// Postgres error codes used to classify constraint failures.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

const userColumns = `id, firebase_uid, email, nickname, liked_ingredients, disliked_ingredients`

// PostgresStore persists users, their preferences and favorites.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new user store on an open database handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetUser returns nil, nil when the user does not exist.
func (s *PostgresStore) GetUser(ctx context.Context, firebaseUID string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE firebase_uid = $1", firebaseUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.FavoriteRecipes = []string{}
	err = s.db.SelectContext(ctx, &u.FavoriteRecipes,
		"SELECT recipe_name FROM user_favorite_recipes WHERE firebase_uid = $1 ORDER BY created_at, recipe_name", firebaseUID)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorite recipes: %w", err)
	}

	u.FavoriteUserRecipes = []int64{}
	err = s.db.SelectContext(ctx, &u.FavoriteUserRecipes,
		"SELECT user_recipe_id FROM user_favorite_user_recipes WHERE firebase_uid = $1 ORDER BY created_at, user_recipe_id", firebaseUID)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorite user recipes: %w", err)
	}
	return &u, nil
}

// ListUsers returns all users without their favorites.
func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	users := []User{}
	if err := s.db.SelectContext(ctx, &users, "SELECT "+userColumns+" FROM users ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// CreateUser registers u. It returns ErrExists when the uid is already registered.
func (s *PostgresStore) CreateUser(ctx context.Context, u *User) error {
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO users (firebase_uid, email, nickname, liked_ingredients, disliked_ingredients)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		u.FirebaseUID, u.Email, u.Nickname, u.LikedIngredients, u.DislikedIngredients,
	).Scan(&u.ID)
	if isPQError(err, pqUniqueViolation) {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdatePreferences replaces the liked and disliked ingredient lists.
func (s *PostgresStore) UpdatePreferences(ctx context.Context, firebaseUID string, liked, disliked StringList) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET liked_ingredients = $1, disliked_ingredients = $2 WHERE firebase_uid = $3`,
		liked, disliked, firebaseUID)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	return requireRow(res)
}

// AddFavoriteRecipe marks a catalogue recipe as favorite. The recipe's like counter is
// incremented only when the favorite is new.
func (s *PostgresStore) AddFavoriteRecipe(ctx context.Context, firebaseUID, recipeName string) error {
	return s.inTx(ctx, firebaseUID, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO user_favorite_recipes (firebase_uid, recipe_name) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			firebaseUID, recipeName)
		if err != nil {
			return fmt.Errorf("failed to add favorite: %w", err)
		}
		if added, err := res.RowsAffected(); err != nil || added == 0 {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE recipes SET likes = likes + 1 WHERE name = $1`, recipeName); err != nil {
			return fmt.Errorf("failed to increment likes: %w", err)
		}
		return nil
	})
}

// RemoveFavoriteRecipe removes a favorite; the like counter never drops below zero.
func (s *PostgresStore) RemoveFavoriteRecipe(ctx context.Context, firebaseUID, recipeName string) error {
	return s.inTx(ctx, firebaseUID, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM user_favorite_recipes WHERE firebase_uid = $1 AND recipe_name = $2`,
			firebaseUID, recipeName)
		if err != nil {
			return fmt.Errorf("failed to remove favorite: %w", err)
		}
		if removed, err := res.RowsAffected(); err != nil || removed == 0 {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE recipes SET likes = GREATEST(likes - 1, 0) WHERE name = $1`, recipeName); err != nil {
			return fmt.Errorf("failed to decrement likes: %w", err)
		}
		return nil
	})
}

// AddFavoriteUserRecipe marks a user-uploaded recipe as favorite.
func (s *PostgresStore) AddFavoriteUserRecipe(ctx context.Context, firebaseUID string, recipeID int64) error {
	return s.inTx(ctx, firebaseUID, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO user_favorite_user_recipes (firebase_uid, user_recipe_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			firebaseUID, recipeID)
		if isPQError(err, pqForeignKeyViolation) {
			return ErrRecipeNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to add favorite: %w", err)
		}
		if added, err := res.RowsAffected(); err != nil || added == 0 {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE user_recipes SET likes = likes + 1 WHERE id = $1`, recipeID); err != nil {
			return fmt.Errorf("failed to increment likes: %w", err)
		}
		return nil
	})
}

// RemoveFavoriteUserRecipe removes a favorite user-uploaded recipe.
func (s *PostgresStore) RemoveFavoriteUserRecipe(ctx context.Context, firebaseUID string, recipeID int64) error {
	return s.inTx(ctx, firebaseUID, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM user_favorite_user_recipes WHERE firebase_uid = $1 AND user_recipe_id = $2`,
			firebaseUID, recipeID)
		if err != nil {
			return fmt.Errorf("failed to remove favorite: %w", err)
		}
		if removed, err := res.RowsAffected(); err != nil || removed == 0 {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE user_recipes SET likes = GREATEST(likes - 1, 0) WHERE id = $1`, recipeID); err != nil {
			return fmt.Errorf("failed to decrement likes: %w", err)
		}
		return nil
	})
}

// inTx runs fn in a transaction after checking that the user exists.
func (s *PostgresStore) inTx(ctx context.Context, firebaseUID string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE firebase_uid = $1)`, firebaseUID); err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return ErrNotFound
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isPQError(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}
