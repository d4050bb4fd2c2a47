package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL. The returned handle is shared by every store for the process lifetime.
func Open(dataSourceName string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// schema is applied in order at every startup; every statement must stay idempotent.
var schema = []struct {
	name string
	ddl  string
}{
	{"recipes", `
	CREATE TABLE IF NOT EXISTS recipes (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) UNIQUE NOT NULL,
		category VARCHAR(50),
		image_url VARCHAR(255),
		ingredients TEXT,
		name_en VARCHAR(255),
		ingredients_en TEXT,
		likes INTEGER NOT NULL DEFAULT 0
	)`},
	{"nutrition", `
	CREATE TABLE IF NOT EXISTS nutrition (
		recipe_id INT PRIMARY KEY REFERENCES recipes(id),
		calories INT,
		carbohydrates FLOAT,
		protein FLOAT,
		fat FLOAT,
		sodium FLOAT
	)`},
	{"recipe_steps", `
	CREATE TABLE IF NOT EXISTS recipe_steps (
		recipe_id INT REFERENCES recipes(id),
		step_number INT,
		description TEXT,
		PRIMARY KEY (recipe_id, step_number)
	)`},
	{"user_recipes", `
	CREATE TABLE IF NOT EXISTS user_recipes (
		id SERIAL PRIMARY KEY,
		firebase_uid VARCHAR(255) NOT NULL,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		image_url TEXT,
		ingredients TEXT,
		steps JSONB NOT NULL DEFAULT '[]',
		nutrition JSONB NOT NULL DEFAULT '{}',
		likes INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`},
	{"posts", `
	CREATE TABLE IF NOT EXISTS posts (
		id SERIAL PRIMARY KEY,
		username VARCHAR(100) NOT NULL,
		caption TEXT,
		image_url TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`},
	{"post_comments", `
	CREATE TABLE IF NOT EXISTS post_comments (
		id SERIAL PRIMARY KEY,
		post_id INT REFERENCES posts(id) ON DELETE CASCADE,
		username VARCHAR(100) NOT NULL,
		text TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`},
	{"post_likes", `
	CREATE TABLE IF NOT EXISTS post_likes (
		post_id INT REFERENCES posts(id) ON DELETE CASCADE,
		firebase_uid VARCHAR(255),
		PRIMARY KEY (post_id, firebase_uid)
	)`},
	{"users", `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		firebase_uid VARCHAR(255) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL,
		nickname VARCHAR(50) NOT NULL,
		liked_ingredients TEXT NOT NULL DEFAULT '[]',
		disliked_ingredients TEXT NOT NULL DEFAULT '[]'
	)`},
	{"user_favorite_recipes", `
	CREATE TABLE IF NOT EXISTS user_favorite_recipes (
		firebase_uid VARCHAR(255) REFERENCES users(firebase_uid) ON DELETE CASCADE,
		recipe_name VARCHAR(255),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (firebase_uid, recipe_name)
	)`},
	{"user_favorite_user_recipes", `
	CREATE TABLE IF NOT EXISTS user_favorite_user_recipes (
		firebase_uid VARCHAR(255) REFERENCES users(firebase_uid) ON DELETE CASCADE,
		user_recipe_id INT REFERENCES user_recipes(id) ON DELETE CASCADE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (firebase_uid, user_recipe_id)
	)`},
	{"recipes_rate", `
	CREATE TABLE IF NOT EXISTS recipes_rate (
		user_id VARCHAR(255) REFERENCES users(firebase_uid),
		nickname VARCHAR(50),
		recipe_id INT REFERENCES recipes(id),
		rating INT CHECK (rating >= 1 AND rating <= 5),
		feedback TEXT,
		rated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, recipe_id)
	)`},
}

// Migrate creates every table that does not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, t := range schema {
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
	}
	return nil
}
