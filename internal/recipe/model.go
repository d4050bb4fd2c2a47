package recipe

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Recipe is a row of the shared recipe catalogue, imported or posted directly.
type Recipe struct {
	ID            int64  `json:"id" db:"id"`
	Name          string `json:"name" db:"name"`
	Category      string `json:"category" db:"category"`
	ImageURL      string `json:"image_url" db:"image_url"`
	Ingredients   string `json:"ingredients" db:"ingredients"`
	NameEN        string `json:"name_en,omitempty" db:"name_en"`
	IngredientsEN string `json:"ingredients_en,omitempty" db:"ingredients_en"`
	Likes         int    `json:"likes" db:"likes"`
}

// PopularRecipe is the card shape returned by the popular listing.
type PopularRecipe struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	ImageURL string `json:"image_url" db:"image_url"`
	Category string `json:"category" db:"category"`
}

// Nutrition holds per-recipe nutrition values; missing values are zero.
type Nutrition struct {
	Calories      int     `json:"calories" db:"calories"`
	Carbohydrates float64 `json:"carbohydrates" db:"carbohydrates"`
	Protein       float64 `json:"protein" db:"protein"`
	Fat           float64 `json:"fat" db:"fat"`
	Sodium        float64 `json:"sodium" db:"sodium"`
}

// Step is one instruction. Number keeps its source position, so numbering can have gaps.
type Step struct {
	Number      int    `json:"step_number" db:"step_number"`
	Description string `json:"description" db:"description"`
}

// Rating is a user's score and feedback for a recipe.
type Rating struct {
	UserID   string    `json:"user_id,omitempty" db:"user_id"`
	Nickname string    `json:"nickname,omitempty" db:"nickname"`
	RecipeID int64     `json:"recipe_id,omitempty" db:"recipe_id"`
	Rating   int       `json:"rating" db:"rating"`
	Feedback string    `json:"feedback" db:"feedback"`
	RatedAt  time.Time `json:"rated_at" db:"rated_at"`
}

// UserRecipe is a recipe uploaded by a user from the frontend.
type UserRecipe struct {
	ID          int64           `json:"id" db:"id"`
	FirebaseUID string          `json:"firebase_uid" db:"firebase_uid"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description" db:"description"`
	ImageURL    string          `json:"image_url" db:"image_url"`
	Ingredients string          `json:"ingredients" db:"ingredients"`
	Steps       Steps           `json:"steps" db:"steps"`
	Nutrition   NutritionColumn `json:"nutrition" db:"nutrition"`
	Likes       int             `json:"likes" db:"likes"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// Steps is stored as a JSONB column.
type Steps []Step

func (s Steps) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

func (s *Steps) Scan(src any) error {
	return scanJSON(src, s)
}

// NutritionColumn stores Nutrition as a JSONB column on user recipes.
// Nutrition itself stays a plain struct so sqlx can scan nutrition rows column by column.
type NutritionColumn struct {
	Nutrition
}

func (n NutritionColumn) Value() (driver.Value, error) {
	return json.Marshal(n.Nutrition)
}

func (n *NutritionColumn) Scan(src any) error {
	return scanJSON(src, &n.Nutrition)
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported JSON column type")
	}
}
