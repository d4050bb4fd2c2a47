package user

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// User is a registered account keyed by its Firebase uid.
type User struct {
	ID                  int64      `json:"id" db:"id"`
	FirebaseUID         string     `json:"firebase_uid" db:"firebase_uid"`
	Email               string     `json:"email" db:"email"`
	Nickname            string     `json:"nickname" db:"nickname"`
	LikedIngredients    StringList `json:"liked_ingredients" db:"liked_ingredients"`
	DislikedIngredients StringList `json:"disliked_ingredients" db:"disliked_ingredients"`
	FavoriteRecipes     []string   `json:"favorite_recipes" db:"-"`
	FavoriteUserRecipes []int64    `json:"favorite_user_recipes" db:"-"`
}

// MarshalJSON keeps the profile wire shape the web client parses: ingredient and
// favorite-recipe lists as JSON-encoded strings, favorite user recipe ids comma-joined.
func (u User) MarshalJSON() ([]byte, error) {
	liked, err := json.Marshal(nonNil(u.LikedIngredients))
	if err != nil {
		return nil, err
	}
	disliked, err := json.Marshal(nonNil(u.DislikedIngredients))
	if err != nil {
		return nil, err
	}
	favorites, err := json.Marshal(nonNil(u.FavoriteRecipes))
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(u.FavoriteUserRecipes))
	for i, id := range u.FavoriteUserRecipes {
		ids[i] = strconv.FormatInt(id, 10)
	}

	return json.Marshal(struct {
		ID                  int64  `json:"id"`
		FirebaseUID         string `json:"firebase_uid"`
		Email               string `json:"email"`
		Nickname            string `json:"nickname"`
		LikedIngredients    string `json:"liked_ingredients"`
		DislikedIngredients string `json:"disliked_ingredients"`
		FavoriteRecipes     string `json:"favorite_recipes"`
		FavoriteUserRecipes string `json:"favorite_user_recipes"`
	}{
		ID:                  u.ID,
		FirebaseUID:         u.FirebaseUID,
		Email:               u.Email,
		Nickname:            u.Nickname,
		LikedIngredients:    string(liked),
		DislikedIngredients: string(disliked),
		FavoriteRecipes:     string(favorites),
		FavoriteUserRecipes: strings.Join(ids, ","),
	})
}

func nonNil[T ~[]string](l T) []string {
	if l == nil {
		return []string{}
	}
	return []string(l)
}

// StringList is a list of strings serialized as a JSON array in a TEXT column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan accepts a JSON array and, for rows written by older clients, a comma-separated list.
func (l *StringList) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("unsupported type %T for string list", src)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		*l = StringList{}
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return fmt.Errorf("failed to unmarshal string list: %w", err)
		}
		*l = out
		return nil
	}

	out := StringList{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*l = out
	return nil
}
