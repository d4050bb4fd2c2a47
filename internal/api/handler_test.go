package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipebox/internal/api"
	"recipebox/internal/importer"
	"recipebox/internal/recipe"
	"recipebox/internal/recommend"
	"recipebox/internal/user"
)

type testDeps struct {
	recipes     *mockRecipeStore
	users       *mockUserStore
	feed        *mockFeedStore
	recommender *mockRecommender
	images      *mockImageStore
	importer    *mockImporter
}

func newTestRouter(t *testing.T, opts api.RouteOptions) (*gin.Engine, *testDeps) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	deps := &testDeps{
		recipes:     newMockRecipeStore(),
		users:       newMockUserStore(),
		feed:        newMockFeedStore(),
		recommender: &mockRecommender{},
		images:      &mockImageStore{},
		importer:    &mockImporter{},
	}
	handler := api.NewHandler(deps.recipes, deps.users, deps.feed, deps.recommender, deps.images, deps.importer)

	r := gin.New()
	r.Use(api.Recovery())
	handler.RegisterRoutes(r, opts)
	return r, deps
}

func doJSON(r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, api.RouteOptions{})

	rr := doJSON(r, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestCreateRecipe(t *testing.T) {
	r, deps := newTestRouter(t, api.RouteOptions{})

	rr := doJSON(r, http.MethodPost, "/recipes", map[string]string{"name": "Kimchi Stew", "category": "Soup"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())

	// A duplicate name is still a success and leaves the catalogue unchanged
	rr = doJSON(r, http.MethodPost, "/recipes", map[string]string{"name": "Kimchi Stew", "category": "Other"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())
	require.Len(t, deps.recipes.recipes, 1)
	assert.Equal(t, "Soup", deps.recipes.recipes[0].Category)

	rr = doJSON(r, http.MethodPost, "/recipes", map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateRecipe_StoreFailure(t *testing.T) {
	r, deps := newTestRouter(t, api.RouteOptions{})
	deps.recipes.err = errors.New("connection refused")

	rr := doJSON(r, http.MethodPost, "/recipes", map[string]string{"name": "Bibimbap"})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"success":false}`, rr.Body.String())
}

func TestGetRecipes_DatabaseErrorHidesDetails(t *testing.T) {
	r, deps := newTestRouter(t, api.RouteOptions{})
	deps.recipes.err = errors.New("pq: password authentication failed")

	rr := doJSON(r, http.MethodGet, "/recipes", nil)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rr.Body.String())
}

func TestRecipeDetail(t *testing.T) {
	r, deps := newTestRouter(t, api.RouteOptions{})
	deps.recipes.recipes = []recipe.Recipe{{ID: 7, Name: "Bibimbap", Ingredients: "rice, egg"}}
	deps.recipes.nutrition[7] = recipe.Nutrition{Calories: 500, Protein: 12.5}
	deps.recipes.steps[7] = []recipe.Step{{Number: 1, Description: "Cook rice"}, {Number: 3, Description: "Serve"}}

	rr := doJSON(r, http.MethodGet, "/recipes/detail/Bibimbap", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "rice, egg", decode(t, rr)["ingredients"])

	rr = doJSON(r, http.MethodGet, "/recipes/detail/Unknown", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Recipe not found"}`, rr.Body.String())

	rr = doJSON(r, http.MethodGet, "/recipes/detail/7/nutrition", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.EqualValues(t, 500, decode(t, rr)["calories"])

	rr = doJSON(r, http.MethodGet, "/recipes/detail/8/nutrition", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Nutrition info not found for this recipe."}`, rr.Body.String())

	rr = doJSON(r, http.MethodGet, "/recipes/detail/7/steps", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"step_number":1,"description":"Cook rice"},{"step_number":3,"description":"Serve"}]`, rr.Body.String())

	rr = doJSON(r, http.MethodGet, "/recipes/detail/abc/steps", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRateRecipe(t *testing.T) {
	r, deps := newTestRouter(t, api.RouteOptions{})

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing nickname",
			body:       map[string]any{"userId": "u1", "rating": 4},
			wantStatus: http.StatusBadRequest,
			wantError:  "Missing required fields",
		},
		{
			name:       "rating out of range",
			body:       map[string]any{"userId": "u1", "nickname": "kim", "rating": 6},
			wantStatus: http.StatusBadRequest,
			wantError:  "Rating must be between 1 and 5",
		},
		{
			name:       "valid",
			body:       map[string]any{"userId": "u1", "nickname": "kim", "rating": 4, "feedback": "tasty"},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(r, http.MethodPost, "/recipes/3/rate", tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decode(t, rr)["error"])
			}
		})
	}

	// Rating again replaces the previous rating
	rr := doJSON(r, http.MethodPost, "/recipes/3/rate", map[string]any{"userId": "u1", "nickname": "kim", "rating": 2})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, deps.recipes.ratings[3]["u1"].Rating)

	rr = doJSON(r, http.MethodGet, "/recipes/3/rate/u1", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.EqualValues(t, 2, decode(t, rr)["rating"])

	rr = doJSON(r, http.MethodGet, "/recipes/3/rate/u2", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"message":"No rating found"}`, rr.Body.String())
}

func TestRateRecipe_UnknownTarget(t *testing.T) {
	r, deps := newTestRouter(t, api.RouteOptions{})
	deps.recipes.err = fmt.Errorf("failed to save rating: %w", recipe.ErrRatingTarget)

	rr := doJSON(r, http.MethodPost, "/recipes/99/rate", map[string]any{"userId": "u1", "nickname": "kim", "rating": 5})

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUserRecipes(t *testing.T) {
	r, deps := newTestRouter(t, api.RouteOptions{})

	rr := doJSON(r, http.MethodPost, "/recipes/my", map[string]any{
		"firebase_uid": "u1",
		"title":        "Grandma's Soup",
		"ingredients":  "beef, radish",
		"steps":        []map[string]any{{"step_number": 1, "description": "Boil"}},
		"nutrition":    map[string]any{"calories": 300},
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decode(t, rr)
	assert.EqualValues(t, 1, created["id"])

	rr = doJSON(r, http.MethodGet, "/recipes/my?firebase_uid=u1", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	var mine []recipe.UserRecipe
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, 300, mine[0].Nutrition.Calories)

	rr = doJSON(r, http.MethodGet, "/recipes/my", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Only the owner can delete
	rr = doJSON(r, http.MethodDelete, "/recipes/my/1?firebase_uid=u2", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = doJSON(r, http.MethodDelete, "/recipes/my/1?firebase_uid=u1", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, deps.recipes.userRecipes)

	rr = doJSON(r, http.MethodGet, "/recipes/my/1", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFeed(t *testing.T) {
	r, deps := newTestRouter(t, api.RouteOptions{AdminEndpoints: true})

	rr := doJSON(r, http.MethodPost, "/posts", map[string]string{"username": "kim", "caption": "lunch"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.EqualValues(t, 1, decode(t, rr)["id"])

	rr = doJSON(r, http.MethodPost, "/posts/1/like", map[string]string{"firebase_uid": "u1"})
	assert.JSONEq(t, `{"liked":true}`, rr.Body.String())
	rr = doJSON(r, http.MethodGet, "/users/u1/likes", nil)
	assert.JSONEq(t, `[{"post_id":1}]`, rr.Body.String())
	rr = doJSON(r, http.MethodPost, "/posts/1/like", map[string]string{"firebase_uid": "u1"})
	assert.JSONEq(t, `{"liked":false}`, rr.Body.String())

	rr = doJSON(r, http.MethodPost, "/posts/1/like", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(r, http.MethodPost, "/posts/1/comments", map[string]string{"username": "lee", "text": "yum"})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = doJSON(r, http.MethodGet, "/posts/1/comments", nil)
	assert.Contains(t, rr.Body.String(), `"text":"yum"`)

	rr = doJSON(r, http.MethodDelete, "/posts/2", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Post not found"}`, rr.Body.String())

	rr = doJSON(r, http.MethodGet, "/admin/reset-feed", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, deps.feed.reset)
}

func TestUsers(t *testing.T) {
	r, deps := newTestRouter(t, api.RouteOptions{})

	rr := doJSON(r, http.MethodGet, "/users/u1", nil)
	assert.JSONEq(t, `{"exists":false}`, rr.Body.String())

	body := map[string]any{
		"firebase_uid":      "u1",
		"email":             "kim@example.com",
		"nickname":          "kim",
		"liked_ingredients": []string{"egg"},
	}
	rr = doJSON(r, http.MethodPost, "/users/register", body)
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(r, http.MethodPost, "/users/register", body)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.JSONEq(t, `{"error":"User already registered"}`, rr.Body.String())

	rr = doJSON(r, http.MethodGet, "/users/u1", nil)
	assert.Equal(t, true, decode(t, rr)["exists"])

	rr = doJSON(r, http.MethodPut, "/users/u1", map[string]any{"liked_ingredients": []string{"tofu"}, "disliked_ingredients": []string{"milk"}})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, user.StringList{"milk"}, deps.users.users["u1"].DislikedIngredients)

	rr = doJSON(r, http.MethodPost, "/users/u1/favorites", map[string]string{"recipeName": "Bibimbap"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"Bibimbap"}, deps.users.users["u1"].FavoriteRecipes)

	rr = doJSON(r, http.MethodPost, "/users/nobody/favorites", map[string]string{"recipeName": "Bibimbap"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(r, http.MethodPost, "/users/u1/favorite-user-recipes", map[string]any{"recipeId": 0})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetUser_ProfileShape(t *testing.T) {
	r, deps := newTestRouter(t, api.RouteOptions{})
	deps.users.users["u1"] = &user.User{
		ID:                  1,
		FirebaseUID:         "u1",
		Email:               "kim@example.com",
		Nickname:            "kim",
		LikedIngredients:    user.StringList{"egg", "milk"},
		FavoriteRecipes:     []string{"Bibimbap"},
		FavoriteUserRecipes: []int64{3, 1},
	}

	rr := doJSON(r, http.MethodGet, "/users/u1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{
		"exists": true,
		"user": {
			"id": 1,
			"firebase_uid": "u1",
			"email": "kim@example.com",
			"nickname": "kim",
			"liked_ingredients": "[\"egg\",\"milk\"]",
			"disliked_ingredients": "[]",
			"favorite_recipes": "[\"Bibimbap\"]",
			"favorite_user_recipes": "3,1"
		}
	}`, rr.Body.String())

	rr = doJSON(r, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var all []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, "3,1", all[0]["favorite_user_recipes"])
}

func TestAuth(t *testing.T) {
	r, deps := newTestRouter(t, api.RouteOptions{Auth: api.FirebaseAuth(mockVerifier{})})
	deps.users.users["u1"] = &user.User{FirebaseUID: "u1"}
	prefs := map[string]any{"liked_ingredients": []string{"egg"}}

	rr := doJSON(r, http.MethodPut, "/users/u1", prefs)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(r, http.MethodPut, "/users/u1", prefs, "Authorization", "Bearer bogus")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(r, http.MethodPut, "/users/u1", prefs, "Authorization", "Bearer token-u2")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = doJSON(r, http.MethodPut, "/users/u1", prefs, "Authorization", "Bearer token-u1")
	assert.Equal(t, http.StatusOK, rr.Code)

	// Reads stay public
	rr = doJSON(r, http.MethodGet, "/users/u1", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRecommendRecipes(t *testing.T) {
	r, deps := newTestRouter(t, api.RouteOptions{})
	deps.users.users["u1"] = &user.User{
		FirebaseUID:         "u1",
		LikedIngredients:    user.StringList{"egg"},
		DislikedIngredients: user.StringList{"milk"},
	}
	deps.recommender.names = []string{"Omelette", "Egg Soup"}

	rr := doJSON(r, http.MethodGet, "/recommend-recipes?uid=u1", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"recommendations":["Omelette","Egg Soup"]}`, rr.Body.String())
	assert.Equal(t, []string{"egg"}, deps.recommender.liked)
	assert.False(t, deps.recommender.scoreOnly)

	rr = doJSON(r, http.MethodGet, "/recommend-recipes?uid=u1&mode=score", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, deps.recommender.scoreOnly)

	rr = doJSON(r, http.MethodGet, "/recommend-recipes", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Missing UID"}`, rr.Body.String())

	rr = doJSON(r, http.MethodGet, "/recommend-recipes?uid=ghost", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, rr.Body.String())
}

func TestRecommendRecipes_LLMFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "invalid reply",
			err:     fmt.Errorf("%w: no JSON array", recommend.ErrInvalidReply),
			wantMsg: "Invalid JSON from LLM",
		},
		{
			name:    "request failed",
			err:     &recommend.LLMError{Err: errors.New("status 503")},
			wantMsg: "LLM request failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, deps := newTestRouter(t, api.RouteOptions{})
			deps.users.users["u1"] = &user.User{FirebaseUID: "u1"}
			deps.recommender.err = tt.err

			rr := doJSON(r, http.MethodGet, "/recommend-recipes?uid=u1", nil)

			assert.Equal(t, http.StatusInternalServerError, rr.Code)
			assert.Equal(t, tt.wantMsg, decode(t, rr)["error"])
		})
	}
}

func TestUploadImage(t *testing.T) {
	r, deps := newTestRouter(t, api.RouteOptions{})

	upload := func(filename string, data []byte) *httptest.ResponseRecorder {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/images", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}

	rr := upload("dish.PNG", []byte("png-bytes"))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"image_url":"/images/abc.png"}`, rr.Body.String())
	assert.Equal(t, []byte("png-bytes"), deps.images.data)

	rr = upload("notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	deps.images.err = errors.New("disk full")
	rr = upload("dish.jpg", []byte("jpg-bytes"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRunImport(t *testing.T) {
	r, deps := newTestRouter(t, api.RouteOptions{AdminEndpoints: true})
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	deps.importer.stats = &importer.Stats{StartTime: start, EndTime: start.Add(time.Minute), Fetched: 3, Imported: 2, Existing: 1}

	rr := doJSON(r, http.MethodPost, "/admin/import", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, deps.importer.force)
	body := decode(t, rr)
	assert.EqualValues(t, 2, body["imported"])
	assert.EqualValues(t, 1, body["existing"])

	deps.importer.err = importer.ErrImportRunning
	rr = doJSON(r, http.MethodPost, "/admin/import", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.JSONEq(t, `{"error":"Import already in progress"}`, rr.Body.String())
}

func TestAdminRoutesDisabled(t *testing.T) {
	r, _ := newTestRouter(t, api.RouteOptions{})

	rr := doJSON(r, http.MethodPost, "/admin/import", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(r, http.MethodGet, "/admin/reset-feed", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(api.Recovery(), api.RequestMetrics())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	rr := doJSON(r, http.MethodGet, "/boom", nil)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rr.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, api.RouteOptions{})

	rr := doJSON(r, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}
