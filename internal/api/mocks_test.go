package api_test

import (
	"context"
	"errors"
	"sort"
	"sync"

	"firebase.google.com/go/v4/auth"

	"recipebox/internal/feed"
	"recipebox/internal/importer"
	"recipebox/internal/recipe"
	"recipebox/internal/user"
)

// mockRecipeStore is an in-memory RecipeStore.
type mockRecipeStore struct {
	mu          sync.Mutex
	recipes     []recipe.Recipe
	nutrition   map[int64]recipe.Nutrition
	steps       map[int64][]recipe.Step
	ratings     map[int64]map[string]recipe.Rating
	userRecipes []recipe.UserRecipe
	err         error
}

func newMockRecipeStore() *mockRecipeStore {
	return &mockRecipeStore{
		nutrition: make(map[int64]recipe.Nutrition),
		steps:     make(map[int64][]recipe.Step),
		ratings:   make(map[int64]map[string]recipe.Rating),
	}
}

func (m *mockRecipeStore) ListRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]recipe.Recipe{}, m.recipes...), nil
}

func (m *mockRecipeStore) InsertRecipe(ctx context.Context, r *recipe.Recipe) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, false, m.err
	}
	for _, existing := range m.recipes {
		if existing.Name == r.Name {
			return existing.ID, false, nil
		}
	}
	r.ID = int64(len(m.recipes) + 1)
	m.recipes = append(m.recipes, *r)
	return r.ID, true, nil
}

func (m *mockRecipeStore) PopularRecipes(ctx context.Context, limit int) ([]recipe.PopularRecipe, error) {
	sorted := append([]recipe.Recipe{}, m.recipes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Likes > sorted[j].Likes })
	out := []recipe.PopularRecipe{}
	for i := 0; i < len(sorted) && i < limit; i++ {
		out = append(out, recipe.PopularRecipe{ID: sorted[i].ID, Name: sorted[i].Name})
	}
	return out, nil
}

func (m *mockRecipeStore) GetRecipeByName(ctx context.Context, name string) (*recipe.Recipe, error) {
	for _, r := range m.recipes {
		if r.Name == name {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *mockRecipeStore) GetNutrition(ctx context.Context, recipeID int64) (*recipe.Nutrition, error) {
	n, ok := m.nutrition[recipeID]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (m *mockRecipeStore) ListSteps(ctx context.Context, recipeID int64) ([]recipe.Step, error) {
	return append([]recipe.Step{}, m.steps[recipeID]...), nil
}

func (m *mockRecipeStore) SaveRating(ctx context.Context, r recipe.Rating) error {
	if m.err != nil {
		return m.err
	}
	if m.ratings[r.RecipeID] == nil {
		m.ratings[r.RecipeID] = make(map[string]recipe.Rating)
	}
	m.ratings[r.RecipeID][r.UserID] = r
	return nil
}

func (m *mockRecipeStore) ListFeedback(ctx context.Context, recipeID int64) ([]recipe.Rating, error) {
	out := []recipe.Rating{}
	for _, r := range m.ratings[recipeID] {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockRecipeStore) GetRating(ctx context.Context, recipeID int64, userID string) (*recipe.Rating, error) {
	r, ok := m.ratings[recipeID][userID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *mockRecipeStore) CreateUserRecipe(ctx context.Context, r *recipe.UserRecipe) error {
	if m.err != nil {
		return m.err
	}
	r.ID = int64(len(m.userRecipes) + 1)
	m.userRecipes = append(m.userRecipes, *r)
	return nil
}

func (m *mockRecipeStore) ListUserRecipesByOwner(ctx context.Context, firebaseUID string) ([]recipe.UserRecipe, error) {
	out := []recipe.UserRecipe{}
	for _, r := range m.userRecipes {
		if r.FirebaseUID == firebaseUID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRecipeStore) ListUserRecipes(ctx context.Context) ([]recipe.UserRecipe, error) {
	return append([]recipe.UserRecipe{}, m.userRecipes...), nil
}

func (m *mockRecipeStore) GetUserRecipe(ctx context.Context, id int64) (*recipe.UserRecipe, error) {
	for _, r := range m.userRecipes {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *mockRecipeStore) DeleteUserRecipe(ctx context.Context, id int64, firebaseUID string) (bool, error) {
	for i, r := range m.userRecipes {
		if r.ID == id && r.FirebaseUID == firebaseUID {
			m.userRecipes = append(m.userRecipes[:i], m.userRecipes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// mockUserStore is an in-memory UserStore.
type mockUserStore struct {
	users map[string]*user.User
	err   error
}

func newMockUserStore(users ...*user.User) *mockUserStore {
	m := &mockUserStore{users: make(map[string]*user.User)}
	for _, u := range users {
		m.users[u.FirebaseUID] = u
	}
	return m
}

func (m *mockUserStore) GetUser(ctx context.Context, firebaseUID string) (*user.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users[firebaseUID], nil
}

func (m *mockUserStore) ListUsers(ctx context.Context) ([]user.User, error) {
	out := []user.User{}
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUserStore) CreateUser(ctx context.Context, u *user.User) error {
	if _, ok := m.users[u.FirebaseUID]; ok {
		return user.ErrExists
	}
	m.users[u.FirebaseUID] = u
	return nil
}

func (m *mockUserStore) UpdatePreferences(ctx context.Context, firebaseUID string, liked, disliked user.StringList) error {
	u, ok := m.users[firebaseUID]
	if !ok {
		return user.ErrNotFound
	}
	u.LikedIngredients = liked
	u.DislikedIngredients = disliked
	return nil
}

func (m *mockUserStore) AddFavoriteRecipe(ctx context.Context, firebaseUID, recipeName string) error {
	u, ok := m.users[firebaseUID]
	if !ok {
		return user.ErrNotFound
	}
	for _, name := range u.FavoriteRecipes {
		if name == recipeName {
			return nil
		}
	}
	u.FavoriteRecipes = append(u.FavoriteRecipes, recipeName)
	return nil
}

func (m *mockUserStore) RemoveFavoriteRecipe(ctx context.Context, firebaseUID, recipeName string) error {
	u, ok := m.users[firebaseUID]
	if !ok {
		return user.ErrNotFound
	}
	kept := u.FavoriteRecipes[:0]
	for _, name := range u.FavoriteRecipes {
		if name != recipeName {
			kept = append(kept, name)
		}
	}
	u.FavoriteRecipes = kept
	return nil
}

func (m *mockUserStore) AddFavoriteUserRecipe(ctx context.Context, firebaseUID string, recipeID int64) error {
	u, ok := m.users[firebaseUID]
	if !ok {
		return user.ErrNotFound
	}
	u.FavoriteUserRecipes = append(u.FavoriteUserRecipes, recipeID)
	return nil
}

func (m *mockUserStore) RemoveFavoriteUserRecipe(ctx context.Context, firebaseUID string, recipeID int64) error {
	if _, ok := m.users[firebaseUID]; !ok {
		return user.ErrNotFound
	}
	return nil
}

// mockFeedStore is an in-memory FeedStore.
type mockFeedStore struct {
	posts    []feed.Post
	likes    map[int64]map[string]bool
	comments []feed.Comment
	reset    bool
}

func newMockFeedStore() *mockFeedStore {
	return &mockFeedStore{likes: make(map[int64]map[string]bool)}
}

func (m *mockFeedStore) ListPosts(ctx context.Context) ([]feed.Post, error) {
	return append([]feed.Post{}, m.posts...), nil
}

func (m *mockFeedStore) CreatePost(ctx context.Context, p *feed.Post) error {
	p.ID = int64(len(m.posts) + 1)
	m.posts = append(m.posts, *p)
	return nil
}

func (m *mockFeedStore) DeletePost(ctx context.Context, id int64) error {
	for i, p := range m.posts {
		if p.ID == id {
			m.posts = append(m.posts[:i], m.posts[i+1:]...)
			delete(m.likes, id)
			return nil
		}
	}
	return feed.ErrPostNotFound
}

func (m *mockFeedStore) ToggleLike(ctx context.Context, postID int64, firebaseUID string) (bool, error) {
	if m.likes[postID] == nil {
		m.likes[postID] = make(map[string]bool)
	}
	if m.likes[postID][firebaseUID] {
		delete(m.likes[postID], firebaseUID)
		return false, nil
	}
	m.likes[postID][firebaseUID] = true
	return true, nil
}

func (m *mockFeedStore) LikeCounts(ctx context.Context) ([]feed.LikeCount, error) {
	out := []feed.LikeCount{}
	for id, users := range m.likes {
		out = append(out, feed.LikeCount{PostID: id, Likes: int64(len(users))})
	}
	return out, nil
}

func (m *mockFeedStore) LikedPosts(ctx context.Context, firebaseUID string) ([]feed.LikedPost, error) {
	out := []feed.LikedPost{}
	for id, users := range m.likes {
		if users[firebaseUID] {
			out = append(out, feed.LikedPost{PostID: id})
		}
	}
	return out, nil
}

func (m *mockFeedStore) ListComments(ctx context.Context, postID int64) ([]feed.Comment, error) {
	out := []feed.Comment{}
	for _, c := range m.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockFeedStore) CreateComment(ctx context.Context, c *feed.Comment) error {
	c.ID = int64(len(m.comments) + 1)
	m.comments = append(m.comments, *c)
	return nil
}

func (m *mockFeedStore) Reset(ctx context.Context) error {
	m.posts = nil
	m.comments = nil
	m.likes = make(map[int64]map[string]bool)
	m.reset = true
	return nil
}

// mockRecommender returns a fixed list or error and records its inputs.
type mockRecommender struct {
	names     []string
	err       error
	liked     []string
	disliked  []string
	scoreOnly bool
}

func (m *mockRecommender) Recommend(ctx context.Context, liked, disliked []string, scoreOnly bool) ([]string, error) {
	m.liked, m.disliked, m.scoreOnly = liked, disliked, scoreOnly
	if m.err != nil {
		return nil, m.err
	}
	return m.names, nil
}

// mockImageStore records the last saved image.
type mockImageStore struct {
	data []byte
	ext  string
	err  error
}

func (m *mockImageStore) Save(data []byte, ext string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.data, m.ext = data, ext
	return "abc" + ext, nil
}

// mockImporter returns fixed stats or an error.
type mockImporter struct {
	stats *importer.Stats
	err   error
	force bool
}

func (m *mockImporter) Run(ctx context.Context, force bool) (*importer.Stats, error) {
	m.force = force
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

// mockVerifier accepts tokens of the form "token-<uid>".
type mockVerifier struct{}

func (mockVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	const prefix = "token-"
	if len(idToken) <= len(prefix) || idToken[:len(prefix)] != prefix {
		return nil, errors.New("invalid token")
	}
	return &auth.Token{UID: idToken[len(prefix):]}, nil
}
