package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrPostNotFound is returned when a comment or like references a missing post.
var ErrPostNotFound = errors.New("post not found")

const postColumns = `id, username, COALESCE(caption, '') AS caption, COALESCE(image_url, '') AS image_url, created_at`

// PostgresStore persists posts, comments and likes.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new feed store on an open database handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ListPosts returns posts newest first.
func (s *PostgresStore) ListPosts(ctx context.Context) ([]Post, error) {
	posts := []Post{}
	if err := s.db.SelectContext(ctx, &posts, "SELECT "+postColumns+" FROM posts ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// CreatePost inserts p and fills in its id and creation time.
func (s *PostgresStore) CreatePost(ctx context.Context, p *Post) error {
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO posts (username, caption, image_url) VALUES ($1, $2, $3) RETURNING id, created_at`,
		p.Username, p.Caption, p.ImageURL,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// DeletePost removes a post; comments and likes go with it through ON DELETE CASCADE.
func (s *PostgresStore) DeletePost(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return nil
}

// ToggleLike likes the post for the user, or unlikes it when already liked.
// It reports whether the post is liked after the call.
func (s *PostgresStore) ToggleLike(ctx context.Context, postID int64, firebaseUID string) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM post_likes WHERE post_id = $1 AND firebase_uid = $2", postID, firebaseUID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle like: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to toggle like: %w", err)
	}

	liked := removed == 0
	if liked {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO post_likes (post_id, firebase_uid) VALUES ($1, $2) ON CONFLICT DO NOTHING", postID, firebaseUID)
		if isForeignKeyViolation(err) {
			return false, ErrPostNotFound
		}
		if err != nil {
			return false, fmt.Errorf("failed to toggle like: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit like: %w", err)
	}
	return liked, nil
}

// LikeCounts returns the like count of every post that has at least one like.
func (s *PostgresStore) LikeCounts(ctx context.Context) ([]LikeCount, error) {
	counts := []LikeCount{}
	err := s.db.SelectContext(ctx, &counts,
		"SELECT post_id, COUNT(*) AS likes FROM post_likes GROUP BY post_id ORDER BY post_id")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch likes: %w", err)
	}
	return counts, nil
}

// LikedPosts returns the posts a user liked.
func (s *PostgresStore) LikedPosts(ctx context.Context, firebaseUID string) ([]LikedPost, error) {
	liked := []LikedPost{}
	err := s.db.SelectContext(ctx, &liked,
		"SELECT post_id FROM post_likes WHERE firebase_uid = $1 ORDER BY post_id", firebaseUID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user likes: %w", err)
	}
	return liked, nil
}

// ListComments returns a post's comments in creation order.
func (s *PostgresStore) ListComments(ctx context.Context, postID int64) ([]Comment, error) {
	comments := []Comment{}
	err := s.db.SelectContext(ctx, &comments,
		"SELECT id, post_id, username, text, created_at FROM post_comments WHERE post_id = $1 ORDER BY created_at, id", postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// CreateComment inserts c and fills in its id and creation time.
func (s *PostgresStore) CreateComment(ctx context.Context, c *Comment) error {
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO post_comments (post_id, username, text) VALUES ($1, $2, $3) RETURNING id, created_at`,
		c.PostID, c.Username, c.Text,
	).Scan(&c.ID, &c.CreatedAt)
	if isForeignKeyViolation(err) {
		return ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// Reset deletes every like, comment and post.
func (s *PostgresStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"post_likes", "post_comments", "posts"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
