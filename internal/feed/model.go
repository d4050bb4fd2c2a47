package feed

import "time"

// Post is an entry of the social feed.
type Post struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Caption   string    `json:"caption" db:"caption"`
	ImageURL  string    `json:"image_url" db:"image_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Comment struct {
	ID        int64     `json:"id" db:"id"`
	PostID    int64     `json:"post_id" db:"post_id"`
	Username  string    `json:"username" db:"username"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// LikeCount is the number of likes of one post.
type LikeCount struct {
	PostID int64 `json:"post_id" db:"post_id"`
	Likes  int64 `json:"likes" db:"likes"`
}

// LikedPost is one post liked by a user.
type LikedPost struct {
	PostID int64 `json:"post_id" db:"post_id"`
}
