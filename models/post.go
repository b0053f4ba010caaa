package models

import (
	"time"
)

// Post is a photo post created by an account. Image processing and storage
// happen upstream; the ledger-facing backend only records the final URL.
type Post struct {
	ID        string    `db:"id" json:"id"`
	AccountID string    `db:"account_id" json:"accountId"`
	ImageURL  string    `db:"image_url" json:"imageUrl"`
	PromptTag *string   `db:"prompt_tag" json:"promptTag,omitempty"`
	LikeCount int64     `db:"like_count" json:"likeCount"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	// LikedByViewer is populated on feed reads for the requesting account.
	LikedByViewer bool `db:"-" json:"likedByViewer"`
}

// PostLike records that an account liked a post, at most once per pair.
type PostLike struct {
	PostID    string    `db:"post_id"`
	AccountID string    `db:"account_id"`
	CreatedAt time.Time `db:"created_at"`
}
