package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snelos/database"
	"snelos/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PostRepository implements the PostRepository interface
type PostRepository struct {
	q queryable
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *database.DB) *PostRepository {
	return &PostRepository{q: db.Pool}
}

// newPostRepositoryWithTx creates a new post repository with a transaction
func newPostRepositoryWithTx(tx queryable) *PostRepository {
	return &PostRepository{q: tx}
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (id, account_id, image_url, prompt_tag)
		VALUES ($1, $2, $3, $4)
		RETURNING like_count, created_at
	`

	err := r.q.QueryRow(ctx, query,
		post.ID,
		post.AccountID,
		post.ImageURL,
		post.PromptTag,
	).Scan(&post.LikeCount, &post.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create post for account %s: %w", post.AccountID, err)
	}

	return nil
}

// GetByID retrieves a post by its ID. Returns nil if absent.
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `
		SELECT id, account_id, image_url, prompt_tag, like_count, created_at
		FROM posts
		WHERE id = $1
	`

	var post models.Post
	err := r.q.QueryRow(ctx, query, id).Scan(
		&post.ID,
		&post.AccountID,
		&post.ImageURL,
		&post.PromptTag,
		&post.LikeCount,
		&post.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post %s: %w", id, err)
	}

	return &post, nil
}

// CountByAccountSince returns the number of posts by an account created at
// or after the given instant. Used for the one-post-per-UTC-day limit.
func (r *PostRepository) CountByAccountSince(ctx context.Context, accountID string, since time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM posts
		WHERE account_id = $1 AND created_at >= $2
	`

	var count int64
	if err := r.q.QueryRow(ctx, query, accountID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count posts for account %s: %w", accountID, err)
	}
	return count, nil
}

// CreateLike records a like. The composite primary key enforces at most one
// like per account per post; a duplicate surfaces as ErrAlreadyLiked.
func (r *PostRepository) CreateLike(ctx context.Context, postID, accountID string) error {
	query := `
		INSERT INTO post_likes (post_id, account_id)
		VALUES ($1, $2)
	`

	_, err := r.q.Exec(ctx, query, postID, accountID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.ErrAlreadyLiked
		}
		return fmt.Errorf("failed to create like on post %s: %w", postID, err)
	}

	return nil
}

// HasLiked reports whether the account already liked the post
func (r *PostRepository) HasLiked(ctx context.Context, postID, accountID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM post_likes WHERE post_id = $1 AND account_id = $2
		)
	`

	var liked bool
	if err := r.q.QueryRow(ctx, query, postID, accountID).Scan(&liked); err != nil {
		return false, fmt.Errorf("failed to check like on post %s: %w", postID, err)
	}
	return liked, nil
}

// IncrementLikeCount bumps the denormalized public like counter
func (r *PostRepository) IncrementLikeCount(ctx context.Context, postID string) error {
	query := `
		UPDATE posts
		SET like_count = like_count + 1
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, postID)
	if err != nil {
		return fmt.Errorf("failed to increment like count on post %s: %w", postID, err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrPostNotFound
	}

	return nil
}

// ListFeed returns the newest posts, annotated with whether the viewer
// already liked each one
func (r *PostRepository) ListFeed(ctx context.Context, viewerID string, limit, offset int) ([]*models.Post, error) {
	query := `
		SELECT p.id, p.account_id, p.image_url, p.prompt_tag, p.like_count, p.created_at,
		       EXISTS (
		           SELECT 1 FROM post_likes pl WHERE pl.post_id = p.id AND pl.account_id = $1
		       ) AS liked_by_viewer
		FROM posts p
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.q.Query(ctx, query, viewerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		var post models.Post
		err := rows.Scan(
			&post.ID,
			&post.AccountID,
			&post.ImageURL,
			&post.PromptTag,
			&post.LikeCount,
			&post.CreatedAt,
			&post.LikedByViewer,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, &post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// CountAll returns the total number of posts
func (r *PostRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}
