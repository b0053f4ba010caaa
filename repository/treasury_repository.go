package repository

import (
	"context"
	"fmt"

	"snelos/database"
	"snelos/models"

	"github.com/jackc/pgx/v5"
)

// TreasuryRepository implements the TreasuryRepository interface. All
// operations target the single well-known 'main' row.
type TreasuryRepository struct {
	q queryable
}

// NewTreasuryRepository creates a new treasury repository
func NewTreasuryRepository(db *database.DB) *TreasuryRepository {
	return &TreasuryRepository{q: db.Pool}
}

// newTreasuryRepositoryWithTx creates a new treasury repository with a transaction
func newTreasuryRepositoryWithTx(tx queryable) *TreasuryRepository {
	return &TreasuryRepository{q: tx}
}

// Get retrieves the treasury row. Returns nil if it has never been created.
func (r *TreasuryRepository) Get(ctx context.Context) (*models.Treasury, error) {
	query := `
		SELECT id, total_credits, total_users, total_posts, last_updated
		FROM treasury
		WHERE id = $1
	`

	var treasury models.Treasury
	err := r.q.QueryRow(ctx, query, models.TreasuryID).Scan(
		&treasury.ID,
		&treasury.TotalCredits,
		&treasury.TotalUsers,
		&treasury.TotalPosts,
		&treasury.LastUpdated,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get treasury: %w", err)
	}

	return &treasury, nil
}

// Create initializes the treasury row with the given starting counts
func (r *TreasuryRepository) Create(ctx context.Context, totalUsers, totalPosts int64) (*models.Treasury, error) {
	query := `
		INSERT INTO treasury (id, total_credits, total_users, total_posts)
		VALUES ($1, 0, $2, $3)
		ON CONFLICT (id) DO NOTHING
		RETURNING id, total_credits, total_users, total_posts, last_updated
	`

	var treasury models.Treasury
	err := r.q.QueryRow(ctx, query, models.TreasuryID, totalUsers, totalPosts).Scan(
		&treasury.ID,
		&treasury.TotalCredits,
		&treasury.TotalUsers,
		&treasury.TotalPosts,
		&treasury.LastUpdated,
	)

	// A concurrent initializer won the upsert; read back its row
	if err == pgx.ErrNoRows {
		return r.Get(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create treasury: %w", err)
	}

	return &treasury, nil
}

// IncrementCredits adds to the cumulative credits-moved counter, creating
// the row if it does not exist yet
func (r *TreasuryRepository) IncrementCredits(ctx context.Context, amountCents int64) error {
	query := `
		INSERT INTO treasury (id, total_credits, total_users, total_posts)
		VALUES ($1, $2, 0, 0)
		ON CONFLICT (id) DO UPDATE
		SET total_credits = treasury.total_credits + EXCLUDED.total_credits,
		    last_updated = NOW()
	`

	if _, err := r.q.Exec(ctx, query, models.TreasuryID, amountCents); err != nil {
		return fmt.Errorf("failed to increment treasury credits: %w", err)
	}
	return nil
}

// IncrementUsers bumps the user counter
func (r *TreasuryRepository) IncrementUsers(ctx context.Context) error {
	query := `
		INSERT INTO treasury (id, total_credits, total_users, total_posts)
		VALUES ($1, 0, 1, 0)
		ON CONFLICT (id) DO UPDATE
		SET total_users = treasury.total_users + 1,
		    last_updated = NOW()
	`

	if _, err := r.q.Exec(ctx, query, models.TreasuryID); err != nil {
		return fmt.Errorf("failed to increment treasury users: %w", err)
	}
	return nil
}

// IncrementPosts bumps the post counter
func (r *TreasuryRepository) IncrementPosts(ctx context.Context) error {
	query := `
		INSERT INTO treasury (id, total_credits, total_users, total_posts)
		VALUES ($1, 0, 0, 1)
		ON CONFLICT (id) DO UPDATE
		SET total_posts = treasury.total_posts + 1,
		    last_updated = NOW()
	`

	if _, err := r.q.Exec(ctx, query, models.TreasuryID); err != nil {
		return fmt.Errorf("failed to increment treasury posts: %w", err)
	}
	return nil
}
