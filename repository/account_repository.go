package repository

import (
	"context"
	"fmt"
	"time"

	"snelos/database"
	"snelos/models"

	"github.com/jackc/pgx/v5"
)

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByID retrieves an account by its user id. Returns nil if absent.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `
		SELECT id, balance_cents, free_image_used_on, free_like_used_on, last_reroll_at, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.BalanceCents,
		&account.FreeImageUsedOn,
		&account.FreeLikeUsedOn,
		&account.LastRerollAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}

	return &account, nil
}

// Create creates a new account with the initial balance
func (r *AccountRepository) Create(ctx context.Context, id string, initialBalanceCents int64) (*models.Account, error) {
	query := `
		INSERT INTO accounts (id, balance_cents)
		VALUES ($1, $2)
		RETURNING id, balance_cents, created_at, updated_at
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, id, initialBalanceCents).Scan(
		&account.ID,
		&account.BalanceCents,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create account %s: %w", id, err)
	}

	return &account, nil
}

// AddBalance adds to an account's balance atomically and returns the new
// balance. Balances are unbounded above.
func (r *AccountRepository) AddBalance(ctx context.Context, id string, amountCents int64) (int64, error) {
	query := `
		UPDATE accounts
		SET balance_cents = balance_cents + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING balance_cents
	`

	var newBalance int64
	err := r.q.QueryRow(ctx, query, amountCents, id).Scan(&newBalance)
	if err == pgx.ErrNoRows {
		return 0, models.ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add balance for account %s: %w", id, err)
	}

	return newBalance, nil
}

// DeductBalance deducts from an account's balance atomically and returns the
// new balance. The conditional update is the linearization point: two
// concurrent deductions can never both succeed on a balance that only covers
// one of them.
func (r *AccountRepository) DeductBalance(ctx context.Context, id string, amountCents int64) (int64, error) {
	query := `
		UPDATE accounts
		SET balance_cents = balance_cents - $1, updated_at = NOW()
		WHERE id = $2 AND balance_cents >= $1
		RETURNING balance_cents
	`

	var newBalance int64
	err := r.q.QueryRow(ctx, query, amountCents, id).Scan(&newBalance)
	if err == nil {
		return newBalance, nil
	}
	if err != pgx.ErrNoRows {
		return 0, fmt.Errorf("failed to deduct balance for account %s: %w", id, err)
	}

	// No row updated: distinguish a missing account from insufficient funds
	account, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to check account %s: %w", id, err)
	}
	if account == nil {
		return 0, models.ErrAccountNotFound
	}
	return 0, models.ErrInsufficientFunds
}

// MarkDailyFreeUsed stamps the used-on marker for the given free action kind,
// but only if the marker is unset or from an earlier UTC calendar day. The
// conditional update makes check-and-consume atomic: of two concurrent calls
// on the same day exactly one wins, the other gets ErrAlreadyUsedToday.
func (r *AccountRepository) MarkDailyFreeUsed(ctx context.Context, id string, kind models.FreeActionKind, now time.Time) error {
	var column string
	switch kind {
	case models.FreeActionImage:
		column = "free_image_used_on"
	case models.FreeActionLike:
		column = "free_like_used_on"
	default:
		return models.ErrInvalidArgument
	}

	query := fmt.Sprintf(`
		UPDATE accounts
		SET %s = $1, updated_at = NOW()
		WHERE id = $2
		  AND (%s IS NULL OR (%s AT TIME ZONE 'utc')::date <> ($1 AT TIME ZONE 'utc')::date)
	`, column, column, column)

	result, err := r.q.Exec(ctx, query, now, id)
	if err != nil {
		return fmt.Errorf("failed to mark daily free %s used for account %s: %w", kind, id, err)
	}

	if result.RowsAffected() == 0 {
		account, err := r.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to check account %s: %w", id, err)
		}
		if account == nil {
			return models.ErrAccountNotFound
		}
		return models.ErrAlreadyUsedToday
	}

	return nil
}

// SetLastReroll stamps the reroll cooldown marker
func (r *AccountRepository) SetLastReroll(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE accounts
		SET last_reroll_at = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to set last reroll for account %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrAccountNotFound
	}

	return nil
}

// CountAll returns the total number of accounts
func (r *AccountRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}
