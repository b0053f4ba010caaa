package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"snelos/database"
	"snelos/models"
)

// LedgerEntryRepository implements the LedgerEntryRepository interface
type LedgerEntryRepository struct {
	q queryable
}

// NewLedgerEntryRepository creates a new ledger entry repository
func NewLedgerEntryRepository(db *database.DB) *LedgerEntryRepository {
	return &LedgerEntryRepository{q: db.Pool}
}

// newLedgerEntryRepositoryWithTx creates a new ledger entry repository with a transaction
func newLedgerEntryRepositoryWithTx(tx queryable) *LedgerEntryRepository {
	return &LedgerEntryRepository{q: tx}
}

// Record appends a new ledger entry. Entries are immutable; there is no
// update or delete path.
func (r *LedgerEntryRepository) Record(ctx context.Context, entry *models.LedgerEntry) error {
	metaJSON, err := json.Marshal(entry.Meta)
	if err != nil {
		return fmt.Errorf("failed to marshal entry meta: %w", err)
	}

	query := `
		INSERT INTO ledger_entries (account_id, delta_cents, reason, meta)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		entry.AccountID,
		entry.DeltaCents,
		entry.Reason,
		metaJSON,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record ledger entry for account %s: %w", entry.AccountID, err)
	}

	return nil
}

// GetByAccount returns ledger entries for an account, newest first
func (r *LedgerEntryRepository) GetByAccount(ctx context.Context, accountID string, limit int) ([]*models.LedgerEntry, error) {
	query := `
		SELECT id, account_id, delta_cents, reason, meta, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		var metaJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.DeltaCents,
			&entry.Reason,
			&metaJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &entry.Meta); err != nil {
				return nil, fmt.Errorf("failed to unmarshal entry meta: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}

// SumByAccount returns the sum of all entry deltas for an account. The
// result equals the denormalized balance when ledger and balance are
// consistent, so it is useful for audit reconstruction.
func (r *LedgerEntryRepository) SumByAccount(ctx context.Context, accountID string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(delta_cents), 0)
		FROM ledger_entries
		WHERE account_id = $1
	`

	var sum int64
	if err := r.q.QueryRow(ctx, query, accountID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum ledger entries for account %s: %w", accountID, err)
	}
	return sum, nil
}
