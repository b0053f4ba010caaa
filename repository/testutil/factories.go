package testutil

import (
	"time"

	"snelos/models"
)

// CreateTestAccount creates a test account with default values
func CreateTestAccount(id string) *models.Account {
	now := time.Now()
	return &models.Account{
		ID:           id,
		BalanceCents: 1000,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CreateTestAccountWithBalance creates a test account with a specific balance
func CreateTestAccountWithBalance(id string, balanceCents int64) *models.Account {
	account := CreateTestAccount(id)
	account.BalanceCents = balanceCents
	return account
}

// CreateTestLedgerEntry creates a test ledger entry
func CreateTestLedgerEntry(accountID string, deltaCents int64, reason models.CreditReason) *models.LedgerEntry {
	return &models.LedgerEntry{
		AccountID:  accountID,
		DeltaCents: deltaCents,
		Reason:     reason,
		Meta: map[string]any{
			"test": true,
		},
		CreatedAt: time.Now(),
	}
}

// CreateTestPost creates a test post
func CreateTestPost(id, accountID string) *models.Post {
	return &models.Post{
		ID:        id,
		AccountID: accountID,
		ImageURL:  "https://cdn.example.com/" + id + ".png",
		CreatedAt: time.Now(),
	}
}
