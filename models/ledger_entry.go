package models

import (
	"time"
)

// CreditReason classifies why a ledger entry was created
type CreditReason string

const (
	CreditReasonPostImage       CreditReason = "post_image"
	CreditReasonLikePost        CreditReason = "like_post"
	CreditReasonRerollSearch    CreditReason = "reroll_search"
	CreditReasonTaskCompletion  CreditReason = "task_completion"
	CreditReasonAdminAdjustment CreditReason = "admin_adjustment"
)

// Valid reports whether the reason is part of the closed enumeration.
// Unrecognized reasons are rejected before they reach the store.
func (r CreditReason) Valid() bool {
	switch r {
	case CreditReasonPostImage, CreditReasonLikePost, CreditReasonRerollSearch,
		CreditReasonTaskCompletion, CreditReasonAdminAdjustment:
		return true
	}
	return false
}

// LedgerEntry is an immutable record of a single balance change. Entries are
// append-only: created once, never updated or deleted. Delta is negative for
// debits and positive for credits.
type LedgerEntry struct {
	ID         int64          `db:"id" json:"id"`
	AccountID  string         `db:"account_id" json:"accountId"`
	DeltaCents int64          `db:"delta_cents" json:"deltaCents"`
	Reason     CreditReason   `db:"reason" json:"reason"`
	Meta       map[string]any `db:"meta" json:"meta,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
}
