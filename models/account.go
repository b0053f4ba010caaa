package models

import (
	"time"
)

// Account holds one user's spendable credits balance. Balance is stored in
// integer cents and is only ever mutated through ledger operations.
type Account struct {
	ID              string     `db:"id"`
	BalanceCents    int64      `db:"balance_cents"`
	FreeImageUsedOn *time.Time `db:"free_image_used_on"`
	FreeLikeUsedOn  *time.Time `db:"free_like_used_on"`
	LastRerollAt    *time.Time `db:"last_reroll_at"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// FreeActionKind identifies one of the two daily free entitlements.
type FreeActionKind string

const (
	FreeActionImage FreeActionKind = "image"
	FreeActionLike  FreeActionKind = "like"
)

// Valid reports whether the kind is one of the two tracked entitlements.
func (k FreeActionKind) Valid() bool {
	return k == FreeActionImage || k == FreeActionLike
}

// DailyFreeStatus reports which daily free actions are still available.
type DailyFreeStatus struct {
	FreeImageAvailable bool `json:"freeImageAvailable"`
	FreeLikeAvailable  bool `json:"freeLikeAvailable"`
}

// CanAfford checks if the account has sufficient balance for an amount
func (a *Account) CanAfford(amountCents int64) bool {
	return a.BalanceCents >= amountCents
}

// FreeImageAvailable reports whether the free image post is still available
// at the given instant. Entitlements reset at UTC midnight, not 24h after
// last use.
func (a *Account) FreeImageAvailable(now time.Time) bool {
	return a.FreeImageUsedOn == nil || !SameUTCDay(*a.FreeImageUsedOn, now)
}

// FreeLikeAvailable reports whether the free like is still available at the
// given instant.
func (a *Account) FreeLikeAvailable(now time.Time) bool {
	return a.FreeLikeUsedOn == nil || !SameUTCDay(*a.FreeLikeUsedOn, now)
}

// DailyFreeStatusAt computes both entitlement flags at the given instant.
func (a *Account) DailyFreeStatusAt(now time.Time) DailyFreeStatus {
	return DailyFreeStatus{
		FreeImageAvailable: a.FreeImageAvailable(now),
		FreeLikeAvailable:  a.FreeLikeAvailable(now),
	}
}

// NextRerollAt returns when the search reroll cooldown expires, or nil if
// the account has never rerolled.
func (a *Account) NextRerollAt(cooldown time.Duration) *time.Time {
	if a.LastRerollAt == nil {
		return nil
	}
	next := a.LastRerollAt.Add(cooldown)
	return &next
}

// CanReroll reports whether the reroll cooldown has expired at the given instant.
func (a *Account) CanReroll(now time.Time, cooldown time.Duration) bool {
	next := a.NextRerollAt(cooldown)
	return next == nil || !now.Before(*next)
}

// SameUTCDay reports whether two instants fall on the same UTC calendar date.
func SameUTCDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.UTC().Date()
	y2, m2, d2 := t2.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
