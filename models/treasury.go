package models

import (
	"time"
)

// TreasuryID is the well-known identity of the singleton treasury row.
const TreasuryID = "main"

// Treasury is the denormalized global counter row used for display and
// reporting. It is a derived summary, never consulted for authorization
// decisions, so eventual consistency is acceptable.
type Treasury struct {
	ID           string    `db:"id" json:"id"`
	TotalCredits int64     `db:"total_credits" json:"totalCredits"`
	TotalUsers   int64     `db:"total_users" json:"totalUsers"`
	TotalPosts   int64     `db:"total_posts" json:"totalPosts"`
	LastUpdated  time.Time `db:"last_updated" json:"lastUpdated"`
}
