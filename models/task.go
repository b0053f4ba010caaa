package models

import (
	"time"
)

// DailyTask is one of the per-UTC-day tasks offered to every account.
// Completing a task grants a small credits bonus; the named entitlement is
// consumed through the normal daily free gate when the user posts or likes.
type DailyTask struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	RewardType  FreeActionKind `json:"rewardType"`
	Completed   bool           `json:"completed"`
}

// TaskCompletion records that an account completed a task on a given UTC day.
type TaskCompletion struct {
	TaskID      string    `db:"task_id"`
	AccountID   string    `db:"account_id"`
	DateUTC     time.Time `db:"date_utc"`
	CompletedAt time.Time `db:"completed_at"`
}
