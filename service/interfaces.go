package service

import (
	"context"
	"time"

	"snelos/events"
	"snelos/models"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// GetByID retrieves an account by its user id, nil if absent
	GetByID(ctx context.Context, id string) (*models.Account, error)

	// Create creates a new account with the initial balance
	Create(ctx context.Context, id string, initialBalanceCents int64) (*models.Account, error)

	// AddBalance adds to an account's balance atomically and returns the new balance
	AddBalance(ctx context.Context, id string, amountCents int64) (int64, error)

	// DeductBalance deducts from an account's balance atomically, failing
	// with models.ErrInsufficientFunds when the balance does not cover the amount
	DeductBalance(ctx context.Context, id string, amountCents int64) (int64, error)

	// MarkDailyFreeUsed atomically consumes a daily free entitlement,
	// failing with models.ErrAlreadyUsedToday if already consumed on the
	// same UTC day
	MarkDailyFreeUsed(ctx context.Context, id string, kind models.FreeActionKind, now time.Time) error

	// SetLastReroll stamps the reroll cooldown marker
	SetLastReroll(ctx context.Context, id string, at time.Time) error

	// CountAll returns the total number of accounts
	CountAll(ctx context.Context) (int64, error)
}

// LedgerEntryRepository defines the interface for the append-only audit log
type LedgerEntryRepository interface {
	// Record appends a new ledger entry
	Record(ctx context.Context, entry *models.LedgerEntry) error

	// GetByAccount returns ledger entries for an account, newest first
	GetByAccount(ctx context.Context, accountID string, limit int) ([]*models.LedgerEntry, error)

	// SumByAccount returns the sum of all entry deltas for an account
	SumByAccount(ctx context.Context, accountID string) (int64, error)
}

// TreasuryRepository defines the interface for the singleton treasury row
type TreasuryRepository interface {
	// Get retrieves the treasury row, nil if never created
	Get(ctx context.Context) (*models.Treasury, error)

	// Create initializes the treasury row with the given starting counts
	Create(ctx context.Context, totalUsers, totalPosts int64) (*models.Treasury, error)

	// IncrementCredits adds to the cumulative credits-moved counter
	IncrementCredits(ctx context.Context, amountCents int64) error

	// IncrementUsers bumps the user counter
	IncrementUsers(ctx context.Context) error

	// IncrementPosts bumps the post counter
	IncrementPosts(ctx context.Context) error
}

// PostRepository defines the interface for post data access
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	CountByAccountSince(ctx context.Context, accountID string, since time.Time) (int64, error)
	CreateLike(ctx context.Context, postID, accountID string) error
	HasLiked(ctx context.Context, postID, accountID string) (bool, error)
	IncrementLikeCount(ctx context.Context, postID string) error
	ListFeed(ctx context.Context, viewerID string, limit, offset int) ([]*models.Post, error)
	CountAll(ctx context.Context) (int64, error)
}

// TaskCompletionRepository defines the interface for daily task completions
type TaskCompletionRepository interface {
	Create(ctx context.Context, taskID, accountID string, dateUTC time.Time) error
	GetCompletedTaskIDs(ctx context.Context, accountID string, dateUTC time.Time) ([]string, error)
}

// EventPublisher publishes events onto the transactional bus
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork bundles the repositories over a single database transaction
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AccountRepository() AccountRepository
	LedgerEntryRepository() LedgerEntryRepository
	TreasuryRepository() TreasuryRepository
	PostRepository() PostRepository
	TaskCompletionRepository() TaskCompletionRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// LedgerService owns every balance change. All monetary amounts are integer
// cents; no floating point is used anywhere in balance arithmetic.
type LedgerService interface {
	// Debit atomically removes amountCents from the account and appends a
	// ledger entry with a negative delta. Fails with
	// models.ErrInsufficientFunds without mutating anything when the
	// balance does not cover the amount.
	Debit(ctx context.Context, accountID string, amountCents int64, reason models.CreditReason, meta map[string]any) error

	// Credit atomically adds amountCents to the account and appends a
	// ledger entry with a positive delta.
	Credit(ctx context.Context, accountID string, amountCents int64, reason models.CreditReason, meta map[string]any) error

	// CheckDailyFreeStatus reports which daily free actions are still
	// available for the current UTC day
	CheckDailyFreeStatus(ctx context.Context, accountID string) (models.DailyFreeStatus, error)

	// UseDailyFree consumes a daily free entitlement, failing with
	// models.ErrAlreadyUsedToday if a concurrent call already consumed it.
	// Callers treat that failure by falling back to Debit.
	UseDailyFree(ctx context.Context, accountID string, kind models.FreeActionKind) error

	// GetBalance returns the account's balance in cents
	GetBalance(ctx context.Context, accountID string) (int64, error)

	// GetHistory returns the account's ledger entries, newest first
	GetHistory(ctx context.Context, accountID string, limit int) ([]*models.LedgerEntry, error)
}

// AccountService defines account lifecycle and profile operations
type AccountService interface {
	// GetOrCreateAccount retrieves an existing account or creates a new one
	// with the configured starting balance
	GetOrCreateAccount(ctx context.Context, accountID string) (*models.Account, error)

	// GetProfile returns the account's ledger-facing profile fields
	GetProfile(ctx context.Context, accountID string) (*Profile, error)
}

// Profile is the ledger-facing slice of a user profile
type Profile struct {
	AccountID           string                 `json:"id"`
	CreditsBalanceCents int64                  `json:"creditsBalanceCents"`
	DailyFreeStatus     models.DailyFreeStatus `json:"dailyFreeStatus"`
	NextPostAt          *time.Time             `json:"nextPostAt,omitempty"`
	CanReroll           bool                   `json:"canReroll"`
	NextRerollAt        *time.Time             `json:"nextRerollAt,omitempty"`
}

// TreasuryService defines the reporting aggregate operations
type TreasuryService interface {
	// GetSummary returns the treasury aggregate, creating it lazily on
	// first access
	GetSummary(ctx context.Context) (*models.Treasury, error)

	// RegisterSubscriptions wires the aggregate to the ledger events that
	// feed it
	RegisterSubscriptions(bus *events.Bus)
}

// PostService defines photo post operations
type PostService interface {
	// CreatePost creates a post, consuming the daily free image or
	// debiting the post price
	CreatePost(ctx context.Context, accountID, imageURL string, promptTag *string) (*models.Post, error)

	// LikePost likes a post, consuming the daily free like or debiting the
	// like price
	LikePost(ctx context.Context, accountID, postID string) error

	// GetFeed returns the newest posts for a viewer
	GetFeed(ctx context.Context, viewerID string, limit, offset int) ([]*models.Post, error)

	// NextPostTime returns when the account may post again, nil if it can
	// post now
	NextPostTime(ctx context.Context, accountID string) (*time.Time, error)
}

// SearchService defines the discovery reroll operations. The user-directory
// lookup itself lives outside this backend; only the charge and the cooldown
// are owned here.
type SearchService interface {
	// Reroll charges for a search reroll and stamps the cooldown
	Reroll(ctx context.Context, accountID string) (*RerollResult, error)

	// Status reports whether the account can reroll right now
	Status(ctx context.Context, accountID string) (*RerollResult, error)
}

// RerollResult reports reroll availability
type RerollResult struct {
	CanReroll    bool       `json:"canReroll"`
	NextRerollAt *time.Time `json:"nextRerollAt,omitempty"`
}

// TaskService defines the daily task operations
type TaskService interface {
	// GetTodaysTasks returns today's tasks with completion flags
	GetTodaysTasks(ctx context.Context, accountID string) ([]*models.DailyTask, error)

	// CompleteTask marks a task completed and grants the bonus credits
	CompleteTask(ctx context.Context, accountID, taskID string) (*models.DailyTask, error)
}
