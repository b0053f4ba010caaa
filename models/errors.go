package models

import (
	"errors"
)

// Business errors surfaced by the ledger and its producers. Handlers map
// these to HTTP statuses with errors.Is; everything else is a 500.
var (
	// ErrAccountNotFound indicates the account id does not resolve.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds indicates the balance is below the requested
	// debit. The caller must not proceed with the paid action.
	ErrInsufficientFunds = errors.New("insufficient credits")

	// ErrAlreadyUsedToday indicates a concurrent call already consumed the
	// daily free action. Callers fall back to a normal debit.
	ErrAlreadyUsedToday = errors.New("daily free action already used today")

	// ErrInvalidArgument indicates a non-positive amount or an unrecognized
	// reason code.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRerollOnCooldown indicates the search reroll cooldown has not expired.
	ErrRerollOnCooldown = errors.New("reroll on cooldown")

	// ErrDailyPostLimit indicates the account already posted today.
	ErrDailyPostLimit = errors.New("daily post limit reached")

	// ErrPostNotFound indicates the post id does not resolve.
	ErrPostNotFound = errors.New("post not found")

	// ErrAlreadyLiked indicates the account already liked the post.
	ErrAlreadyLiked = errors.New("post already liked")

	// ErrSelfLike indicates an account tried to like its own post.
	ErrSelfLike = errors.New("cannot like your own post")

	// ErrTaskNotFound indicates the task id is not part of today's tasks.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskAlreadyCompleted indicates the task was already completed today.
	ErrTaskAlreadyCompleted = errors.New("task already completed")
)
