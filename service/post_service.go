package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snelos/config"
	"snelos/events"
	"snelos/models"

	"github.com/google/uuid"
)

// postService implements the PostService interface
type postService struct {
	uowFactory UnitOfWorkFactory
	ledger     LedgerService
}

// NewPostService creates a new post service
func NewPostService(uowFactory UnitOfWorkFactory, ledger LedgerService) PostService {
	return &postService{
		uowFactory: uowFactory,
		ledger:     ledger,
	}
}

// CreatePost creates a post, consuming the daily free image if available and
// debiting the post price otherwise. One post per account per UTC day.
func (s *postService) CreatePost(ctx context.Context, accountID, imageURL string, promptTag *string) (*models.Post, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("image URL is required: %w", models.ErrInvalidArgument)
	}

	if err := s.checkDailyPostLimit(ctx, accountID); err != nil {
		return nil, err
	}

	meta := map[string]any{}
	if promptTag != nil {
		meta["prompt_tag"] = *promptTag
	}
	if err := s.spendFreeOrDebit(ctx, accountID, models.FreeActionImage,
		config.Get().CostPostImageCents, models.CreditReasonPostImage, meta); err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:        uuid.NewString(),
		AccountID: accountID,
		ImageURL:  imageURL,
		PromptTag: promptTag,
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.PostRepository().Create(ctx, post); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.PostCreatedEvent{
		PostID:    post.ID,
		AccountID: accountID,
	})

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return post, nil
}

// LikePost likes a post, consuming the daily free like if available and
// debiting the like price otherwise
func (s *postService) LikePost(ctx context.Context, accountID, postID string) error {
	if err := s.validateLike(ctx, accountID, postID); err != nil {
		return err
	}

	if err := s.spendFreeOrDebit(ctx, accountID, models.FreeActionLike,
		config.Get().CostLikePostCents, models.CreditReasonLikePost,
		map[string]any{"post_id": postID}); err != nil {
		return err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// The composite key on post_likes still guards a duplicate that slipped
	// past validateLike under concurrency
	if err := uow.PostRepository().CreateLike(ctx, postID, accountID); err != nil {
		return err
	}
	if err := uow.PostRepository().IncrementLikeCount(ctx, postID); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *postService) validateLike(ctx context.Context, accountID, postID string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	post, err := uow.PostRepository().GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return models.ErrPostNotFound
	}
	if post.AccountID == accountID {
		return models.ErrSelfLike
	}

	liked, err := uow.PostRepository().HasLiked(ctx, postID, accountID)
	if err != nil {
		return err
	}
	if liked {
		return models.ErrAlreadyLiked
	}

	return nil
}

// GetFeed returns the newest posts for a viewer
func (s *postService) GetFeed(ctx context.Context, viewerID string, limit, offset int) ([]*models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.PostRepository().ListFeed(ctx, viewerID, limit, offset)
}

// NextPostTime returns when the account may post again, nil if it can post now
func (s *postService) NextPostTime(ctx context.Context, accountID string) (*time.Time, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	startOfDay := StartOfUTCDay(time.Now())
	count, err := uow.PostRepository().CountByAccountSince(ctx, accountID, startOfDay)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	next := startOfDay.AddDate(0, 0, 1)
	return &next, nil
}

func (s *postService) checkDailyPostLimit(ctx context.Context, accountID string) error {
	next, err := s.NextPostTime(ctx, accountID)
	if err != nil {
		return err
	}
	if next != nil {
		return models.ErrDailyPostLimit
	}
	return nil
}

// spendFreeOrDebit is the check-then-consume contract with the ledger: check
// availability, try to consume the free action, and fall back to a paid
// debit when a concurrent request got there first.
func (s *postService) spendFreeOrDebit(ctx context.Context, accountID string, kind models.FreeActionKind, costCents int64, reason models.CreditReason, meta map[string]any) error {
	status, err := s.ledger.CheckDailyFreeStatus(ctx, accountID)
	if err != nil {
		return err
	}

	available := status.FreeImageAvailable
	if kind == models.FreeActionLike {
		available = status.FreeLikeAvailable
	}

	if available {
		err := s.ledger.UseDailyFree(ctx, accountID, kind)
		if err == nil {
			return nil
		}
		if !errors.Is(err, models.ErrAlreadyUsedToday) {
			return err
		}
		// Lost the race for the free action; pay instead
	}

	return s.ledger.Debit(ctx, accountID, costCents, reason, meta)
}
