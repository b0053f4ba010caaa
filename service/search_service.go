package service

import (
	"context"
	"fmt"
	"time"

	"snelos/config"
	"snelos/models"
)

// searchService implements the SearchService interface
type searchService struct {
	uowFactory UnitOfWorkFactory
	ledger     LedgerService
}

// NewSearchService creates a new search service
func NewSearchService(uowFactory UnitOfWorkFactory, ledger LedgerService) SearchService {
	return &searchService{
		uowFactory: uowFactory,
		ledger:     ledger,
	}
}

// Reroll charges for a search reroll and stamps the cooldown. Fails with
// models.ErrRerollOnCooldown while the cooldown from the previous reroll is
// still running.
func (s *searchService) Reroll(ctx context.Context, accountID string) (*RerollResult, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	cooldown := config.Get().RerollCooldown
	if !account.CanReroll(now, cooldown) {
		return nil, fmt.Errorf("next reroll at %s: %w",
			account.NextRerollAt(cooldown).Format(time.RFC3339), models.ErrRerollOnCooldown)
	}

	if err := s.ledger.Debit(ctx, accountID, config.Get().CostRerollCents,
		models.CreditReasonRerollSearch, nil); err != nil {
		return nil, err
	}

	if err := s.setLastReroll(ctx, accountID, now); err != nil {
		return nil, err
	}

	next := now.Add(cooldown)
	return &RerollResult{CanReroll: false, NextRerollAt: &next}, nil
}

// Status reports whether the account can reroll right now
func (s *searchService) Status(ctx context.Context, accountID string) (*RerollResult, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	cooldown := config.Get().RerollCooldown
	result := &RerollResult{CanReroll: account.CanReroll(now, cooldown)}
	if !result.CanReroll {
		result.NextRerollAt = account.NextRerollAt(cooldown)
	}

	return result, nil
}

func (s *searchService) getAccount(ctx context.Context, accountID string) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, models.ErrAccountNotFound
	}
	return account, nil
}

func (s *searchService) setLastReroll(ctx context.Context, accountID string, at time.Time) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.AccountRepository().SetLastReroll(ctx, accountID, at); err != nil {
		return err
	}

	return uow.Commit()
}
