package service

import (
	"context"
	"fmt"
	"time"

	"snelos/config"
	"snelos/events"
	"snelos/models"
)

// accountService implements the AccountService interface
type accountService struct {
	uowFactory UnitOfWorkFactory
}

// NewAccountService creates a new account service
func NewAccountService(uowFactory UnitOfWorkFactory) AccountService {
	return &accountService{
		uowFactory: uowFactory,
	}
}

// GetOrCreateAccount retrieves an existing account or creates a new one with
// the configured starting balance. A starting grant is recorded in the
// ledger so the balance stays reconstructible from entries.
func (s *accountService) GetOrCreateAccount(ctx context.Context, accountID string) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if account != nil {
		return account, nil
	}

	startingBalance := config.Get().StartingBalanceCents
	account, err = uow.AccountRepository().Create(ctx, accountID, startingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if startingBalance > 0 {
		entry := &models.LedgerEntry{
			AccountID:  accountID,
			DeltaCents: startingBalance,
			Reason:     models.CreditReasonAdminAdjustment,
			Meta:       map[string]any{"initial_grant": true},
		}
		if err := uow.LedgerEntryRepository().Record(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to record starting balance: %w", err)
		}
	}

	uow.EventBus().Publish(events.AccountCreatedEvent{
		AccountID:           accountID,
		InitialBalanceCents: startingBalance,
	})

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return account, nil
}

// GetProfile returns the account's ledger-facing profile fields
func (s *accountService) GetProfile(ctx context.Context, accountID string) (*Profile, error) {
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

	now := time.Now()
	cfg := config.Get()

	profile := &Profile{
		AccountID:           account.ID,
		CreditsBalanceCents: account.BalanceCents,
		DailyFreeStatus:     account.DailyFreeStatusAt(now),
		CanReroll:           account.CanReroll(now, cfg.RerollCooldown),
	}
	if !profile.CanReroll {
		profile.NextRerollAt = account.NextRerollAt(cfg.RerollCooldown)
	}

	// One post per UTC day: if the account already posted today, the next
	// slot opens at the next UTC midnight.
	startOfDay := StartOfUTCDay(now)
	posted, err := uow.PostRepository().CountByAccountSince(ctx, accountID, startOfDay)
	if err != nil {
		return nil, err
	}
	if posted > 0 {
		next := startOfDay.AddDate(0, 0, 1)
		profile.NextPostAt = &next
	}

	return profile, nil
}

// StartOfUTCDay truncates an instant to UTC midnight
func StartOfUTCDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
