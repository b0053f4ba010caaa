package service

import (
	"context"
	"fmt"
	"time"

	"snelos/models"
)

// ledgerService implements the LedgerService interface. Every balance change
// runs inside a single unit of work: the balance mutation and the ledger
// entry land together or not at all.
type ledgerService struct {
	uowFactory UnitOfWorkFactory
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
	}
}

func validateAmountAndReason(amountCents int64, reason models.CreditReason) error {
	if amountCents <= 0 {
		return fmt.Errorf("amount must be positive, got %d: %w", amountCents, models.ErrInvalidArgument)
	}
	if !reason.Valid() {
		return fmt.Errorf("unrecognized reason %q: %w", reason, models.ErrInvalidArgument)
	}
	return nil
}

// Debit atomically removes amountCents from the account and appends a ledger
// entry with a negative delta
func (s *ledgerService) Debit(ctx context.Context, accountID string, amountCents int64, reason models.CreditReason, meta map[string]any) error {
	if err := validateAmountAndReason(amountCents, reason); err != nil {
		return err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	// Treasury updates are a reporting side effect, decoupled from ledger
	// correctness: the event published here only reaches the aggregate
	// after commit.
	if _, err := applyDebit(ctx, uow, accountID, amountCents, reason, meta); err != nil {
		return err
	}

	return uow.Commit()
}

// Credit atomically adds amountCents to the account and appends a ledger
// entry with a positive delta. Balances are unbounded above.
func (s *ledgerService) Credit(ctx context.Context, accountID string, amountCents int64, reason models.CreditReason, meta map[string]any) error {
	if err := validateAmountAndReason(amountCents, reason); err != nil {
		return err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := applyCredit(ctx, uow, accountID, amountCents, reason, meta); err != nil {
		return err
	}

	return uow.Commit()
}

// CheckDailyFreeStatus reports which daily free actions are still available.
// Entitlements reset at UTC midnight; the comparison is calendar-day, not a
// rolling 24h window.
func (s *ledgerService) CheckDailyFreeStatus(ctx context.Context, accountID string) (models.DailyFreeStatus, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return models.DailyFreeStatus{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return models.DailyFreeStatus{}, err
	}
	if account == nil {
		return models.DailyFreeStatus{}, models.ErrAccountNotFound
	}

	return account.DailyFreeStatusAt(time.Now()), nil
}

// UseDailyFree consumes a daily free entitlement. Availability is re-verified
// atomically in the store, so of two concurrent calls on the same day exactly
// one succeeds; the loser gets models.ErrAlreadyUsedToday and should fall
// back to Debit.
func (s *ledgerService) UseDailyFree(ctx context.Context, accountID string, kind models.FreeActionKind) error {
	if !kind.Valid() {
		return fmt.Errorf("unrecognized free action kind %q: %w", kind, models.ErrInvalidArgument)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.AccountRepository().MarkDailyFreeUsed(ctx, accountID, kind, time.Now()); err != nil {
		return err
	}

	return uow.Commit()
}

// GetBalance returns the account's balance in cents
func (s *ledgerService) GetBalance(ctx context.Context, accountID string) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, models.ErrAccountNotFound
	}

	return account.BalanceCents, nil
}

// GetHistory returns the account's ledger entries, newest first
func (s *ledgerService) GetHistory(ctx context.Context, accountID string, limit int) ([]*models.LedgerEntry, error) {
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

	return uow.LedgerEntryRepository().GetByAccount(ctx, accountID, limit)
}
