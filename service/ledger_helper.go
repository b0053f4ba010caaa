package service

import (
	"context"

	"snelos/events"
	"snelos/models"
)

// applyDebit performs the balance deduction and entry append inside the
// caller's unit of work. This is the single write path for debits: the
// ledger service and any producer composing a debit with its own writes all
// go through here.
func applyDebit(ctx context.Context, uow UnitOfWork, accountID string, amountCents int64, reason models.CreditReason, meta map[string]any) (int64, error) {
	newBalance, err := uow.AccountRepository().DeductBalance(ctx, accountID, amountCents)
	if err != nil {
		return 0, err
	}

	entry := &models.LedgerEntry{
		AccountID:  accountID,
		DeltaCents: -amountCents,
		Reason:     reason,
		Meta:       meta,
	}
	if err := uow.LedgerEntryRepository().Record(ctx, entry); err != nil {
		return 0, err
	}

	uow.EventBus().Publish(events.CreditsChangedEvent{
		AccountID:  accountID,
		DeltaCents: -amountCents,
		Reason:     reason,
		NewBalance: newBalance,
	})

	return newBalance, nil
}

// applyCredit performs the balance increment and entry append inside the
// caller's unit of work
func applyCredit(ctx context.Context, uow UnitOfWork, accountID string, amountCents int64, reason models.CreditReason, meta map[string]any) (int64, error) {
	newBalance, err := uow.AccountRepository().AddBalance(ctx, accountID, amountCents)
	if err != nil {
		return 0, err
	}

	entry := &models.LedgerEntry{
		AccountID:  accountID,
		DeltaCents: amountCents,
		Reason:     reason,
		Meta:       meta,
	}
	if err := uow.LedgerEntryRepository().Record(ctx, entry); err != nil {
		return 0, err
	}

	uow.EventBus().Publish(events.CreditsChangedEvent{
		AccountID:  accountID,
		DeltaCents: amountCents,
		Reason:     reason,
		NewBalance: newBalance,
	})

	return newBalance, nil
}
