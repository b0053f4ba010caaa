package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"snelos/events"
	"snelos/models"
	"snelos/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitFlushesEvents(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()

	var mu sync.Mutex
	var received []events.Event
	done := make(chan struct{}, 1)
	bus.Subscribe(events.EventTypeCreditsChanged, func(ctx context.Context, e events.Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
		done <- struct{}{}
	})

	factory := NewUnitOfWorkFactory(testDB.DB, bus)

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))

	_, err := uow.AccountRepository().Create(ctx, "user-1", 100)
	require.NoError(t, err)

	newBalance, err := uow.AccountRepository().DeductBalance(ctx, "user-1", 40)
	require.NoError(t, err)

	uow.EventBus().Publish(events.CreditsChangedEvent{
		AccountID:  "user-1",
		DeltaCents: -40,
		Reason:     models.CreditReasonPostImage,
		NewBalance: newBalance,
	})

	// Nothing reaches subscribers before commit
	mu.Lock()
	assert.Empty(t, received)
	mu.Unlock()

	require.NoError(t, uow.Commit())

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event delivery")
	}

	mu.Lock()
	require.Len(t, received, 1)
	changed := received[0].(events.CreditsChangedEvent)
	mu.Unlock()
	assert.Equal(t, int64(-40), changed.DeltaCents)
	assert.Equal(t, int64(60), changed.NewBalance)

	// The committed write is visible outside the transaction
	account, err := NewAccountRepository(testDB.DB).GetByID(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, int64(60), account.BalanceCents)
}

func TestUnitOfWork_RollbackDiscardsWritesAndEvents(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()

	var mu sync.Mutex
	var received []events.Event
	bus.Subscribe(events.EventTypeCreditsChanged, func(ctx context.Context, e events.Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	})

	factory := NewUnitOfWorkFactory(testDB.DB, bus)

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))

	_, err := uow.AccountRepository().Create(ctx, "ghost", 100)
	require.NoError(t, err)
	uow.EventBus().Publish(events.CreditsChangedEvent{AccountID: "ghost", DeltaCents: 100})

	require.NoError(t, uow.Rollback())

	// Async delivery would have happened well within this window
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	assert.Empty(t, received)
	mu.Unlock()

	account, err := NewAccountRepository(testDB.DB).GetByID(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, account)
}

func TestUnitOfWork_AtomicSpend(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))

	_, err := uow.AccountRepository().Create(ctx, "user-1", 5)
	require.NoError(t, err)
	require.NoError(t, uow.Commit())

	// A failing entry append must take the balance change down with it
	uow = factory.Create()
	require.NoError(t, uow.Begin(ctx))

	_, err = uow.AccountRepository().DeductBalance(ctx, "user-1", 5)
	require.NoError(t, err)

	err = uow.LedgerEntryRepository().Record(ctx, &models.LedgerEntry{
		AccountID:  "user-1",
		DeltaCents: -5,
		Reason:     models.CreditReason("not-a-reason"),
	})
	require.Error(t, err)
	require.NoError(t, uow.Rollback())

	account, err := NewAccountRepository(testDB.DB).GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), account.BalanceCents)
}

func TestUnitOfWork_AccessBeforeBeginPanics(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	uow := factory.Create()

	assert.Panics(t, func() { uow.AccountRepository() })
}
