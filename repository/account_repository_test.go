package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"snelos/models"
	"snelos/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("not found returns nil", func(t *testing.T) {
		account, err := repo.GetByID(ctx, "missing-user")
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("create and retrieve", func(t *testing.T) {
		created, err := repo.Create(ctx, "user-1", 500)
		require.NoError(t, err)
		assert.Equal(t, "user-1", created.ID)
		assert.Equal(t, int64(500), created.BalanceCents)
		assert.False(t, created.CreatedAt.IsZero())

		account, err := repo.GetByID(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, int64(500), account.BalanceCents)
		assert.Nil(t, account.FreeImageUsedOn)
		assert.Nil(t, account.FreeLikeUsedOn)
		assert.Nil(t, account.LastRerollAt)
	})
}

func TestAccountRepository_DeductBalance(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, "payer", 100)
	require.NoError(t, err)

	t.Run("successful deduction", func(t *testing.T) {
		newBalance, err := repo.DeductBalance(ctx, "payer", 30)
		require.NoError(t, err)
		assert.Equal(t, int64(70), newBalance)
	})

	t.Run("insufficient balance leaves account untouched", func(t *testing.T) {
		_, err := repo.DeductBalance(ctx, "payer", 1000)
		assert.ErrorIs(t, err, models.ErrInsufficientFunds)

		account, err := repo.GetByID(ctx, "payer")
		require.NoError(t, err)
		assert.Equal(t, int64(70), account.BalanceCents)
	})

	t.Run("missing account", func(t *testing.T) {
		_, err := repo.DeductBalance(ctx, "nobody", 10)
		assert.ErrorIs(t, err, models.ErrAccountNotFound)
	})

	t.Run("deduction to exactly zero", func(t *testing.T) {
		newBalance, err := repo.DeductBalance(ctx, "payer", 70)
		require.NoError(t, err)
		assert.Equal(t, int64(0), newBalance)
	})
}

func TestAccountRepository_ConcurrentDeductions(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	// Balance covers exactly one of the two concurrent deductions
	_, err := repo.Create(ctx, "racer", 10)
	require.NoError(t, err)

	const attempts = 2
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.DeductBalance(ctx, "racer", 10)
		}(i)
	}
	wg.Wait()

	var succeeded, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, models.ErrInsufficientFunds):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)

	account, err := repo.GetByID(ctx, "racer")
	require.NoError(t, err)
	assert.Equal(t, int64(0), account.BalanceCents)
}

func TestAccountRepository_AddBalance(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, "saver", 0)
	require.NoError(t, err)

	newBalance, err := repo.AddBalance(ctx, "saver", 250)
	require.NoError(t, err)
	assert.Equal(t, int64(250), newBalance)

	_, err = repo.AddBalance(ctx, "nobody", 250)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestAccountRepository_MarkDailyFreeUsed(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, "daily", 0)
	require.NoError(t, err)

	now := time.Now()

	t.Run("first use succeeds", func(t *testing.T) {
		err := repo.MarkDailyFreeUsed(ctx, "daily", models.FreeActionImage, now)
		require.NoError(t, err)

		account, err := repo.GetByID(ctx, "daily")
		require.NoError(t, err)
		require.NotNil(t, account.FreeImageUsedOn)
		assert.True(t, models.SameUTCDay(*account.FreeImageUsedOn, now))
	})

	t.Run("second use same day fails", func(t *testing.T) {
		err := repo.MarkDailyFreeUsed(ctx, "daily", models.FreeActionImage, now)
		assert.ErrorIs(t, err, models.ErrAlreadyUsedToday)
	})

	t.Run("kinds are independent", func(t *testing.T) {
		err := repo.MarkDailyFreeUsed(ctx, "daily", models.FreeActionLike, now)
		require.NoError(t, err)
	})

	t.Run("next day succeeds again", func(t *testing.T) {
		tomorrow := now.Add(24 * time.Hour)
		err := repo.MarkDailyFreeUsed(ctx, "daily", models.FreeActionImage, tomorrow)
		require.NoError(t, err)
	})

	t.Run("missing account", func(t *testing.T) {
		err := repo.MarkDailyFreeUsed(ctx, "nobody", models.FreeActionImage, now)
		assert.ErrorIs(t, err, models.ErrAccountNotFound)
	})
}

func TestAccountRepository_ConcurrentDailyFreeUse(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, "racer", 0)
	require.NoError(t, err)

	now := time.Now()

	const attempts = 4
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.MarkDailyFreeUsed(ctx, "racer", models.FreeActionLike, now)
		}(i)
	}
	wg.Wait()

	var succeeded, alreadyUsed int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, models.ErrAlreadyUsedToday):
			alreadyUsed++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, alreadyUsed)
}

func TestAccountRepository_SetLastReroll(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, "searcher", 0)
	require.NoError(t, err)

	at := time.Now()
	err = repo.SetLastReroll(ctx, "searcher", at)
	require.NoError(t, err)

	account, err := repo.GetByID(ctx, "searcher")
	require.NoError(t, err)
	require.NotNil(t, account.LastRerollAt)
	assert.WithinDuration(t, at, *account.LastRerollAt, time.Second)

	err = repo.SetLastReroll(ctx, "nobody", at)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}
