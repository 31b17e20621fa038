package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auctionhouse/auctiond/internal/domain"
)

func TestEscrowDepositFreezeSettle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 0)
	seller := f.addSeller(t, "bob@example.com")

	require.NoError(t, f.escrow.Deposit(ctx, buyer.ID, 500))
	require.NoError(t, f.escrow.Freeze(ctx, buyer.ID, 200))

	b := f.getBuyer(t, buyer.ID)
	assert.EqualValues(t, 300, b.Available)
	assert.EqualValues(t, 200, b.Frozen)
	assert.True(t, b.Balanced())

	require.NoError(t, f.escrow.Settle(ctx, buyer.ID, seller.ID, 200))

	b = f.getBuyer(t, buyer.ID)
	assert.EqualValues(t, 300, b.Available)
	assert.EqualValues(t, 0, b.Frozen)
	assert.EqualValues(t, 500, b.TotalDeposited)
	assert.EqualValues(t, 200, b.TotalSettled)
	assert.True(t, b.Balanced())

	s, err := f.store.Sellers().Get(ctx, seller.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 200, s.Fund)
}

func TestEscrowFreezeInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 100)

	err := f.escrow.Freeze(ctx, buyer.ID, 150)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	b := f.getBuyer(t, buyer.ID)
	assert.EqualValues(t, 100, b.Available)
	assert.EqualValues(t, 0, b.Frozen)
}

func TestEscrowUnfreezeExceedingFrozenIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 100)
	require.NoError(t, f.escrow.Freeze(ctx, buyer.ID, 60))

	err := f.escrow.Unfreeze(ctx, buyer.ID, 80)
	require.ErrorIs(t, err, domain.ErrInvariantViolation)

	b := f.getBuyer(t, buyer.ID)
	assert.EqualValues(t, 60, b.Frozen)
	assert.True(t, b.Balanced())
}

func TestEscrowRejectsNonPositiveAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 100)

	assert.ErrorIs(t, f.escrow.Deposit(ctx, buyer.ID, 0), domain.ErrValidation)
	assert.ErrorIs(t, f.escrow.Freeze(ctx, buyer.ID, -5), domain.ErrValidation)
	assert.ErrorIs(t, f.escrow.Unfreeze(ctx, buyer.ID, 0), domain.ErrValidation)
}

func TestEscrowDepositUnknownBuyer(t *testing.T) {
	f := newFixture(t)

	err := f.escrow.Deposit(context.Background(), "buyer_missing", 50)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

// Concurrent freezes against one buyer must never double-spend: the sum of
// successfully frozen amounts cannot exceed the deposit, and the record stays
// balanced throughout.
func TestEscrowConcurrentFreezesConserveBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 1000)

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.escrow.Freeze(ctx, buyer.ID, 150)
		}(i)
	}
	wg.Wait()

	var succeeded int64
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.True(t,
				errorsIsAny(err, domain.ErrInsufficientFunds, domain.ErrContention),
				"unexpected error: %v", err)
		}
	}

	b := f.getBuyer(t, buyer.ID)
	assert.EqualValues(t, succeeded*150, b.Frozen)
	assert.EqualValues(t, 1000-succeeded*150, b.Available)
	assert.True(t, b.Balanced())
}

func TestEscrowContentionAfterRetryBudget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 100)

	// A store that always reports a stale version exhausts the retry loop.
	ledger := NewEscrowLedger(conflictingBuyers{f.store.Buyers()}, f.store.Sellers(), testLogger(), 3, 0)
	err := ledger.Freeze(ctx, buyer.ID, 10)
	require.ErrorIs(t, err, domain.ErrContention)
}

type conflictingBuyers struct {
	domain.BuyerStore
}

func (conflictingBuyers) Update(ctx context.Context, b domain.Buyer, expectedVersion int64) error {
	return domain.ErrVersionConflict
}

func errorsIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
