package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auctionhouse/auctiond/internal/domain"
)

func TestCloseAuctionSettlesWinningBid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 500)
	seller := f.addSeller(t, "bob@example.com")
	it := f.listItem(t, seller.ID, 50)

	bid, err := f.bidding.PlaceBid(ctx, buyer.ID, seller.ID, it.ID, 120)
	require.NoError(t, err)

	p, err := f.settlement.CloseAuction(ctx, seller.ID, it.ID)
	require.NoError(t, err)
	assert.Equal(t, bid.ID, p.ID, "purchase id equals winning bid id")
	assert.Equal(t, domain.SettlementStatusSettled, p.Status)
	assert.EqualValues(t, 120, p.Amount)
	require.NotNil(t, p.SettledAt)

	got := f.getItem(t, seller.ID, it.ID)
	assert.Equal(t, domain.ItemStatusSold, got.Status)
	require.NotNil(t, got.SoldPrice)
	assert.EqualValues(t, 120, *got.SoldPrice)

	won := f.getBid(t, buyer.ID, bid.ID)
	assert.Equal(t, domain.BidStatusWon, won.Status)
	assert.EqualValues(t, 0, won.FrozenAmount)

	b := f.getBuyer(t, buyer.ID)
	assert.EqualValues(t, 380, b.Available)
	assert.EqualValues(t, 0, b.Frozen)
	assert.EqualValues(t, 120, b.TotalSettled)
	assert.True(t, b.Balanced())

	s, err := f.store.Sellers().Get(ctx, seller.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 120, s.Fund)
}

func TestCloseAuctionWithoutBidsWithdraws(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.addSeller(t, "bob@example.com")
	it := f.listItem(t, seller.ID, 50)

	_, err := f.settlement.CloseAuction(ctx, seller.ID, it.ID)
	require.ErrorIs(t, err, domain.ErrNoBids)

	got := f.getItem(t, seller.ID, it.ID)
	assert.Equal(t, domain.ItemStatusWithdrawn, got.Status)

	// Closing a withdrawn item is final.
	_, err = f.settlement.CloseAuction(ctx, seller.ID, it.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyClosed)
}

func TestCloseAuctionOnDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.addSeller(t, "bob@example.com")
	it, err := f.catalog.CreateItem(ctx, seller.ID, ItemInput{
		Title:            "never listed",
		ReservePrice:     10,
		AuctionLengthSec: 3600,
	})
	require.NoError(t, err)

	_, err = f.settlement.CloseAuction(ctx, seller.ID, it.ID)
	require.ErrorIs(t, err, domain.ErrItemNotListed)
}

// Closing twice settles exactly once: the second close finds every step done
// and reports ErrAlreadyClosed without moving money again.
func TestCloseAuctionIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 500)
	seller := f.addSeller(t, "bob@example.com")
	it := f.listItem(t, seller.ID, 50)

	_, err := f.bidding.PlaceBid(ctx, buyer.ID, seller.ID, it.ID, 120)
	require.NoError(t, err)

	first, err := f.settlement.CloseAuction(ctx, seller.ID, it.ID)
	require.NoError(t, err)

	second, err := f.settlement.CloseAuction(ctx, seller.ID, it.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyClosed)
	assert.Equal(t, first.ID, second.ID, "retry reports the existing purchase")

	b := f.getBuyer(t, buyer.ID)
	assert.EqualValues(t, 120, b.TotalSettled, "settled exactly once")
	assert.True(t, b.Balanced())

	s, err := f.store.Sellers().Get(ctx, seller.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 120, s.Fund, "seller credited exactly once")
}

// A close that died after marking the item sold resumes cleanly: the retry
// performs the remaining steps instead of failing or repeating the finished
// ones.
func TestCloseAuctionResumesPartialClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 500)
	seller := f.addSeller(t, "bob@example.com")
	it := f.listItem(t, seller.ID, 50)

	bid, err := f.bidding.PlaceBid(ctx, buyer.ID, seller.ID, it.ID, 120)
	require.NoError(t, err)

	// Simulate a crash after the first step: item marked sold, nothing else.
	got := f.getItem(t, seller.ID, it.ID)
	price := got.CurrentBid.Amount
	got.Status = domain.ItemStatusSold
	got.SoldPrice = &price
	require.NoError(t, f.store.Items().Update(ctx, got, got.Version))

	p, err := f.settlement.CloseAuction(ctx, seller.ID, it.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementStatusSettled, p.Status)

	won := f.getBid(t, buyer.ID, bid.ID)
	assert.Equal(t, domain.BidStatusWon, won.Status)
	assert.EqualValues(t, 0, won.FrozenAmount)

	b := f.getBuyer(t, buyer.ID)
	assert.EqualValues(t, 120, b.TotalSettled)
	assert.True(t, b.Balanced())
}

// failingOnceBids fails the first write that zeroes a bid's frozen amount,
// modeling a close that dies at the claim step.
type failingOnceBids struct {
	domain.BidStore
	failed bool
}

func (s *failingOnceBids) Update(ctx context.Context, b domain.Bid, expected int64) error {
	if !s.failed && b.FrozenAmount == 0 {
		s.failed = true
		return fmt.Errorf("bids: transient outage: %w", domain.ErrStoreUnavailable)
	}
	return s.BidStore.Update(ctx, b, expected)
}

// A close that dies before the claim of the winning bid's frozen amount is
// durable has not moved any money yet; the retry settles exactly once, and
// funds frozen for the buyer's other auctions are untouched.
func TestCloseAuctionRetrySettlesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 500)
	seller := f.addSeller(t, "bob@example.com")
	it1 := f.listItem(t, seller.ID, 50)
	it2 := f.listItem(t, seller.ID, 50)

	_, err := f.bidding.PlaceBid(ctx, buyer.ID, seller.ID, it1.ID, 150)
	require.NoError(t, err)
	_, err = f.bidding.PlaceBid(ctx, buyer.ID, seller.ID, it2.ID, 200)
	require.NoError(t, err)

	flaky := &failingOnceBids{BidStore: f.store.Bids()}
	sc := NewSettlementCoordinator(f.store.Items(), flaky, f.store.Purchases(), f.escrow, nil, testLogger(), 0)

	_, err = sc.CloseAuction(ctx, seller.ID, it1.ID)
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)

	b := f.getBuyer(t, buyer.ID)
	assert.EqualValues(t, 0, b.TotalSettled, "nothing settled before the claim is durable")

	p, err := sc.CloseAuction(ctx, seller.ID, it1.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementStatusSettled, p.Status)

	b = f.getBuyer(t, buyer.ID)
	assert.EqualValues(t, 150, b.TotalSettled, "settled exactly once")
	assert.EqualValues(t, 200, b.Frozen, "the other auction keeps its funds frozen")
	assert.EqualValues(t, 150, b.Available)
	assert.True(t, b.Balanced())

	s, err := f.store.Sellers().Get(ctx, seller.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 150, s.Fund, "seller credited exactly once")
}

// lateVisiblePurchases hides the purchase on the first read, modeling a
// concurrent close that creates the record between this close's read and its
// create.
type lateVisiblePurchases struct {
	domain.PurchaseStore
	missed bool
}

func (s *lateVisiblePurchases) Get(ctx context.Context, buyerID, id string) (domain.Purchase, error) {
	if !s.missed {
		s.missed = true
		return domain.Purchase{}, domain.ErrNotFound
	}
	return s.PurchaseStore.Get(ctx, buyerID, id)
}

// Losing the purchase-create race is not fatal: the close adopts the stored
// record, stale version and all, and finishes the remaining steps.
func TestCloseAuctionAdoptsConcurrentlyCreatedPurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 500)
	seller := f.addSeller(t, "bob@example.com")
	it := f.listItem(t, seller.ID, 50)

	bid, err := f.bidding.PlaceBid(ctx, buyer.ID, seller.ID, it.ID, 120)
	require.NoError(t, err)

	// The concurrent close already created the purchase and touched it once,
	// so its stored version is past a freshly built record's.
	pre := domain.Purchase{
		BuyerID:   buyer.ID,
		ID:        bid.ID,
		SellerID:  seller.ID,
		ItemID:    it.ID,
		Amount:    120,
		Status:    domain.SettlementStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.store.Purchases().Create(ctx, pre))
	pre.Version = 1
	require.NoError(t, f.store.Purchases().Update(ctx, pre, pre.Version))

	sc := NewSettlementCoordinator(f.store.Items(), f.store.Bids(),
		&lateVisiblePurchases{PurchaseStore: f.store.Purchases()}, f.escrow, nil, testLogger(), 0)

	p, err := sc.CloseAuction(ctx, seller.ID, it.ID)
	require.NoError(t, err)
	assert.Equal(t, bid.ID, p.ID)
	assert.Equal(t, domain.SettlementStatusSettled, p.Status)

	b := f.getBuyer(t, buyer.ID)
	assert.EqualValues(t, 120, b.TotalSettled, "settled exactly once")
	assert.True(t, b.Balanced())
}

func TestListPurchases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 500)
	seller := f.addSeller(t, "bob@example.com")
	it := f.listItem(t, seller.ID, 50)

	_, err := f.bidding.PlaceBid(ctx, buyer.ID, seller.ID, it.ID, 120)
	require.NoError(t, err)
	_, err = f.settlement.CloseAuction(ctx, seller.ID, it.ID)
	require.NoError(t, err)

	purchases, err := f.settlement.ListPurchases(ctx, buyer.ID, domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, it.ID, purchases[0].ItemID)
}
