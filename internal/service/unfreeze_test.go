package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auctionhouse/auctiond/internal/domain"
)

func TestUnfreezeRequestHasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 500)
	seller := f.addSeller(t, "bob@example.com")
	require.NoError(t, f.escrow.Freeze(ctx, buyer.ID, 200))

	req, err := f.unfreeze.Request(ctx, seller.ID, buyer.ID, "item-1", 200)
	require.NoError(t, err)
	assert.Equal(t, domain.UnfreezeStatusRequested, req.Status)

	b := f.getBuyer(t, buyer.ID)
	assert.EqualValues(t, 200, b.Frozen, "filing must not move funds")
}

func TestUnfreezeApproveReleasesFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 500)
	seller := f.addSeller(t, "bob@example.com")
	require.NoError(t, f.escrow.Freeze(ctx, buyer.ID, 200))

	req, err := f.unfreeze.Request(ctx, seller.ID, buyer.ID, "item-1", 200)
	require.NoError(t, err)

	resolved, err := f.unfreeze.Resolve(ctx, seller.ID, req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.UnfreezeStatusApproved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	b := f.getBuyer(t, buyer.ID)
	assert.EqualValues(t, 500, b.Available)
	assert.EqualValues(t, 0, b.Frozen)
	assert.True(t, b.Balanced())
}

func TestUnfreezeDenyKeepsFundsFrozen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 500)
	seller := f.addSeller(t, "bob@example.com")
	require.NoError(t, f.escrow.Freeze(ctx, buyer.ID, 200))

	req, err := f.unfreeze.Request(ctx, seller.ID, buyer.ID, "item-1", 200)
	require.NoError(t, err)

	resolved, err := f.unfreeze.Resolve(ctx, seller.ID, req.ID, false)
	require.NoError(t, err)
	assert.Equal(t, domain.UnfreezeStatusDenied, resolved.Status)

	b := f.getBuyer(t, buyer.ID)
	assert.EqualValues(t, 200, b.Frozen)

	// A denied request cannot be approved afterwards.
	_, err = f.unfreeze.Resolve(ctx, seller.ID, req.ID, true)
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
	assert.EqualValues(t, 200, f.getBuyer(t, buyer.ID).Frozen)
}

// Resolution is at most once: whatever the second caller asks for, the funds
// move at most a single time.
func TestUnfreezeResolveTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 500)
	seller := f.addSeller(t, "bob@example.com")
	require.NoError(t, f.escrow.Freeze(ctx, buyer.ID, 200))

	req, err := f.unfreeze.Request(ctx, seller.ID, buyer.ID, "item-1", 200)
	require.NoError(t, err)

	_, err = f.unfreeze.Resolve(ctx, seller.ID, req.ID, true)
	require.NoError(t, err)

	_, err = f.unfreeze.Resolve(ctx, seller.ID, req.ID, true)
	require.ErrorIs(t, err, domain.ErrAlreadyResolved)

	b := f.getBuyer(t, buyer.ID)
	assert.EqualValues(t, 500, b.Available, "released exactly once")
	assert.True(t, b.Balanced())
}

func TestUnfreezeResolveUnknownRequest(t *testing.T) {
	f := newFixture(t)
	seller := f.addSeller(t, "bob@example.com")

	_, err := f.unfreeze.Resolve(context.Background(), seller.ID, "no-such-request", true)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUnfreezeRequestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.addSeller(t, "bob@example.com")

	_, err := f.unfreeze.Request(ctx, seller.ID, "buyer-1", "item-1", 0)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.unfreeze.Request(ctx, seller.ID, "", "item-1", 100)
	require.ErrorIs(t, err, domain.ErrValidation)
}

// A crash between marking a bid outbid and releasing its escrow leaves the
// frozen amount on the record; the sweep finds and repairs it.
func TestSweepStaleBids(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 500)
	seller := f.addSeller(t, "bob@example.com")
	it := f.listItem(t, seller.ID, 0)

	bid, err := f.bidding.PlaceBid(ctx, buyer.ID, seller.ID, it.ID, 150)
	require.NoError(t, err)

	// Simulate the crash: outbid status written, funds never released.
	b := f.getBid(t, buyer.ID, bid.ID)
	b.Status = domain.BidStatusOutbid
	require.NoError(t, f.store.Bids().Update(ctx, b, b.Version))

	repaired, err := f.unfreeze.SweepStaleBids(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, repaired, 1)
	assert.Equal(t, bid.ID, repaired[0].ID)
	assert.EqualValues(t, 0, repaired[0].FrozenAmount)

	buyerNow := f.getBuyer(t, buyer.ID)
	assert.EqualValues(t, 500, buyerNow.Available)
	assert.EqualValues(t, 0, buyerNow.Frozen)
	assert.True(t, buyerNow.Balanced())

	// A second sweep finds nothing.
	repaired, err = f.unfreeze.SweepStaleBids(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, repaired)
}

func TestSweepIgnoresHealthyBids(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 500)
	seller := f.addSeller(t, "bob@example.com")
	it := f.listItem(t, seller.ID, 0)

	_, err := f.bidding.PlaceBid(ctx, buyer.ID, seller.ID, it.ID, 150)
	require.NoError(t, err)

	repaired, err := f.unfreeze.SweepStaleBids(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, repaired, "an active leading bid holds its funds legitimately")

	b := f.getBuyer(t, buyer.ID)
	assert.EqualValues(t, 150, b.Frozen)
}

// snapshotBids replays a fixed listing while delegating writes, modeling two
// sweeps that both read the stale bid before either one releases.
type snapshotBids struct {
	domain.BidStore
	listing []domain.Bid
}

func (s snapshotBids) ListByBuyer(ctx context.Context, buyerID string, opts domain.ListOpts) ([]domain.Bid, error) {
	return s.listing, nil
}

// Two sweeps racing over the same stale bid release its funds exactly once:
// the loser's conditional claim fails and it never touches the balance, so
// funds frozen for the buyer's other bids stay frozen.
func TestConcurrentSweepsReleaseOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 1000)
	seller := f.addSeller(t, "bob@example.com")
	it1 := f.listItem(t, seller.ID, 0)
	it2 := f.listItem(t, seller.ID, 0)

	staleBid, err := f.bidding.PlaceBid(ctx, buyer.ID, seller.ID, it1.ID, 50)
	require.NoError(t, err)
	_, err = f.bidding.PlaceBid(ctx, buyer.ID, seller.ID, it2.ID, 150)
	require.NoError(t, err)

	// Simulate the crash: outbid status written, funds never released.
	b := f.getBid(t, buyer.ID, staleBid.ID)
	b.Status = domain.BidStatusOutbid
	require.NoError(t, f.store.Bids().Update(ctx, b, b.Version))

	listing, err := f.store.Bids().ListByBuyer(ctx, buyer.ID, domain.ListOpts{})
	require.NoError(t, err)
	w := NewUnfreezeWorkflow(f.store.UnfreezeRequests(), f.store.Sellers(),
		snapshotBids{f.store.Bids(), listing}, f.escrow, nil, testLogger())

	repaired, err := w.SweepStaleBids(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, repaired, 1)

	// The second sweep sees the same pre-repair listing but loses the claim.
	repaired, err = w.SweepStaleBids(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, repaired)

	buyerNow := f.getBuyer(t, buyer.ID)
	assert.EqualValues(t, 850, buyerNow.Available, "stale 50 released exactly once")
	assert.EqualValues(t, 150, buyerNow.Frozen, "the active bid keeps its funds frozen")
	assert.True(t, buyerNow.Balanced())
}

func TestListRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buyer := f.addBuyer(t, "alice@example.com", 500)
	seller := f.addSeller(t, "bob@example.com")
	require.NoError(t, f.escrow.Freeze(ctx, buyer.ID, 300))

	_, err := f.unfreeze.Request(ctx, seller.ID, buyer.ID, "item-1", 100)
	require.NoError(t, err)
	_, err = f.unfreeze.Request(ctx, seller.ID, buyer.ID, "item-2", 200)
	require.NoError(t, err)

	reqs, err := f.unfreeze.ListRequests(ctx, seller.ID, domain.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, reqs, 2)
}
