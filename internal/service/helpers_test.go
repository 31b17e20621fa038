package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/auctionhouse/auctiond/internal/auth"
	"github.com/auctionhouse/auctiond/internal/domain"
	"github.com/auctionhouse/auctiond/internal/store/memory"
)

const testJWTSecret = "unit-test-secret-0123456789abcdef"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture wires the full service layer over an in-memory store.
type fixture struct {
	store      *memory.Store
	tokens     *auth.TokenManager
	escrow     *EscrowLedger
	accounts   *AccountService
	catalog    *Catalog
	bidding    *BiddingEngine
	settlement *SettlementCoordinator
	unfreeze   *UnfreezeWorkflow
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := testLogger()
	store := memory.New()

	tokens, err := auth.NewTokenManager(testJWTSecret, time.Hour)
	require.NoError(t, err)

	escrow := NewEscrowLedger(store.Buyers(), store.Sellers(), logger, 0, 0)
	return &fixture{
		store:      store,
		tokens:     tokens,
		escrow:     escrow,
		accounts:   NewAccountService(store.Buyers(), store.Sellers(), tokens, escrow, logger, 4),
		catalog:    NewCatalog(store.Items(), nil, nil, logger),
		bidding:    NewBiddingEngine(store.Items(), store.Bids(), store.Buyers(), escrow, nil, logger, 0),
		settlement: NewSettlementCoordinator(store.Items(), store.Bids(), store.Purchases(), escrow, nil, logger, 0),
		unfreeze:   NewUnfreezeWorkflow(store.UnfreezeRequests(), store.Sellers(), store.Bids(), escrow, nil, logger),
	}
}

// addBuyer creates a buyer account directly in the store and optionally funds
// it through the ledger.
func (f *fixture) addBuyer(t *testing.T, email string, funds int64) domain.Buyer {
	t.Helper()
	ctx := context.Background()
	id := auth.UserID(email, domain.RoleBuyer)
	err := f.store.Buyers().Create(ctx, domain.Buyer{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		FirstName: "Test",
		LastName:  "Buyer",
		Email:     email,
	})
	require.NoError(t, err)
	if funds > 0 {
		require.NoError(t, f.escrow.Deposit(ctx, id, funds))
	}
	b, err := f.store.Buyers().Get(ctx, id)
	require.NoError(t, err)
	return b
}

func (f *fixture) addSeller(t *testing.T, email string) domain.Seller {
	t.Helper()
	ctx := context.Background()
	id := auth.UserID(email, domain.RoleSeller)
	err := f.store.Sellers().Create(ctx, domain.Seller{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		FirstName: "Test",
		LastName:  "Seller",
		Email:     email,
	})
	require.NoError(t, err)
	s, err := f.store.Sellers().Get(ctx, id)
	require.NoError(t, err)
	return s
}

// listItem creates a Draft item for the seller and publishes it.
func (f *fixture) listItem(t *testing.T, sellerID string, reserve int64) domain.Item {
	t.Helper()
	ctx := context.Background()
	it, err := f.catalog.CreateItem(ctx, sellerID, ItemInput{
		Title:            "vintage radio",
		Description:      "works, mostly",
		ReservePrice:     reserve,
		AuctionLengthSec: 3600,
	})
	require.NoError(t, err)
	it, err = f.catalog.Publish(ctx, sellerID, it.ID)
	require.NoError(t, err)
	return it
}

// getBuyer reloads the buyer record.
func (f *fixture) getBuyer(t *testing.T, id string) domain.Buyer {
	t.Helper()
	b, err := f.store.Buyers().Get(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fixture) getBid(t *testing.T, buyerID, bidID string) domain.Bid {
	t.Helper()
	b, err := f.store.Bids().Get(context.Background(), buyerID, bidID)
	require.NoError(t, err)
	return b
}

func (f *fixture) getItem(t *testing.T, sellerID, itemID string) domain.Item {
	t.Helper()
	it, err := f.store.Items().Get(context.Background(), sellerID, itemID)
	require.NoError(t, err)
	return it
}
