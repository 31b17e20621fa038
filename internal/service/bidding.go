package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/auctionhouse/auctiond/internal/auth"
	"github.com/auctionhouse/auctiond/internal/domain"
)

// BiddingEngine accepts bids and keeps item bid state consistent with the
// escrow ledger. The item's currentBid field is the serialization point for
// concurrent bidders: every bid increase is a conditional write against the
// item record, so the store accepts exactly one of any set of racing bids.
type BiddingEngine struct {
	items       domain.ItemStore
	bids        domain.BidStore
	buyers      domain.BuyerStore
	escrow      *EscrowLedger
	events      domain.EventPublisher
	logger      *slog.Logger
	maxAttempts int
	now         func() time.Time
}

// NewBiddingEngine creates a BiddingEngine. maxAttempts bounds the
// conditional-write retry loop on the item record and falls back to the
// package default when zero.
func NewBiddingEngine(
	items domain.ItemStore,
	bids domain.BidStore,
	buyers domain.BuyerStore,
	escrow *EscrowLedger,
	events domain.EventPublisher,
	logger *slog.Logger,
	maxAttempts int,
) *BiddingEngine {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &BiddingEngine{
		items:       items,
		bids:        bids,
		buyers:      buyers,
		escrow:      escrow,
		events:      events,
		logger:      logger,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// PlaceBid freezes the bid amount, records the bid, and promotes it to the
// item's current highest bid. The steps are ordered single-key conditional
// writes with a compensating unfreeze when the item write loses the race:
//
//  1. freeze amount from the bidder's available balance
//  2. create the bid record (Active, frozen amount tracked on the bid)
//  3. conditionally swap the item's currentBid, retrying on lost races with
//     freshly read state; a refresh showing an equal or higher bid means the
//     bid lost and steps 1-2 are compensated
//  4. demote the previous highest bid and release its funds
//
// A crash between step 4's sub-writes leaves an Outbid bid with a nonzero
// frozen amount, which the unfreeze workflow detects and repairs.
func (e *BiddingEngine) PlaceBid(ctx context.Context, buyerID, sellerID, itemID string, amount int64) (domain.Bid, error) {
	if amount <= 0 {
		return domain.Bid{}, fmt.Errorf("bidding: amount must be positive: %w", domain.ErrValidation)
	}

	it, err := e.items.Get(ctx, sellerID, itemID)
	if err != nil {
		return domain.Bid{}, fmt.Errorf("bidding: get item %s/%s: %w", sellerID, itemID, err)
	}
	if !it.OpenForBids(e.now()) {
		return domain.Bid{}, fmt.Errorf("bidding: item %s/%s: %w", sellerID, itemID, domain.ErrItemNotListed)
	}
	if amount <= it.MinNextBid() {
		return domain.Bid{}, fmt.Errorf("bidding: item %s/%s: %w", sellerID, itemID, domain.ErrBidTooLow)
	}

	buyer, err := e.buyers.Get(ctx, buyerID)
	if err != nil {
		return domain.Bid{}, fmt.Errorf("bidding: get buyer %s: %w", buyerID, err)
	}
	// User ids are derived from (email, role), so the seller identity of the
	// bidding person is computable without a join.
	if auth.UserID(buyer.Email, domain.RoleSeller) == sellerID {
		return domain.Bid{}, fmt.Errorf("bidding: item %s/%s: %w", sellerID, itemID, domain.ErrSelfBid)
	}

	if err := e.escrow.Freeze(ctx, buyerID, amount); err != nil {
		return domain.Bid{}, fmt.Errorf("bidding: freeze %d for buyer %s: %w", amount, buyerID, err)
	}

	bid := domain.Bid{
		BuyerID:      buyerID,
		ID:           uuid.NewString(),
		SellerID:     sellerID,
		ItemID:       itemID,
		Amount:       amount,
		FrozenAmount: amount,
		Status:       domain.BidStatusActive,
		CreatedAt:    e.now().UTC(),
	}
	if err := e.bids.Create(ctx, bid); err != nil {
		e.compensate(ctx, bid, false)
		return domain.Bid{}, fmt.Errorf("bidding: create bid %s: %w", bid.ID, err)
	}

	prev, err := e.promote(ctx, &it, bid)
	if err != nil {
		e.compensate(ctx, bid, true)
		return domain.Bid{}, err
	}

	e.events.Publish(domain.Event{
		Type:     domain.EventBidAccepted,
		SellerID: sellerID,
		ItemID:   itemID,
		BuyerID:  buyerID,
		Amount:   amount,
		At:       e.now().UTC(),
	})

	if prev != nil {
		e.demote(ctx, *prev)
	}

	e.logger.InfoContext(ctx, "bidding: bid accepted",
		slog.String("bid_id", bid.ID),
		slog.String("item_id", itemID),
		slog.String("buyer_id", buyerID),
		slog.Int64("amount", amount),
	)
	return bid, nil
}

// promote conditionally installs bid as the item's current highest bid,
// retrying lost races against freshly read item state. It returns the
// reference of the bid that was displaced, if any.
func (e *BiddingEngine) promote(ctx context.Context, it *domain.Item, bid domain.Bid) (*domain.BidRef, error) {
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		if !it.OpenForBids(e.now()) {
			return nil, fmt.Errorf("bidding: item %s/%s closed during bid: %w", it.SellerID, it.ID, domain.ErrItemNotListed)
		}
		if bid.Amount <= it.MinNextBid() {
			return nil, fmt.Errorf("bidding: item %s/%s: %w", it.SellerID, it.ID, domain.ErrBidTooLow)
		}

		prev := it.CurrentBid
		ref := bid.Ref()
		updated := *it
		updated.CurrentBid = &ref

		err := e.items.Update(ctx, updated, it.Version)
		if err == nil {
			return prev, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, fmt.Errorf("bidding: update item %s/%s: %w", it.SellerID, it.ID, err)
		}

		fresh, err := e.items.Get(ctx, it.SellerID, it.ID)
		if err != nil {
			return nil, fmt.Errorf("bidding: refresh item %s/%s: %w", it.SellerID, it.ID, err)
		}
		*it = fresh
	}
	return nil, fmt.Errorf("bidding: item %s/%s: %w", it.SellerID, it.ID, domain.ErrContention)
}

// compensate unwinds a failed bid. The bid record, when it exists, is marked
// Cancelled before its funds are released, so a crash mid-compensation leaves
// a stale Cancelled bid the unfreeze workflow can repair rather than a silent
// fund leak. Failures here are logged, never returned: the caller's error is
// the one the bidder needs to see.
func (e *BiddingEngine) compensate(ctx context.Context, bid domain.Bid, cancelBid bool) {
	if cancelBid {
		b, err := e.bids.Get(ctx, bid.BuyerID, bid.ID)
		if err == nil {
			b.Status = domain.BidStatusCancelled
			err = e.bids.Update(ctx, b, b.Version)
		}
		if err != nil {
			e.logger.ErrorContext(ctx, "bidding: cancel of losing bid failed",
				slog.String("bid_id", bid.ID),
				slog.String("error", err.Error()),
			)
			return
		}
	}

	if err := e.escrow.Unfreeze(ctx, bid.BuyerID, bid.Amount); err != nil {
		e.logger.ErrorContext(ctx, "bidding: compensating unfreeze failed",
			slog.String("bid_id", bid.ID),
			slog.String("buyer_id", bid.BuyerID),
			slog.String("error", err.Error()),
		)
		return
	}

	if cancelBid {
		b, err := e.bids.Get(ctx, bid.BuyerID, bid.ID)
		if err == nil {
			b.FrozenAmount = 0
			err = e.bids.Update(ctx, b, b.Version)
		}
		if err != nil {
			e.logger.ErrorContext(ctx, "bidding: clear frozen amount on cancelled bid failed",
				slog.String("bid_id", bid.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// demote marks the displaced bid Outbid, claims its tracked frozen amount
// with a conditional write, and only then releases the escrow. A crash
// between the status write and the claim leaves a stale Outbid bid that the
// unfreeze workflow repairs; a version conflict on the claim means a sweep
// already owns the release, so the funds move at most once.
func (e *BiddingEngine) demote(ctx context.Context, prev domain.BidRef) {
	b, err := e.bids.Get(ctx, prev.BuyerID, prev.BidID)
	if err != nil {
		e.logger.ErrorContext(ctx, "bidding: get outbid bid failed",
			slog.String("bid_id", prev.BidID),
			slog.String("error", err.Error()),
		)
		return
	}
	if b.Status != domain.BidStatusActive {
		return
	}

	b.Status = domain.BidStatusOutbid
	if err := e.bids.Update(ctx, b, b.Version); err != nil {
		e.logger.ErrorContext(ctx, "bidding: mark outbid failed",
			slog.String("bid_id", b.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	b.Version++

	if b.FrozenAmount > 0 {
		released := b.FrozenAmount
		b.FrozenAmount = 0
		if err := e.bids.Update(ctx, b, b.Version); err != nil {
			if !errors.Is(err, domain.ErrVersionConflict) {
				e.logger.ErrorContext(ctx, "bidding: claim of outbid frozen amount failed",
					slog.String("bid_id", b.ID),
					slog.String("error", err.Error()),
				)
			}
			return
		}
		if err := e.escrow.Unfreeze(ctx, b.BuyerID, released); err != nil {
			// Claimed but not released; the amount stays frozen until an
			// operator moves it.
			e.logger.ErrorContext(ctx, "bidding: unfreeze of outbid funds failed",
				slog.String("bid_id", b.ID),
				slog.String("buyer_id", b.BuyerID),
				slog.Int64("amount", released),
				slog.String("error", err.Error()),
			)
			return
		}

		e.events.Publish(domain.Event{
			Type:     domain.EventBidOutbid,
			SellerID: b.SellerID,
			ItemID:   b.ItemID,
			BuyerID:  b.BuyerID,
			Amount:   released,
			At:       e.now().UTC(),
		})
	}
}

// ListBids returns the buyer's bids across all items.
func (e *BiddingEngine) ListBids(ctx context.Context, buyerID string, opts domain.ListOpts) ([]domain.Bid, error) {
	bids, err := e.bids.ListByBuyer(ctx, buyerID, opts)
	if err != nil {
		return nil, fmt.Errorf("bidding: list bids for buyer %s: %w", buyerID, err)
	}
	return bids, nil
}
