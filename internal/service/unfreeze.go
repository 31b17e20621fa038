package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/auctionhouse/auctiond/internal/domain"
)

// UnfreezeWorkflow releases frozen buyer funds outside the normal bid flow:
// contested or stalled sales, and bids left Outbid with funds still frozen
// after a crash. Filing a request has no side effects. Resolution flips the
// request out of Requested with a conditional write before any balance
// changes, so funds are released at most once no matter how many times
// resolution is retried.
type UnfreezeWorkflow struct {
	requests domain.UnfreezeRequestStore
	sellers  domain.SellerStore
	bids     domain.BidStore
	escrow   *EscrowLedger
	events   domain.EventPublisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewUnfreezeWorkflow creates an UnfreezeWorkflow.
func NewUnfreezeWorkflow(
	requests domain.UnfreezeRequestStore,
	sellers domain.SellerStore,
	bids domain.BidStore,
	escrow *EscrowLedger,
	events domain.EventPublisher,
	logger *slog.Logger,
) *UnfreezeWorkflow {
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &UnfreezeWorkflow{
		requests: requests,
		sellers:  sellers,
		bids:     bids,
		escrow:   escrow,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// Request files an unfreeze request in Requested state. The seller's pending
// counter is informational bookkeeping; a failed bump is logged and does not
// fail the request.
func (w *UnfreezeWorkflow) Request(ctx context.Context, sellerID, buyerID, itemID string, amount int64) (domain.UnfreezeRequest, error) {
	if amount <= 0 {
		return domain.UnfreezeRequest{}, fmt.Errorf("unfreeze: amount must be positive: %w", domain.ErrValidation)
	}
	if buyerID == "" || itemID == "" {
		return domain.UnfreezeRequest{}, fmt.Errorf("unfreeze: buyer and item ids are required: %w", domain.ErrValidation)
	}

	req := domain.UnfreezeRequest{
		SellerID:  sellerID,
		ID:        uuid.NewString(),
		BuyerID:   buyerID,
		ItemID:    itemID,
		Amount:    amount,
		Status:    domain.UnfreezeStatusRequested,
		CreatedAt: w.now().UTC(),
	}
	if err := w.requests.Create(ctx, req); err != nil {
		return domain.UnfreezeRequest{}, fmt.Errorf("unfreeze: create request %s: %w", req.ID, err)
	}

	w.adjustPending(ctx, sellerID, amount)

	w.logger.InfoContext(ctx, "unfreeze: request filed",
		slog.String("request_id", req.ID),
		slog.String("seller_id", sellerID),
		slog.String("buyer_id", buyerID),
		slog.Int64("amount", amount),
	)
	return req, nil
}

// Resolve approves or denies a request. Approval releases the stated amount
// back to the buyer's available balance; denial changes no balances. Either
// way the request must still be in Requested state, and a lost race on the
// transition reports ErrAlreadyResolved.
func (w *UnfreezeWorkflow) Resolve(ctx context.Context, sellerID, requestID string, approve bool) (domain.UnfreezeRequest, error) {
	req, err := w.requests.Get(ctx, sellerID, requestID)
	if err != nil {
		return domain.UnfreezeRequest{}, fmt.Errorf("unfreeze: get request %s: %w", requestID, err)
	}
	if req.Status != domain.UnfreezeStatusRequested {
		return domain.UnfreezeRequest{}, fmt.Errorf("unfreeze: request %s: %w", requestID, domain.ErrAlreadyResolved)
	}

	resolvedAt := w.now().UTC()
	expected := req.Version
	if approve {
		req.Status = domain.UnfreezeStatusApproved
	} else {
		req.Status = domain.UnfreezeStatusDenied
	}
	req.ResolvedAt = &resolvedAt

	if err := w.requests.Update(ctx, req, expected); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return domain.UnfreezeRequest{}, fmt.Errorf("unfreeze: request %s: %w", requestID, domain.ErrAlreadyResolved)
		}
		return domain.UnfreezeRequest{}, fmt.Errorf("unfreeze: resolve request %s: %w", requestID, err)
	}
	req.Version = expected + 1

	w.adjustPending(ctx, sellerID, -req.Amount)

	if !approve {
		w.logger.InfoContext(ctx, "unfreeze: request denied",
			slog.String("request_id", requestID),
			slog.String("seller_id", sellerID),
		)
		return req, nil
	}

	if err := w.escrow.Unfreeze(ctx, req.BuyerID, req.Amount); err != nil {
		// The request is already Approved, so a retry will not release twice.
		// The funds stay frozen until an operator intervenes.
		w.logger.ErrorContext(ctx, "unfreeze: release after approval failed",
			slog.String("request_id", requestID),
			slog.String("buyer_id", req.BuyerID),
			slog.Int64("amount", req.Amount),
			slog.String("error", err.Error()),
		)
		return domain.UnfreezeRequest{}, fmt.Errorf("unfreeze: release funds for request %s: %w", requestID, err)
	}

	w.events.Publish(domain.Event{
		Type:     domain.EventFundsUnfrozen,
		SellerID: sellerID,
		ItemID:   req.ItemID,
		BuyerID:  req.BuyerID,
		Amount:   req.Amount,
		At:       w.now().UTC(),
	})
	w.logger.InfoContext(ctx, "unfreeze: request approved and funds released",
		slog.String("request_id", requestID),
		slog.String("buyer_id", req.BuyerID),
		slog.Int64("amount", req.Amount),
	)
	return req, nil
}

// ListRequests returns the seller's unfreeze requests.
func (w *UnfreezeWorkflow) ListRequests(ctx context.Context, sellerID string, opts domain.ListOpts) ([]domain.UnfreezeRequest, error) {
	reqs, err := w.requests.ListBySeller(ctx, sellerID, opts)
	if err != nil {
		return nil, fmt.Errorf("unfreeze: list requests for seller %s: %w", sellerID, err)
	}
	return reqs, nil
}

// SweepStaleBids releases funds still frozen on the buyer's Outbid and
// Cancelled bids. These are the leftovers of crashes between a bid's status
// write and the claim of its frozen amount. Each repair claims the amount
// with a conditional write before touching the balance; a concurrent sweep
// loses the claim on version conflict and releases nothing, so the funds
// move at most once. Returns the bids that were repaired.
func (w *UnfreezeWorkflow) SweepStaleBids(ctx context.Context, buyerID string) ([]domain.Bid, error) {
	bids, err := w.bids.ListByBuyer(ctx, buyerID, domain.ListOpts{})
	if err != nil {
		return nil, fmt.Errorf("unfreeze: list bids for buyer %s: %w", buyerID, err)
	}

	var repaired []domain.Bid
	for _, b := range bids {
		if !b.Stale() {
			continue
		}
		released := b.FrozenAmount
		b.FrozenAmount = 0
		if err := w.bids.Update(ctx, b, b.Version); err != nil {
			if !errors.Is(err, domain.ErrVersionConflict) {
				w.logger.ErrorContext(ctx, "unfreeze: sweep claim failed",
					slog.String("bid_id", b.ID),
					slog.String("error", err.Error()),
				)
			}
			continue
		}
		b.Version++
		if err := w.escrow.Unfreeze(ctx, b.BuyerID, released); err != nil {
			// The claim is recorded, so no later sweep will release this
			// amount; it stays frozen until an operator moves it.
			w.logger.ErrorContext(ctx, "unfreeze: sweep release failed",
				slog.String("bid_id", b.ID),
				slog.String("buyer_id", b.BuyerID),
				slog.Int64("amount", released),
				slog.String("error", err.Error()),
			)
			continue
		}

		w.events.Publish(domain.Event{
			Type:     domain.EventFundsUnfrozen,
			SellerID: b.SellerID,
			ItemID:   b.ItemID,
			BuyerID:  b.BuyerID,
			Amount:   released,
			At:       w.now().UTC(),
		})
		repaired = append(repaired, b)
	}

	if len(repaired) > 0 {
		w.logger.InfoContext(ctx, "unfreeze: stale bids repaired",
			slog.String("buyer_id", buyerID),
			slog.Int("count", len(repaired)),
		)
	}
	return repaired, nil
}

// adjustPending applies a best-effort delta to the seller's informational
// pending counter.
func (w *UnfreezeWorkflow) adjustPending(ctx context.Context, sellerID string, delta int64) {
	for attempt := 0; attempt < defaultMaxAttempts; attempt++ {
		s, err := w.sellers.Get(ctx, sellerID)
		if err != nil {
			w.logger.WarnContext(ctx, "unfreeze: pending counter read failed",
				slog.String("seller_id", sellerID),
				slog.String("error", err.Error()),
			)
			return
		}
		s.FrozenPending += delta
		if s.FrozenPending < 0 {
			s.FrozenPending = 0
		}
		err = w.sellers.Update(ctx, s, s.Version)
		if err == nil {
			return
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			w.logger.WarnContext(ctx, "unfreeze: pending counter update failed",
				slog.String("seller_id", sellerID),
				slog.String("error", err.Error()),
			)
			return
		}
	}
}
