package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/auctionhouse/auctiond/internal/domain"
)

// SettlementCoordinator closes auctions. A close is a sequence of single-key
// conditional writes, each preconditioned on the evidence that the previous
// step left behind, so a retried close resumes exactly where the last attempt
// stopped instead of repeating side effects:
//
//	item Sold -> purchase exists (Pending) -> bid Won -> frozen amount
//	claimed (bid frozen amount zeroed) -> escrow settled -> purchase Settled
//
// The purchase id equals the winning bid id, which makes purchase creation
// idempotent without a lookup index.
type SettlementCoordinator struct {
	items       domain.ItemStore
	bids        domain.BidStore
	purchases   domain.PurchaseStore
	escrow      *EscrowLedger
	events      domain.EventPublisher
	logger      *slog.Logger
	maxAttempts int
	now         func() time.Time
}

// NewSettlementCoordinator creates a SettlementCoordinator.
func NewSettlementCoordinator(
	items domain.ItemStore,
	bids domain.BidStore,
	purchases domain.PurchaseStore,
	escrow *EscrowLedger,
	events domain.EventPublisher,
	logger *slog.Logger,
	maxAttempts int,
) *SettlementCoordinator {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &SettlementCoordinator{
		items:       items,
		bids:        bids,
		purchases:   purchases,
		escrow:      escrow,
		events:      events,
		logger:      logger,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// CloseAuction finalizes the item's auction. With no bids the item is
// withdrawn and ErrNoBids is returned. A close of an already fully settled
// item returns ErrAlreadyClosed; a close of a partially settled item resumes
// the remaining steps.
func (c *SettlementCoordinator) CloseAuction(ctx context.Context, sellerID, itemID string) (domain.Purchase, error) {
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		it, err := c.items.Get(ctx, sellerID, itemID)
		if err != nil {
			return domain.Purchase{}, fmt.Errorf("settle: get item %s/%s: %w", sellerID, itemID, err)
		}

		switch it.Status {
		case domain.ItemStatusDraft:
			return domain.Purchase{}, fmt.Errorf("settle: item %s/%s: %w", sellerID, itemID, domain.ErrItemNotListed)

		case domain.ItemStatusWithdrawn:
			return domain.Purchase{}, fmt.Errorf("settle: item %s/%s: %w", sellerID, itemID, domain.ErrAlreadyClosed)

		case domain.ItemStatusSold:
			// A previous close marked the item sold; finish whatever steps
			// it did not complete.
			return c.resume(ctx, it)

		case domain.ItemStatusListed:
			if it.CurrentBid == nil {
				err := c.withdraw(ctx, it)
				if errors.Is(err, domain.ErrVersionConflict) {
					continue
				}
				if err != nil {
					return domain.Purchase{}, err
				}
				return domain.Purchase{}, fmt.Errorf("settle: item %s/%s: %w", sellerID, itemID, domain.ErrNoBids)
			}

			err := c.markSold(ctx, &it)
			if errors.Is(err, domain.ErrVersionConflict) {
				continue
			}
			if err != nil {
				return domain.Purchase{}, err
			}
			return c.resume(ctx, it)

		default:
			return domain.Purchase{}, fmt.Errorf("settle: item %s/%s has status %q: %w", sellerID, itemID, it.Status, domain.ErrValidation)
		}
	}
	return domain.Purchase{}, fmt.Errorf("settle: item %s/%s: %w", sellerID, itemID, domain.ErrContention)
}

func (c *SettlementCoordinator) withdraw(ctx context.Context, it domain.Item) error {
	expected := it.Version
	it.Status = domain.ItemStatusWithdrawn
	if err := c.items.Update(ctx, it, expected); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
		return fmt.Errorf("settle: withdraw item %s/%s: %w", it.SellerID, it.ID, err)
	}
	c.logger.InfoContext(ctx, "settle: auction withdrawn without bids",
		slog.String("item_id", it.ID),
		slog.String("seller_id", it.SellerID),
	)
	return nil
}

func (c *SettlementCoordinator) markSold(ctx context.Context, it *domain.Item) error {
	expected := it.Version
	soldAt := c.now().UTC()
	price := it.CurrentBid.Amount

	it.Status = domain.ItemStatusSold
	it.SoldPrice = &price
	it.SoldAt = &soldAt

	if err := c.items.Update(ctx, *it, expected); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
		return fmt.Errorf("settle: mark item %s/%s sold: %w", it.SellerID, it.ID, err)
	}
	it.Version = expected + 1
	return nil
}

// resume walks the post-Sold steps, skipping everything the evidence says
// already happened. It returns ErrAlreadyClosed when there was nothing left
// to do.
func (c *SettlementCoordinator) resume(ctx context.Context, it domain.Item) (domain.Purchase, error) {
	if it.CurrentBid == nil {
		// Sold without a recorded winner should be impossible.
		return domain.Purchase{}, fmt.Errorf("settle: item %s/%s sold without winning bid: %w", it.SellerID, it.ID, domain.ErrInvariantViolation)
	}
	win := *it.CurrentBid
	didWork := false

	p, err := c.purchases.Get(ctx, win.BuyerID, win.BidID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		p = domain.Purchase{
			BuyerID:   win.BuyerID,
			ID:        win.BidID,
			SellerID:  it.SellerID,
			ItemID:    it.ID,
			Amount:    win.Amount,
			Status:    domain.SettlementStatusPending,
			CreatedAt: c.now().UTC(),
		}
		if createErr := c.purchases.Create(ctx, p); createErr != nil {
			if !errors.Is(createErr, domain.ErrAlreadyExists) {
				return domain.Purchase{}, fmt.Errorf("settle: create purchase %s: %w", p.ID, createErr)
			}
			// A concurrent close created it first; work from the stored record.
			p, err = c.purchases.Get(ctx, win.BuyerID, win.BidID)
			if err != nil {
				return domain.Purchase{}, fmt.Errorf("settle: get purchase %s: %w", win.BidID, err)
			}
		} else {
			p.Version = 1
			didWork = true
		}
	case err != nil:
		return domain.Purchase{}, fmt.Errorf("settle: get purchase %s: %w", win.BidID, err)
	}

	bid, err := c.bids.Get(ctx, win.BuyerID, win.BidID)
	if err != nil {
		return domain.Purchase{}, fmt.Errorf("settle: get winning bid %s: %w", win.BidID, err)
	}

	if bid.Status != domain.BidStatusWon {
		bid.Status = domain.BidStatusWon
		if err := c.bids.Update(ctx, bid, bid.Version); err != nil {
			return domain.Purchase{}, fmt.Errorf("settle: mark bid %s won: %w", bid.ID, err)
		}
		bid.Version++
		didWork = true
	}

	if bid.FrozenAmount > 0 {
		// Claim the amount with a conditional write before moving money, so a
		// retried or concurrent close can never settle the same funds twice.
		amount := bid.FrozenAmount
		bid.FrozenAmount = 0
		if err := c.bids.Update(ctx, bid, bid.Version); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				return domain.Purchase{}, fmt.Errorf("settle: claim frozen amount on bid %s: %w", bid.ID, domain.ErrContention)
			}
			return domain.Purchase{}, fmt.Errorf("settle: claim frozen amount on bid %s: %w", bid.ID, err)
		}
		bid.Version++
		if err := c.escrow.Settle(ctx, bid.BuyerID, it.SellerID, amount); err != nil {
			// Claimed but not transferred; the amount stays frozen until an
			// operator moves it.
			return domain.Purchase{}, fmt.Errorf("settle: escrow transfer for bid %s: %w", bid.ID, err)
		}
		didWork = true
	}

	if p.Status != domain.SettlementStatusSettled {
		settledAt := c.now().UTC()
		p.Status = domain.SettlementStatusSettled
		p.SettledAt = &settledAt
		if err := c.purchases.Update(ctx, p, p.Version); err != nil {
			return domain.Purchase{}, fmt.Errorf("settle: mark purchase %s settled: %w", p.ID, err)
		}
		p.Version++
		didWork = true
	}

	if !didWork {
		return p, fmt.Errorf("settle: item %s/%s: %w", it.SellerID, it.ID, domain.ErrAlreadyClosed)
	}

	c.events.Publish(domain.Event{
		Type:     domain.EventAuctionClosed,
		SellerID: it.SellerID,
		ItemID:   it.ID,
		BuyerID:  win.BuyerID,
		Amount:   win.Amount,
		At:       c.now().UTC(),
	})
	c.logger.InfoContext(ctx, "settle: auction settled",
		slog.String("item_id", it.ID),
		slog.String("seller_id", it.SellerID),
		slog.String("buyer_id", win.BuyerID),
		slog.Int64("amount", win.Amount),
	)
	return p, nil
}

// ListPurchases returns the buyer's purchases.
func (c *SettlementCoordinator) ListPurchases(ctx context.Context, buyerID string, opts domain.ListOpts) ([]domain.Purchase, error) {
	purchases, err := c.purchases.ListByBuyer(ctx, buyerID, opts)
	if err != nil {
		return nil, fmt.Errorf("settle: list purchases for buyer %s: %w", buyerID, err)
	}
	return purchases, nil
}
