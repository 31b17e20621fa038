package dynamo

import (
	"context"

	"github.com/auctionhouse/auctiond/internal/domain"
)

// BidStore persists bids in the bids table, partitioned by buyerId with id as
// the sort key.
type BidStore struct {
	c *Client
}

func NewBidStore(c *Client) *BidStore {
	return &BidStore{c: c}
}

func (s *BidStore) Get(ctx context.Context, buyerID, id string) (domain.Bid, error) {
	var b domain.Bid
	err := getItem(ctx, s.c.db, s.c.tables.Bids, compositeKey("buyerId", buyerID, "id", id), &b)
	return b, err
}

func (s *BidStore) Create(ctx context.Context, b domain.Bid) error {
	b.Version = 1
	av, err := marshal(s.c.tables.Bids, b)
	if err != nil {
		return err
	}
	return putNew(ctx, s.c.db, s.c.tables.Bids, "buyerId", av)
}

func (s *BidStore) Update(ctx context.Context, b domain.Bid, expectedVersion int64) error {
	b.Version = expectedVersion + 1
	av, err := marshal(s.c.tables.Bids, b)
	if err != nil {
		return err
	}
	return putVersioned(ctx, s.c.db, s.c.tables.Bids, av, expectedVersion)
}

func (s *BidStore) ListByBuyer(ctx context.Context, buyerID string, opts domain.ListOpts) ([]domain.Bid, error) {
	var bids []domain.Bid
	if err := queryPartition(ctx, s.c.db, s.c.tables.Bids, "buyerId", buyerID, &bids); err != nil {
		return nil, err
	}
	return clamp(bids, opts), nil
}
