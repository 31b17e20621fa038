package dynamo

import (
	"context"

	"github.com/auctionhouse/auctiond/internal/domain"
)

// PurchaseStore persists purchases in the purchases table, partitioned by
// buyerId with id as the sort key.
type PurchaseStore struct {
	c *Client
}

func NewPurchaseStore(c *Client) *PurchaseStore {
	return &PurchaseStore{c: c}
}

func (s *PurchaseStore) Get(ctx context.Context, buyerID, id string) (domain.Purchase, error) {
	var p domain.Purchase
	err := getItem(ctx, s.c.db, s.c.tables.Purchases, compositeKey("buyerId", buyerID, "id", id), &p)
	return p, err
}

func (s *PurchaseStore) Create(ctx context.Context, p domain.Purchase) error {
	p.Version = 1
	av, err := marshal(s.c.tables.Purchases, p)
	if err != nil {
		return err
	}
	return putNew(ctx, s.c.db, s.c.tables.Purchases, "buyerId", av)
}

func (s *PurchaseStore) Update(ctx context.Context, p domain.Purchase, expectedVersion int64) error {
	p.Version = expectedVersion + 1
	av, err := marshal(s.c.tables.Purchases, p)
	if err != nil {
		return err
	}
	return putVersioned(ctx, s.c.db, s.c.tables.Purchases, av, expectedVersion)
}

func (s *PurchaseStore) ListByBuyer(ctx context.Context, buyerID string, opts domain.ListOpts) ([]domain.Purchase, error) {
	var purchases []domain.Purchase
	if err := queryPartition(ctx, s.c.db, s.c.tables.Purchases, "buyerId", buyerID, &purchases); err != nil {
		return nil, err
	}
	return clamp(purchases, opts), nil
}
