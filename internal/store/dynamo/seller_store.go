package dynamo

import (
	"context"

	"github.com/auctionhouse/auctiond/internal/domain"
)

// SellerStore persists seller accounts in the sellers table, keyed by id.
type SellerStore struct {
	c *Client
}

func NewSellerStore(c *Client) *SellerStore {
	return &SellerStore{c: c}
}

func (s *SellerStore) Get(ctx context.Context, id string) (domain.Seller, error) {
	var sl domain.Seller
	err := getItem(ctx, s.c.db, s.c.tables.Sellers, stringKey("id", id), &sl)
	return sl, err
}

func (s *SellerStore) Create(ctx context.Context, sl domain.Seller) error {
	sl.Version = 1
	av, err := marshal(s.c.tables.Sellers, sl)
	if err != nil {
		return err
	}
	return putNew(ctx, s.c.db, s.c.tables.Sellers, "id", av)
}

func (s *SellerStore) Update(ctx context.Context, sl domain.Seller, expectedVersion int64) error {
	sl.Version = expectedVersion + 1
	av, err := marshal(s.c.tables.Sellers, sl)
	if err != nil {
		return err
	}
	return putVersioned(ctx, s.c.db, s.c.tables.Sellers, av, expectedVersion)
}
