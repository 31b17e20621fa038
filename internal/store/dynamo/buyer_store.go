package dynamo

import (
	"context"

	"github.com/auctionhouse/auctiond/internal/domain"
)

// BuyerStore persists buyer accounts in the buyers table, keyed by id.
type BuyerStore struct {
	c *Client
}

func NewBuyerStore(c *Client) *BuyerStore {
	return &BuyerStore{c: c}
}

func (s *BuyerStore) Get(ctx context.Context, id string) (domain.Buyer, error) {
	var b domain.Buyer
	err := getItem(ctx, s.c.db, s.c.tables.Buyers, stringKey("id", id), &b)
	return b, err
}

func (s *BuyerStore) Create(ctx context.Context, b domain.Buyer) error {
	b.Version = 1
	av, err := marshal(s.c.tables.Buyers, b)
	if err != nil {
		return err
	}
	return putNew(ctx, s.c.db, s.c.tables.Buyers, "id", av)
}

func (s *BuyerStore) Update(ctx context.Context, b domain.Buyer, expectedVersion int64) error {
	b.Version = expectedVersion + 1
	av, err := marshal(s.c.tables.Buyers, b)
	if err != nil {
		return err
	}
	return putVersioned(ctx, s.c.db, s.c.tables.Buyers, av, expectedVersion)
}
