package dynamo

import (
	"context"

	"github.com/auctionhouse/auctiond/internal/domain"
)

// UnfreezeRequestStore persists unfreeze requests, partitioned by sellerId
// with id as the sort key.
type UnfreezeRequestStore struct {
	c *Client
}

func NewUnfreezeRequestStore(c *Client) *UnfreezeRequestStore {
	return &UnfreezeRequestStore{c: c}
}

func (s *UnfreezeRequestStore) Get(ctx context.Context, sellerID, id string) (domain.UnfreezeRequest, error) {
	var r domain.UnfreezeRequest
	err := getItem(ctx, s.c.db, s.c.tables.UnfreezeRequests, compositeKey("sellerId", sellerID, "id", id), &r)
	return r, err
}

func (s *UnfreezeRequestStore) Create(ctx context.Context, r domain.UnfreezeRequest) error {
	r.Version = 1
	av, err := marshal(s.c.tables.UnfreezeRequests, r)
	if err != nil {
		return err
	}
	return putNew(ctx, s.c.db, s.c.tables.UnfreezeRequests, "sellerId", av)
}

func (s *UnfreezeRequestStore) Update(ctx context.Context, r domain.UnfreezeRequest, expectedVersion int64) error {
	r.Version = expectedVersion + 1
	av, err := marshal(s.c.tables.UnfreezeRequests, r)
	if err != nil {
		return err
	}
	return putVersioned(ctx, s.c.db, s.c.tables.UnfreezeRequests, av, expectedVersion)
}

func (s *UnfreezeRequestStore) ListBySeller(ctx context.Context, sellerID string, opts domain.ListOpts) ([]domain.UnfreezeRequest, error) {
	var reqs []domain.UnfreezeRequest
	if err := queryPartition(ctx, s.c.db, s.c.tables.UnfreezeRequests, "sellerId", sellerID, &reqs); err != nil {
		return nil, err
	}
	return clamp(reqs, opts), nil
}
