package domain

import "context"

// The ledger store exposes exactly three write shapes per collection:
//
//   - Create: put a new record, failing with ErrAlreadyExists if the key is
//     taken. The store assigns Version 1.
//   - Update: put the full record conditionally on the stored version still
//     equalling expectedVersion, bumping the version on success. A lost race
//     returns ErrVersionConflict; a vanished record returns ErrVersionConflict
//     as well (the caller's re-read will surface ErrNotFound).
//   - nothing else. There are no multi-key transactions; every multi-step
//     domain operation is a sequence of these single-key conditional writes.
//
// Reads are get-by-key and range queries over the partition key. Transient
// infrastructure failures wrap ErrStoreUnavailable.

// ListOpts provides pagination for range queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// BuyerStore persists buyer accounts and balances.
type BuyerStore interface {
	Get(ctx context.Context, id string) (Buyer, error)
	Create(ctx context.Context, b Buyer) error
	Update(ctx context.Context, b Buyer, expectedVersion int64) error
}

// SellerStore persists seller accounts.
type SellerStore interface {
	Get(ctx context.Context, id string) (Seller, error)
	Create(ctx context.Context, s Seller) error
	Update(ctx context.Context, s Seller, expectedVersion int64) error
}

// ItemStore persists auction items, partitioned by seller.
type ItemStore interface {
	Get(ctx context.Context, sellerID, id string) (Item, error)
	Create(ctx context.Context, it Item) error
	Update(ctx context.Context, it Item, expectedVersion int64) error
	ListBySeller(ctx context.Context, sellerID string, opts ListOpts) ([]Item, error)
	ListListed(ctx context.Context, opts ListOpts) ([]Item, error)
}

// BidStore persists bids, partitioned by buyer.
type BidStore interface {
	Get(ctx context.Context, buyerID, id string) (Bid, error)
	Create(ctx context.Context, b Bid) error
	Update(ctx context.Context, b Bid, expectedVersion int64) error
	ListByBuyer(ctx context.Context, buyerID string, opts ListOpts) ([]Bid, error)
}

// PurchaseStore persists purchases, partitioned by buyer.
type PurchaseStore interface {
	Get(ctx context.Context, buyerID, id string) (Purchase, error)
	Create(ctx context.Context, p Purchase) error
	Update(ctx context.Context, p Purchase, expectedVersion int64) error
	ListByBuyer(ctx context.Context, buyerID string, opts ListOpts) ([]Purchase, error)
}

// UnfreezeRequestStore persists unfreeze requests, partitioned by seller.
type UnfreezeRequestStore interface {
	Get(ctx context.Context, sellerID, id string) (UnfreezeRequest, error)
	Create(ctx context.Context, r UnfreezeRequest) error
	Update(ctx context.Context, r UnfreezeRequest, expectedVersion int64) error
	ListBySeller(ctx context.Context, sellerID string, opts ListOpts) ([]UnfreezeRequest, error)
}
