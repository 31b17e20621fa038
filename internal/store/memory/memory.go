// Package memory implements the ledger store interfaces on in-process maps.
// It exists for tests and the "memory" backend of local development, and it
// reproduces the conditional-write semantics of the DynamoDB adapter exactly:
// Create fails on an existing key, Update fails unless the stored version
// matches the expected one.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/auctionhouse/auctiond/internal/domain"
)

// Store holds every collection behind one mutex. A single lock is plenty at
// test scale and keeps the conditional-write check honest: check-and-put is
// atomic per call, never across calls, mirroring the real store.
type Store struct {
	mu        sync.Mutex
	buyers    map[string]domain.Buyer
	sellers   map[string]domain.Seller
	items     map[string]domain.Item
	bids      map[string]domain.Bid
	purchases map[string]domain.Purchase
	unfreezes map[string]domain.UnfreezeRequest
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		buyers:    make(map[string]domain.Buyer),
		sellers:   make(map[string]domain.Seller),
		items:     make(map[string]domain.Item),
		bids:      make(map[string]domain.Bid),
		purchases: make(map[string]domain.Purchase),
		unfreezes: make(map[string]domain.UnfreezeRequest),
	}
}

func compositeKey(pk, sk string) string {
	return pk + "/" + sk
}

// ---------------------------------------------------------------------------
// Buyers
// ---------------------------------------------------------------------------

type buyerView Store

// Buyers returns the store viewed as a BuyerStore.
func (s *Store) Buyers() domain.BuyerStore { return (*buyerView)(s) }

func (v *buyerView) Get(ctx context.Context, id string) (domain.Buyer, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buyers[id]
	if !ok {
		return domain.Buyer{}, fmt.Errorf("memory: buyer %s: %w", id, domain.ErrNotFound)
	}
	return b, nil
}

func (v *buyerView) Create(ctx context.Context, b domain.Buyer) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buyers[b.ID]; ok {
		return fmt.Errorf("memory: buyer %s: %w", b.ID, domain.ErrAlreadyExists)
	}
	b.Version = 1
	s.buyers[b.ID] = b
	return nil
}

func (v *buyerView) Update(ctx context.Context, b domain.Buyer, expectedVersion int64) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.buyers[b.ID]
	if !ok || cur.Version != expectedVersion {
		return fmt.Errorf("memory: buyer %s: %w", b.ID, domain.ErrVersionConflict)
	}
	b.Version = expectedVersion + 1
	s.buyers[b.ID] = b
	return nil
}

// ---------------------------------------------------------------------------
// Sellers
// ---------------------------------------------------------------------------

type sellerView Store

// Sellers returns the store viewed as a SellerStore.
func (s *Store) Sellers() domain.SellerStore { return (*sellerView)(s) }

func (v *sellerView) Get(ctx context.Context, id string) (domain.Seller, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.sellers[id]
	if !ok {
		return domain.Seller{}, fmt.Errorf("memory: seller %s: %w", id, domain.ErrNotFound)
	}
	return sl, nil
}

func (v *sellerView) Create(ctx context.Context, sl domain.Seller) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sellers[sl.ID]; ok {
		return fmt.Errorf("memory: seller %s: %w", sl.ID, domain.ErrAlreadyExists)
	}
	sl.Version = 1
	s.sellers[sl.ID] = sl
	return nil
}

func (v *sellerView) Update(ctx context.Context, sl domain.Seller, expectedVersion int64) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.sellers[sl.ID]
	if !ok || cur.Version != expectedVersion {
		return fmt.Errorf("memory: seller %s: %w", sl.ID, domain.ErrVersionConflict)
	}
	sl.Version = expectedVersion + 1
	s.sellers[sl.ID] = sl
	return nil
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

type itemView Store

// Items returns the store viewed as an ItemStore.
func (s *Store) Items() domain.ItemStore { return (*itemView)(s) }

func cloneItem(it domain.Item) domain.Item {
	if it.Images != nil {
		imgs := make([]string, len(it.Images))
		copy(imgs, it.Images)
		it.Images = imgs
	}
	if it.CurrentBid != nil {
		ref := *it.CurrentBid
		it.CurrentBid = &ref
	}
	if it.ListedAt != nil {
		t := *it.ListedAt
		it.ListedAt = &t
	}
	if it.ClosesAt != nil {
		t := *it.ClosesAt
		it.ClosesAt = &t
	}
	if it.SoldPrice != nil {
		p := *it.SoldPrice
		it.SoldPrice = &p
	}
	if it.SoldAt != nil {
		t := *it.SoldAt
		it.SoldAt = &t
	}
	return it
}

func (v *itemView) Get(ctx context.Context, sellerID, id string) (domain.Item, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[compositeKey(sellerID, id)]
	if !ok {
		return domain.Item{}, fmt.Errorf("memory: item %s/%s: %w", sellerID, id, domain.ErrNotFound)
	}
	return cloneItem(it), nil
}

func (v *itemView) Create(ctx context.Context, it domain.Item) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	key := compositeKey(it.SellerID, it.ID)
	if _, ok := s.items[key]; ok {
		return fmt.Errorf("memory: item %s/%s: %w", it.SellerID, it.ID, domain.ErrAlreadyExists)
	}
	it.Version = 1
	s.items[key] = cloneItem(it)
	return nil
}

func (v *itemView) Update(ctx context.Context, it domain.Item, expectedVersion int64) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	key := compositeKey(it.SellerID, it.ID)
	cur, ok := s.items[key]
	if !ok || cur.Version != expectedVersion {
		return fmt.Errorf("memory: item %s/%s: %w", it.SellerID, it.ID, domain.ErrVersionConflict)
	}
	it.Version = expectedVersion + 1
	s.items[key] = cloneItem(it)
	return nil
}

func (v *itemView) ListBySeller(ctx context.Context, sellerID string, opts domain.ListOpts) ([]domain.Item, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Item
	for _, it := range s.items {
		if it.SellerID == sellerID {
			out = append(out, cloneItem(it))
		}
	}
	sortItems(out)
	return paginate(out, opts), nil
}

func (v *itemView) ListListed(ctx context.Context, opts domain.ListOpts) ([]domain.Item, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Item
	for _, it := range s.items {
		if it.Status == domain.ItemStatusListed {
			out = append(out, cloneItem(it))
		}
	}
	sortItems(out)
	return paginate(out, opts), nil
}

func sortItems(items []domain.Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].SellerID != items[j].SellerID {
			return items[i].SellerID < items[j].SellerID
		}
		return items[i].ID < items[j].ID
	})
}

// ---------------------------------------------------------------------------
// Bids
// ---------------------------------------------------------------------------

type bidView Store

// Bids returns the store viewed as a BidStore.
func (s *Store) Bids() domain.BidStore { return (*bidView)(s) }

func (v *bidView) Get(ctx context.Context, buyerID, id string) (domain.Bid, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bids[compositeKey(buyerID, id)]
	if !ok {
		return domain.Bid{}, fmt.Errorf("memory: bid %s/%s: %w", buyerID, id, domain.ErrNotFound)
	}
	return b, nil
}

func (v *bidView) Create(ctx context.Context, b domain.Bid) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	key := compositeKey(b.BuyerID, b.ID)
	if _, ok := s.bids[key]; ok {
		return fmt.Errorf("memory: bid %s/%s: %w", b.BuyerID, b.ID, domain.ErrAlreadyExists)
	}
	b.Version = 1
	s.bids[key] = b
	return nil
}

func (v *bidView) Update(ctx context.Context, b domain.Bid, expectedVersion int64) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	key := compositeKey(b.BuyerID, b.ID)
	cur, ok := s.bids[key]
	if !ok || cur.Version != expectedVersion {
		return fmt.Errorf("memory: bid %s/%s: %w", b.BuyerID, b.ID, domain.ErrVersionConflict)
	}
	b.Version = expectedVersion + 1
	s.bids[key] = b
	return nil
}

func (v *bidView) ListByBuyer(ctx context.Context, buyerID string, opts domain.ListOpts) ([]domain.Bid, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Bid
	for _, b := range s.bids {
		if b.BuyerID == buyerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, opts), nil
}

// ---------------------------------------------------------------------------
// Purchases
// ---------------------------------------------------------------------------

type purchaseView Store

// Purchases returns the store viewed as a PurchaseStore.
func (s *Store) Purchases() domain.PurchaseStore { return (*purchaseView)(s) }

func (v *purchaseView) Get(ctx context.Context, buyerID, id string) (domain.Purchase, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[compositeKey(buyerID, id)]
	if !ok {
		return domain.Purchase{}, fmt.Errorf("memory: purchase %s/%s: %w", buyerID, id, domain.ErrNotFound)
	}
	return p, nil
}

func (v *purchaseView) Create(ctx context.Context, p domain.Purchase) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	key := compositeKey(p.BuyerID, p.ID)
	if _, ok := s.purchases[key]; ok {
		return fmt.Errorf("memory: purchase %s/%s: %w", p.BuyerID, p.ID, domain.ErrAlreadyExists)
	}
	p.Version = 1
	s.purchases[key] = p
	return nil
}

func (v *purchaseView) Update(ctx context.Context, p domain.Purchase, expectedVersion int64) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	key := compositeKey(p.BuyerID, p.ID)
	cur, ok := s.purchases[key]
	if !ok || cur.Version != expectedVersion {
		return fmt.Errorf("memory: purchase %s/%s: %w", p.BuyerID, p.ID, domain.ErrVersionConflict)
	}
	p.Version = expectedVersion + 1
	s.purchases[key] = p
	return nil
}

func (v *purchaseView) ListByBuyer(ctx context.Context, buyerID string, opts domain.ListOpts) ([]domain.Purchase, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Purchase
	for _, p := range s.purchases {
		if p.BuyerID == buyerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, opts), nil
}

// ---------------------------------------------------------------------------
// Unfreeze requests
// ---------------------------------------------------------------------------

type unfreezeView Store

// UnfreezeRequests returns the store viewed as an UnfreezeRequestStore.
func (s *Store) UnfreezeRequests() domain.UnfreezeRequestStore { return (*unfreezeView)(s) }

func (v *unfreezeView) Get(ctx context.Context, sellerID, id string) (domain.UnfreezeRequest, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.unfreezes[compositeKey(sellerID, id)]
	if !ok {
		return domain.UnfreezeRequest{}, fmt.Errorf("memory: unfreeze request %s/%s: %w", sellerID, id, domain.ErrNotFound)
	}
	return r, nil
}

func (v *unfreezeView) Create(ctx context.Context, r domain.UnfreezeRequest) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	key := compositeKey(r.SellerID, r.ID)
	if _, ok := s.unfreezes[key]; ok {
		return fmt.Errorf("memory: unfreeze request %s/%s: %w", r.SellerID, r.ID, domain.ErrAlreadyExists)
	}
	r.Version = 1
	s.unfreezes[key] = r
	return nil
}

func (v *unfreezeView) Update(ctx context.Context, r domain.UnfreezeRequest, expectedVersion int64) error {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	key := compositeKey(r.SellerID, r.ID)
	cur, ok := s.unfreezes[key]
	if !ok || cur.Version != expectedVersion {
		return fmt.Errorf("memory: unfreeze request %s/%s: %w", r.SellerID, r.ID, domain.ErrVersionConflict)
	}
	r.Version = expectedVersion + 1
	s.unfreezes[key] = r
	return nil
}

func (v *unfreezeView) ListBySeller(ctx context.Context, sellerID string, opts domain.ListOpts) ([]domain.UnfreezeRequest, error) {
	s := (*Store)(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.UnfreezeRequest
	for _, r := range s.unfreezes {
		if r.SellerID == sellerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, opts), nil
}

// paginate applies offset/limit to an already-sorted slice.
func paginate[T any](in []T, opts domain.ListOpts) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(in) {
			return nil
		}
		in = in[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(in) {
		in = in[:opts.Limit]
	}
	return in
}
