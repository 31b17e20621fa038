package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auctionhouse/auctiond/internal/domain"
)

func TestCreateSetsVersionAndRejectsDuplicates(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Buyers().Create(ctx, domain.Buyer{ID: "b1"}))

	b, err := s.Buyers().Get(ctx, "b1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, b.Version)

	err = s.Buyers().Create(ctx, domain.Buyer{ID: "b1"})
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestUpdateRequiresMatchingVersion(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Buyers().Create(ctx, domain.Buyer{ID: "b1"}))

	b, err := s.Buyers().Get(ctx, "b1")
	require.NoError(t, err)

	b.Available = 100
	require.NoError(t, s.Buyers().Update(ctx, b, b.Version))

	// The same expected version a second time is a lost race.
	err = s.Buyers().Update(ctx, b, b.Version)
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	got, err := s.Buyers().Get(ctx, "b1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Version)
	assert.EqualValues(t, 100, got.Available)
}

func TestUpdateMissingRecord(t *testing.T) {
	s := New()
	err := s.Buyers().Update(context.Background(), domain.Buyer{ID: "ghost"}, 1)
	require.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestGetMissingRecord(t *testing.T) {
	s := New()
	_, err := s.Items().Get(context.Background(), "s1", "ghost")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemsAreCompositeKeyed(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Items().Create(ctx, domain.Item{SellerID: "s1", ID: "i1", Title: "one"}))
	require.NoError(t, s.Items().Create(ctx, domain.Item{SellerID: "s2", ID: "i1", Title: "two"}))

	one, err := s.Items().Get(ctx, "s1", "i1")
	require.NoError(t, err)
	assert.Equal(t, "one", one.Title)

	two, err := s.Items().Get(ctx, "s2", "i1")
	require.NoError(t, err)
	assert.Equal(t, "two", two.Title)
}

// Reads must not alias store state: mutating a returned item's pointers and
// slices leaves the stored record untouched.
func TestItemReadsAreIsolated(t *testing.T) {
	s := New()
	ctx := context.Background()
	listedAt := time.Now().UTC()

	require.NoError(t, s.Items().Create(ctx, domain.Item{
		SellerID: "s1",
		ID:       "i1",
		Status:   domain.ItemStatusListed,
		Images:   []string{"a.png"},
		ListedAt: &listedAt,
	}))

	it, err := s.Items().Get(ctx, "s1", "i1")
	require.NoError(t, err)
	it.Images[0] = "tampered.png"
	*it.ListedAt = it.ListedAt.Add(time.Hour)

	fresh, err := s.Items().Get(ctx, "s1", "i1")
	require.NoError(t, err)
	assert.Equal(t, "a.png", fresh.Images[0])
	assert.Equal(t, listedAt, *fresh.ListedAt)
}

func TestListListedFiltersByStatus(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Items().Create(ctx, domain.Item{SellerID: "s1", ID: "i1", Status: domain.ItemStatusListed}))
	require.NoError(t, s.Items().Create(ctx, domain.Item{SellerID: "s1", ID: "i2", Status: domain.ItemStatusDraft}))
	require.NoError(t, s.Items().Create(ctx, domain.Item{SellerID: "s2", ID: "i3", Status: domain.ItemStatusSold}))

	items, err := s.Items().ListListed(ctx, domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "i1", items[0].ID)
}

func TestListPagination(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Bids().Create(ctx, domain.Bid{BuyerID: "b1", ID: id}))
	}

	page, err := s.Bids().ListByBuyer(ctx, "b1", domain.ListOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "a", page[0].ID)

	page, err = s.Bids().ListByBuyer(ctx, "b1", domain.ListOpts{Offset: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].ID)

	page, err = s.Bids().ListByBuyer(ctx, "b1", domain.ListOpts{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, page)
}
