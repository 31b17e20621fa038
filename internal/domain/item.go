package domain

import "time"

// ItemStatus tracks the auction lifecycle of an item.
type ItemStatus string

const (
	// ItemStatusDraft is the creation state: the seller may still edit the
	// item and no bids are accepted.
	ItemStatusDraft ItemStatus = "draft"

	// ItemStatusListed means the auction is open for bids.
	ItemStatusListed ItemStatus = "listed"

	// ItemStatusSold means the auction closed with a winning bid.
	ItemStatusSold ItemStatus = "sold"

	// ItemStatusWithdrawn means the auction closed without bids, or the
	// seller pulled the listing.
	ItemStatusWithdrawn ItemStatus = "withdrawn"
)

// BidRef points at a bid record together with its amount, so the item can
// carry its current highest bid without a second read.
type BidRef struct {
	BuyerID string `json:"buyerId" dynamodbav:"buyerId"`
	BidID   string `json:"bidId" dynamodbav:"bidId"`
	Amount  int64  `json:"amount" dynamodbav:"amount"`
}

// Item is an auction listing, keyed by (SellerID, ID). The CurrentBid field
// is the serialization point for concurrent bidders: every bid increase is a
// conditional write against it, so the store linearizes racing bids.
type Item struct {
	SellerID         string     `json:"sellerId" dynamodbav:"sellerId"`
	ID               string     `json:"id" dynamodbav:"id"`
	CreatedAt        time.Time  `json:"createdAt" dynamodbav:"createdAt"`
	Title            string     `json:"title" dynamodbav:"title"`
	Description      string     `json:"description" dynamodbav:"description"`
	ReservePrice     int64      `json:"reservePrice" dynamodbav:"reservePrice"`
	AuctionLengthSec int64      `json:"auctionLengthSec" dynamodbav:"auctionLengthSec"`
	Status           ItemStatus `json:"status" dynamodbav:"status"`
	Images           []string   `json:"images" dynamodbav:"images"`
	ListedAt         *time.Time `json:"listedAt,omitempty" dynamodbav:"listedAt,omitempty"`
	ClosesAt         *time.Time `json:"closesAt,omitempty" dynamodbav:"closesAt,omitempty"`
	CurrentBid       *BidRef    `json:"currentBid,omitempty" dynamodbav:"currentBid,omitempty"`
	SoldPrice        *int64     `json:"soldPrice,omitempty" dynamodbav:"soldPrice,omitempty"`
	SoldAt           *time.Time `json:"soldAt,omitempty" dynamodbav:"soldAt,omitempty"`
	Version          int64      `json:"-" dynamodbav:"version"`
}

// OpenForBids reports whether the item accepts bids at the given instant.
func (it Item) OpenForBids(now time.Time) bool {
	if it.Status != ItemStatusListed {
		return false
	}
	if it.ClosesAt != nil && !now.Before(*it.ClosesAt) {
		return false
	}
	return true
}

// MinNextBid returns the smallest amount that would still be rejected; a new
// bid must strictly exceed it. With no current bid that floor is the reserve
// price.
func (it Item) MinNextBid() int64 {
	if it.CurrentBid != nil {
		return it.CurrentBid.Amount
	}
	return it.ReservePrice
}
