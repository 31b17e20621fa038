package domain

import "time"

// BidStatus tracks the bid lifecycle.
type BidStatus string

const (
	BidStatusActive    BidStatus = "active"
	BidStatusOutbid    BidStatus = "outbid"
	BidStatusWon       BidStatus = "won"
	BidStatusCancelled BidStatus = "cancelled"
)

// Bid is a buyer's offer on an item, keyed by (BuyerID, ID).
//
// FrozenAmount tracks how much of the buyer's balance is still frozen on
// behalf of this bid. It equals Amount while the bid leads the auction and
// drops to zero once the funds are released (outbid) or settled (won). An
// Outbid bid with a nonzero FrozenAmount is therefore stale: the process
// died between marking it outbid and unfreezing, and the unfreeze workflow
// can repair it.
type Bid struct {
	BuyerID      string    `json:"buyerId" dynamodbav:"buyerId"`
	ID           string    `json:"id" dynamodbav:"id"`
	SellerID     string    `json:"sellerId" dynamodbav:"sellerId"`
	ItemID       string    `json:"itemId" dynamodbav:"itemId"`
	Amount       int64     `json:"amount" dynamodbav:"amount"`
	FrozenAmount int64     `json:"frozenAmount" dynamodbav:"frozenAmount"`
	Status       BidStatus `json:"status" dynamodbav:"status"`
	CreatedAt    time.Time `json:"createdAt" dynamodbav:"createdAt"`
	Version      int64     `json:"-" dynamodbav:"version"`
}

// Ref returns the reference embedded into items.
func (b Bid) Ref() BidRef {
	return BidRef{BuyerID: b.BuyerID, BidID: b.ID, Amount: b.Amount}
}

// Stale reports whether this bid holds funds it should no longer hold.
func (b Bid) Stale() bool {
	return (b.Status == BidStatusOutbid || b.Status == BidStatusCancelled) && b.FrozenAmount > 0
}
