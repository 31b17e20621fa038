package domain

import "time"

// UnfreezeStatus tracks the resolution state of an unfreeze request.
type UnfreezeStatus string

const (
	UnfreezeStatusRequested UnfreezeStatus = "requested"
	UnfreezeStatusApproved  UnfreezeStatus = "approved"
	UnfreezeStatusDenied    UnfreezeStatus = "denied"
)

// UnfreezeRequest is a seller's assertion that a buyer's frozen amount should
// be released, keyed by (SellerID, ID). Filing a request has no side effects;
// resolution is guarded by a conditional transition out of Requested so funds
// are released at most once no matter how often resolution is retried.
type UnfreezeRequest struct {
	SellerID   string         `json:"sellerId" dynamodbav:"sellerId"`
	ID         string         `json:"id" dynamodbav:"id"`
	BuyerID    string         `json:"buyerId" dynamodbav:"buyerId"`
	ItemID     string         `json:"itemId" dynamodbav:"itemId"`
	Amount     int64          `json:"amount" dynamodbav:"amount"`
	Status     UnfreezeStatus `json:"status" dynamodbav:"status"`
	CreatedAt  time.Time      `json:"createdAt" dynamodbav:"createdAt"`
	ResolvedAt *time.Time     `json:"resolvedAt,omitempty" dynamodbav:"resolvedAt,omitempty"`
	Version    int64          `json:"-" dynamodbav:"version"`
}
