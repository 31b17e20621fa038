package domain

import "time"

// SettlementStatus tracks whether a purchase's escrow transfer has completed.
type SettlementStatus string

const (
	SettlementStatusPending  SettlementStatus = "pending"
	SettlementStatusSettled  SettlementStatus = "settled"
	SettlementStatusReversed SettlementStatus = "reversed"
)

// Purchase records a won auction, keyed by (BuyerID, ID). The ID equals the
// winning bid's ID, which makes purchase creation idempotent: a retried close
// finds the existing row instead of minting a duplicate.
type Purchase struct {
	BuyerID   string           `json:"buyerId" dynamodbav:"buyerId"`
	ID        string           `json:"id" dynamodbav:"id"`
	SellerID  string           `json:"sellerId" dynamodbav:"sellerId"`
	ItemID    string           `json:"itemId" dynamodbav:"itemId"`
	Amount    int64            `json:"amount" dynamodbav:"amount"`
	Status    SettlementStatus `json:"settlementStatus" dynamodbav:"settlementStatus"`
	CreatedAt time.Time        `json:"createdAt" dynamodbav:"createdAt"`
	SettledAt *time.Time       `json:"settledAt,omitempty" dynamodbav:"settledAt,omitempty"`
	Version   int64            `json:"-" dynamodbav:"version"`
}
