package domain

import "time"

// Buyer is a bidding account with an escrow-tracked balance. Amounts are in
// the smallest currency unit.
//
// The balance obeys a conservation law at all times:
//
//	Available + Frozen == TotalDeposited - TotalSettled
//
// Deposits raise Available, a winning bid freezes part of it, settlement
// converts frozen funds into a completed outflow. Nothing else may touch the
// four counters.
type Buyer struct {
	ID             string    `json:"id" dynamodbav:"id"`
	CreatedAt      time.Time `json:"createdAt" dynamodbav:"createdAt"`
	FirstName      string    `json:"firstName" dynamodbav:"firstName"`
	LastName       string    `json:"lastName" dynamodbav:"lastName"`
	Email          string    `json:"email" dynamodbav:"email"`
	PasswordHash   string    `json:"-" dynamodbav:"passwordHash"`
	Available      int64     `json:"availableBalance" dynamodbav:"availableBalance"`
	Frozen         int64     `json:"frozenBalance" dynamodbav:"frozenBalance"`
	TotalDeposited int64     `json:"totalDeposited" dynamodbav:"totalDeposited"`
	TotalSettled   int64     `json:"totalSettled" dynamodbav:"totalSettled"`
	Version        int64     `json:"-" dynamodbav:"version"`
}

// Balanced reports whether the conservation law holds for this record.
func (b Buyer) Balanced() bool {
	return b.Available+b.Frozen == b.TotalDeposited-b.TotalSettled
}
