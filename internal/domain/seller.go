package domain

import "time"

// Seller is a listing account. Fund is purely informational: it records
// settled inflows, but actual payout rails live outside this system.
// FrozenPending mirrors the total amount of open unfreeze requests the seller
// has filed, again informationally.
type Seller struct {
	ID            string    `json:"id" dynamodbav:"id"`
	CreatedAt     time.Time `json:"createdAt" dynamodbav:"createdAt"`
	FirstName     string    `json:"firstName" dynamodbav:"firstName"`
	LastName      string    `json:"lastName" dynamodbav:"lastName"`
	Email         string    `json:"email" dynamodbav:"email"`
	PasswordHash  string    `json:"-" dynamodbav:"passwordHash"`
	Fund          int64     `json:"fund" dynamodbav:"fund"`
	FrozenPending int64     `json:"frozenPending" dynamodbav:"frozenPending"`
	Version       int64     `json:"-" dynamodbav:"version"`
}
