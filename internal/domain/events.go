package domain

import "time"

// EventType names the auction happenings pushed to live-feed subscribers.
type EventType string

const (
	EventItemListed    EventType = "item_listed"
	EventBidAccepted   EventType = "bid_accepted"
	EventBidOutbid     EventType = "bid_outbid"
	EventAuctionClosed EventType = "auction_closed"
	EventFundsUnfrozen EventType = "funds_unfrozen"
)

// Event is a single feed message. Amount is zero when not applicable.
type Event struct {
	Type     EventType `json:"type"`
	SellerID string    `json:"sellerId,omitempty"`
	ItemID   string    `json:"itemId,omitempty"`
	BuyerID  string    `json:"buyerId,omitempty"`
	Amount   int64     `json:"amount,omitempty"`
	At       time.Time `json:"at"`
}

// EventPublisher fans events out to feed subscribers. Publish must never
// block the caller.
type EventPublisher interface {
	Publish(ev Event)
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
