package domain

import "errors"

var (
	// Store-level errors.
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrVersionConflict  = errors.New("version conflict")
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrContention is returned when an operation exhausts its optimistic
	// retry budget. The caller may safely resubmit the request.
	ErrContention = errors.New("write contention, retry the request")

	// Business-rule violations.
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBidTooLow         = errors.New("bid too low")
	ErrSelfBid           = errors.New("cannot bid on own item")
	ErrItemNotListed     = errors.New("item is not listed")
	ErrItemNotEditable   = errors.New("item can no longer be edited")
	ErrAlreadyListed     = errors.New("item already listed")
	ErrAlreadyClosed     = errors.New("auction already closed")
	ErrAlreadyResolved   = errors.New("unfreeze request already resolved")
	ErrNoBids            = errors.New("no bids placed")

	// Request-level errors.
	ErrValidation   = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrInvariantViolation signals a conservation-law breach on a buyer
	// record. It is never recovered automatically; operators must intervene.
	ErrInvariantViolation = errors.New("balance invariant violated")
)
