// Package service implements the auction-house domain operations over the
// ledger store interfaces. All cross-request coordination goes through
// single-key conditional writes; multi-record operations are ordered
// sequences of such writes with explicit, idempotent recovery steps.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/auctionhouse/auctiond/internal/domain"
)

const (
	// defaultMaxAttempts bounds the optimistic retry loop for one balance
	// mutation. Contention on a single buyer record is low, so retries are
	// immediate with no backoff.
	defaultMaxAttempts = 5

	// defaultOpTimeout caps one ledger operation so the handler can return a
	// clean contention error before the platform deadline kills the request.
	defaultOpTimeout = 10 * time.Second
)

// EscrowLedger owns buyer balances. Freeze, Unfreeze and Settle each mutate
// exactly one buyer record through a conditional update, so the store
// linearizes concurrent mutations and the conservation law
//
//	available + frozen == totalDeposited - totalSettled
//
// holds between any two operations.
type EscrowLedger struct {
	buyers      domain.BuyerStore
	sellers     domain.SellerStore
	logger      *slog.Logger
	maxAttempts int
	opTimeout   time.Duration
}

// NewEscrowLedger creates an EscrowLedger. maxAttempts and opTimeout fall
// back to defaults when zero.
func NewEscrowLedger(buyers domain.BuyerStore, sellers domain.SellerStore, logger *slog.Logger, maxAttempts int, opTimeout time.Duration) *EscrowLedger {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	return &EscrowLedger{
		buyers:      buyers,
		sellers:     sellers,
		logger:      logger,
		maxAttempts: maxAttempts,
		opTimeout:   opTimeout,
	}
}

// Deposit credits amount to the buyer's available balance and deposit total.
func (l *EscrowLedger) Deposit(ctx context.Context, buyerID string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("escrow: deposit amount must be positive: %w", domain.ErrValidation)
	}
	return l.mutateBuyer(ctx, "deposit", buyerID, func(b *domain.Buyer) error {
		b.Available += amount
		b.TotalDeposited += amount
		return nil
	})
}

// Freeze moves amount from the buyer's available balance into escrow.
func (l *EscrowLedger) Freeze(ctx context.Context, buyerID string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("escrow: freeze amount must be positive: %w", domain.ErrValidation)
	}
	return l.mutateBuyer(ctx, "freeze", buyerID, func(b *domain.Buyer) error {
		if b.Available < amount {
			return domain.ErrInsufficientFunds
		}
		b.Available -= amount
		b.Frozen += amount
		return nil
	})
}

// Unfreeze returns amount from escrow to the buyer's available balance. An
// amount exceeding the current frozen balance is an invariant violation, not
// a recoverable condition.
func (l *EscrowLedger) Unfreeze(ctx context.Context, buyerID string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("escrow: unfreeze amount must be positive: %w", domain.ErrValidation)
	}
	return l.mutateBuyer(ctx, "unfreeze", buyerID, func(b *domain.Buyer) error {
		if amount > b.Frozen {
			return fmt.Errorf("escrow: unfreeze %d exceeds frozen %d: %w", amount, b.Frozen, domain.ErrInvariantViolation)
		}
		b.Frozen -= amount
		b.Available += amount
		return nil
	})
}

// Settle converts amount of the buyer's frozen balance into a completed
// outflow and credits the seller's informational fund. The two writes are
// independent; the buyer-side write is the settlement of record and the
// seller credit is retried on its own.
func (l *EscrowLedger) Settle(ctx context.Context, buyerID, sellerID string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("escrow: settle amount must be positive: %w", domain.ErrValidation)
	}
	err := l.mutateBuyer(ctx, "settle", buyerID, func(b *domain.Buyer) error {
		if amount > b.Frozen {
			return fmt.Errorf("escrow: settle %d exceeds frozen %d: %w", amount, b.Frozen, domain.ErrInvariantViolation)
		}
		b.Frozen -= amount
		b.TotalSettled += amount
		return nil
	})
	if err != nil {
		return err
	}

	if err := l.creditSeller(ctx, sellerID, amount); err != nil {
		// The buyer side already settled; the seller fund is informational
		// and the failure is surfaced rather than compensated.
		return fmt.Errorf("escrow: credit seller %s: %w", sellerID, err)
	}
	return nil
}

// mutateBuyer runs one read-modify-conditional-write cycle against the buyer
// record, retrying lost races up to the attempt budget. mutate sees the
// freshly read record and may reject the operation with a domain error.
func (l *EscrowLedger) mutateBuyer(ctx context.Context, op, buyerID string, mutate func(*domain.Buyer) error) error {
	ctx, cancel := context.WithTimeout(ctx, l.opTimeout)
	defer cancel()

	for attempt := 0; attempt < l.maxAttempts; attempt++ {
		b, err := l.buyers.Get(ctx, buyerID)
		if err != nil {
			return fmt.Errorf("escrow: %s: get buyer %s: %w", op, buyerID, err)
		}
		if !b.Balanced() {
			l.logger.ErrorContext(ctx, "escrow: conservation law violated on read",
				slog.String("op", op),
				slog.String("buyer_id", buyerID),
				slog.Int64("available", b.Available),
				slog.Int64("frozen", b.Frozen),
				slog.Int64("deposited", b.TotalDeposited),
				slog.Int64("settled", b.TotalSettled),
			)
			return fmt.Errorf("escrow: %s: buyer %s: %w", op, buyerID, domain.ErrInvariantViolation)
		}

		expected := b.Version
		if err := mutate(&b); err != nil {
			return fmt.Errorf("escrow: %s: buyer %s: %w", op, buyerID, err)
		}
		if b.Available < 0 || b.Frozen < 0 || !b.Balanced() {
			return fmt.Errorf("escrow: %s: buyer %s: mutation breaks balance: %w", op, buyerID, domain.ErrInvariantViolation)
		}

		err = l.buyers.Update(ctx, b, expected)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return fmt.Errorf("escrow: %s: update buyer %s: %w", op, buyerID, err)
		}
		if ctx.Err() != nil {
			break
		}
	}

	l.logger.WarnContext(ctx, "escrow: retry budget exhausted",
		slog.String("op", op),
		slog.String("buyer_id", buyerID),
		slog.Int("attempts", l.maxAttempts),
	)
	return fmt.Errorf("escrow: %s: buyer %s: %w", op, buyerID, domain.ErrContention)
}

func (l *EscrowLedger) creditSeller(ctx context.Context, sellerID string, amount int64) error {
	ctx, cancel := context.WithTimeout(ctx, l.opTimeout)
	defer cancel()

	for attempt := 0; attempt < l.maxAttempts; attempt++ {
		s, err := l.sellers.Get(ctx, sellerID)
		if err != nil {
			return fmt.Errorf("get seller: %w", err)
		}
		s.Fund += amount

		err = l.sellers.Update(ctx, s, s.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return fmt.Errorf("update seller: %w", err)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return domain.ErrContention
}
