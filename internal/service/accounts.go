package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/auctionhouse/auctiond/internal/auth"
	"github.com/auctionhouse/auctiond/internal/domain"
)

// RegisterInput carries a new account registration.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      domain.Role
}

// AuthResult is returned by Register and Login: a signed bearer token plus
// the profile it authenticates.
type AuthResult struct {
	Token     string      `json:"token"`
	ID        string      `json:"id"`
	Role      domain.Role `json:"role"`
	Email     string      `json:"email"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
}

// AccountService manages buyer and seller accounts. Account ids are derived
// deterministically from (email, role), so a duplicate registration surfaces
// as a key collision on create rather than needing an email index.
type AccountService struct {
	buyers     domain.BuyerStore
	sellers    domain.SellerStore
	tokens     *auth.TokenManager
	escrow     *EscrowLedger
	logger     *slog.Logger
	bcryptCost int
	now        func() time.Time
}

// NewAccountService creates an AccountService. bcryptCost zero selects the
// bcrypt default.
func NewAccountService(
	buyers domain.BuyerStore,
	sellers domain.SellerStore,
	tokens *auth.TokenManager,
	escrow *EscrowLedger,
	logger *slog.Logger,
	bcryptCost int,
) *AccountService {
	return &AccountService{
		buyers:     buyers,
		sellers:    sellers,
		tokens:     tokens,
		escrow:     escrow,
		logger:     logger,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// Register creates a new buyer or seller account and returns a signed token.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	if err := validateRegister(in); err != nil {
		return AuthResult{}, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("accounts: hash password: %w", err)
	}

	id := auth.UserID(in.Email, in.Role)
	createdAt := s.now().UTC()

	switch in.Role {
	case domain.RoleBuyer:
		err = s.buyers.Create(ctx, domain.Buyer{
			ID:           id,
			CreatedAt:    createdAt,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Email:        in.Email,
			PasswordHash: hash,
		})
	case domain.RoleSeller:
		err = s.sellers.Create(ctx, domain.Seller{
			ID:           id,
			CreatedAt:    createdAt,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Email:        in.Email,
			PasswordHash: hash,
		})
	}
	if err != nil {
		return AuthResult{}, fmt.Errorf("accounts: register %s as %s: %w", in.Email, in.Role, err)
	}

	s.logger.InfoContext(ctx, "accounts: registered",
		slog.String("user_id", id),
		slog.String("role", string(in.Role)),
	)
	return s.issue(auth.Principal{
		ID:        id,
		Role:      in.Role,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
}

// Login verifies the credentials for the given role and returns a signed
// token. Unknown accounts and bad passwords are both reported as
// ErrUnauthorized so login probing cannot distinguish them.
func (s *AccountService) Login(ctx context.Context, email, password string, role domain.Role) (AuthResult, error) {
	if !role.Valid() {
		return AuthResult{}, fmt.Errorf("accounts: unknown role %q: %w", role, domain.ErrValidation)
	}

	id := auth.UserID(email, role)
	var p auth.Principal
	var hash string

	switch role {
	case domain.RoleBuyer:
		b, err := s.buyers.Get(ctx, id)
		if err != nil {
			return AuthResult{}, loginErr(email, err)
		}
		p = auth.Principal{ID: b.ID, Role: role, Email: b.Email, FirstName: b.FirstName, LastName: b.LastName}
		hash = b.PasswordHash
	case domain.RoleSeller:
		sl, err := s.sellers.Get(ctx, id)
		if err != nil {
			return AuthResult{}, loginErr(email, err)
		}
		p = auth.Principal{ID: sl.ID, Role: role, Email: sl.Email, FirstName: sl.FirstName, LastName: sl.LastName}
		hash = sl.PasswordHash
	}

	if err := auth.CheckPassword(hash, password); err != nil {
		return AuthResult{}, fmt.Errorf("accounts: login %s: %w", email, domain.ErrUnauthorized)
	}
	return s.issue(p)
}

// Deposit credits the buyer's available balance and returns the updated
// account.
func (s *AccountService) Deposit(ctx context.Context, buyerID string, amount int64) (domain.Buyer, error) {
	if err := s.escrow.Deposit(ctx, buyerID, amount); err != nil {
		return domain.Buyer{}, fmt.Errorf("accounts: deposit for buyer %s: %w", buyerID, err)
	}
	b, err := s.buyers.Get(ctx, buyerID)
	if err != nil {
		return domain.Buyer{}, fmt.Errorf("accounts: get buyer %s: %w", buyerID, err)
	}
	return b, nil
}

// GetBuyer returns the buyer's account including balances.
func (s *AccountService) GetBuyer(ctx context.Context, buyerID string) (domain.Buyer, error) {
	b, err := s.buyers.Get(ctx, buyerID)
	if err != nil {
		return domain.Buyer{}, fmt.Errorf("accounts: get buyer %s: %w", buyerID, err)
	}
	return b, nil
}

// GetSeller returns the seller's account.
func (s *AccountService) GetSeller(ctx context.Context, sellerID string) (domain.Seller, error) {
	sl, err := s.sellers.Get(ctx, sellerID)
	if err != nil {
		return domain.Seller{}, fmt.Errorf("accounts: get seller %s: %w", sellerID, err)
	}
	return sl, nil
}

func (s *AccountService) issue(p auth.Principal) (AuthResult, error) {
	token, err := s.tokens.Issue(p)
	if err != nil {
		return AuthResult{}, fmt.Errorf("accounts: issue token: %w", err)
	}
	return AuthResult{
		Token:     token,
		ID:        p.ID,
		Role:      p.Role,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
	}, nil
}

func validateRegister(in RegisterInput) error {
	if !in.Role.Valid() {
		return fmt.Errorf("accounts: unknown role %q: %w", in.Role, domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("accounts: invalid email: %w", domain.ErrValidation)
	}
	if len(in.Password) < 8 {
		return fmt.Errorf("accounts: password must be at least 8 characters: %w", domain.ErrValidation)
	}
	if in.FirstName == "" || in.LastName == "" {
		return fmt.Errorf("accounts: first and last name are required: %w", domain.ErrValidation)
	}
	return nil
}

func loginErr(email string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("accounts: login %s: %w", email, domain.ErrUnauthorized)
	}
	return fmt.Errorf("accounts: login %s: %w", email, err)
}
