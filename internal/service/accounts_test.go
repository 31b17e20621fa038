package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auctionhouse/auctiond/internal/domain"
)

func registerInput(role domain.Role) RegisterInput {
	return RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "correct-horse",
		Role:      role,
	}
}

func TestRegisterAndLoginBuyer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.accounts.Register(ctx, registerInput(domain.RoleBuyer))
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, domain.RoleBuyer, res.Role)
	assert.NotEmpty(t, res.ID)

	p, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.ID, p.ID)
	assert.Equal(t, domain.RoleBuyer, p.Role)

	login, err := f.accounts.Login(ctx, "ada@example.com", "correct-horse", domain.RoleBuyer)
	require.NoError(t, err)
	assert.Equal(t, res.ID, login.ID)
}

func TestRegisterSameEmailBothRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	buyer, err := f.accounts.Register(ctx, registerInput(domain.RoleBuyer))
	require.NoError(t, err)
	seller, err := f.accounts.Register(ctx, registerInput(domain.RoleSeller))
	require.NoError(t, err)

	assert.NotEqual(t, buyer.ID, seller.ID, "ids are role-scoped")
}

func TestRegisterDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Register(ctx, registerInput(domain.RoleBuyer))
	require.NoError(t, err)
	_, err = f.accounts.Register(ctx, registerInput(domain.RoleBuyer))
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := registerInput(domain.RoleBuyer)
	in.Email = "not-an-email"
	_, err := f.accounts.Register(ctx, in)
	require.ErrorIs(t, err, domain.ErrValidation)

	in = registerInput(domain.RoleBuyer)
	in.Password = "short"
	_, err = f.accounts.Register(ctx, in)
	require.ErrorIs(t, err, domain.ErrValidation)

	in = registerInput(domain.RoleBuyer)
	in.FirstName = ""
	_, err = f.accounts.Register(ctx, in)
	require.ErrorIs(t, err, domain.ErrValidation)

	in = registerInput("admin")
	_, err = f.accounts.Register(ctx, in)
	require.ErrorIs(t, err, domain.ErrValidation)
}

// Wrong password and unknown account are indistinguishable to the caller.
func TestLoginFailuresAreUniform(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Register(ctx, registerInput(domain.RoleBuyer))
	require.NoError(t, err)

	_, err = f.accounts.Login(ctx, "ada@example.com", "wrong-password", domain.RoleBuyer)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.accounts.Login(ctx, "nobody@example.com", "correct-horse", domain.RoleBuyer)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	// Registered as buyer only, so the seller namespace has no such account.
	_, err = f.accounts.Login(ctx, "ada@example.com", "correct-horse", domain.RoleSeller)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestDeposit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.accounts.Register(ctx, registerInput(domain.RoleBuyer))
	require.NoError(t, err)

	b, err := f.accounts.Deposit(ctx, res.ID, 250)
	require.NoError(t, err)
	assert.EqualValues(t, 250, b.Available)
	assert.EqualValues(t, 250, b.TotalDeposited)

	_, err = f.accounts.Deposit(ctx, res.ID, -1)
	require.ErrorIs(t, err, domain.ErrValidation)
}
