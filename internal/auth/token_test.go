package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auctionhouse/auctiond/internal/domain"
)

func testPrincipal() Principal {
	return Principal{
		ID:        UserID("ada@example.com", domain.RoleBuyer),
		Role:      domain.RoleBuyer,
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
}

func TestIssueAndVerify(t *testing.T) {
	m, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	p := testPrincipal()
	token, err := m.Issue(p)
	require.NoError(t, err)

	got, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	require.Error(t, err)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer, err := NewTokenManager("secret-one", time.Hour)
	require.NoError(t, err)
	verifier, err := NewTokenManager("secret-two", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue(testPrincipal())
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m, err := NewTokenManager("test-secret", time.Minute)
	require.NoError(t, err)

	token, err := m.Issue(testPrincipal())
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = m.Verify(token)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	_, err = m.Verify("not.a.token")
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = m.Verify("")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUserIDIsDeterministicAndRoleScoped(t *testing.T) {
	a := UserID("ada@example.com", domain.RoleBuyer)
	b := UserID("ada@example.com", domain.RoleBuyer)
	assert.Equal(t, a, b)

	seller := UserID("ada@example.com", domain.RoleSeller)
	assert.NotEqual(t, a, seller)
	assert.NotEqual(t, a, UserID("eda@example.com", domain.RoleBuyer))

	// Ids carry their role namespace as a readable prefix.
	assert.Contains(t, a, "buyer_")
	assert.Contains(t, seller, "seller_")
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct-horse", 4)
	require.NoError(t, err)
	require.NotEqual(t, "correct-horse", hash)

	require.NoError(t, CheckPassword(hash, "correct-horse"))
	require.Error(t, CheckPassword(hash, "wrong-horse"))
}
