package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/auctionhouse/auctiond/internal/domain"
)

// HashPassword bcrypt-hashes a plaintext password. A cost of 0 selects the
// bcrypt default.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a stored hash against a candidate password and
// returns domain.ErrUnauthorized on mismatch.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("auth: %w: password mismatch", domain.ErrUnauthorized)
	}
	return nil
}
