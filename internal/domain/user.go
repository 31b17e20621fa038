// Package domain defines the auction-house entities, the ledger store
// interfaces they are persisted through, and the sentinel errors shared by
// every layer above the store.
package domain

// Role distinguishes the two kinds of authenticated principals.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleSeller
}
