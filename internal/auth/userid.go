package auth

import (
	"encoding/base64"
	"io"

	"golang.org/x/crypto/sha3"

	"github.com/auctionhouse/auctiond/internal/domain"
)

// UserID derives the account id for an (email, role) pair. The id is
// deterministic so a second registration with the same email and role lands
// on the same key and is rejected by the store's create condition, and login
// can locate the account without an email index.
func UserID(email string, role domain.Role) string {
	h := sha3.NewShake128()
	io.WriteString(h, email)
	io.WriteString(h, string(role))

	buf := make([]byte, 12)
	h.Read(buf)

	return string(role) + "_" + base64.URLEncoding.EncodeToString(buf)
}
