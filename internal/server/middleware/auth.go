// Package middleware provides the HTTP middleware chain: bearer-token
// authentication, request logging, request ids, and CORS.
package middleware

import (
	"net/http"
	"strings"

	"github.com/auctionhouse/auctiond/internal/auth"
	"github.com/auctionhouse/auctiond/internal/domain"
)

// Verifier validates a raw bearer token and returns its principal.
type Verifier interface {
	Verify(raw string) (auth.Principal, error)
}

// Auth returns middleware that requires a valid bearer token with the given
// role and attaches the verified principal to the request context. Requests
// with a missing, unverifiable, or wrong-role token never reach the handler.
func Auth(tokens Verifier, role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			p, err := tokens.Verify(raw)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}
			if p.Role != role {
				writeAuthError(w, http.StatusForbidden, "wrong role for this endpoint")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// writeAuthError sends an auth failure with a JSON error body.
func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
