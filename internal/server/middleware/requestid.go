package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// requestIDHeader carries the request id on both the inbound request (when a
// proxy already assigned one) and the response.
const requestIDHeader = "X-Request-Id"

// RequestID returns middleware that ensures every request carries a request
// id, minting one when the client did not send any.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
				r.Header.Set(requestIDHeader, id)
			}
			w.Header().Set(requestIDHeader, id)
			next.ServeHTTP(w, r)
		})
	}
}
