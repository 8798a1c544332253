package middleware

import (
	"context"
	"net/http"

	"github.com/dukerupert/folio/internal/domain"
)

// SessionChecker reports whether the shopper is logged in.
type SessionChecker interface {
	IsAuthenticated(ctx context.Context) bool
}

// RequireAuth rejects requests with 401 unless the shopper is logged in.
// The UI answers a 401 by opening the login form.
func RequireAuth(sessions SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sessions.IsAuthenticated(r.Context()) {
				respondWithError(w, r, http.StatusUnauthorized, domain.EUNAUTHORIZED, "Please log in to continue")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
