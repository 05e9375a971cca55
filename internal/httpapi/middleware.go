package httpapi

import (
	"context"
	"net/http"
)

// userIDHeader carries the authenticated user id, injected by the upstream
// auth proxy. Requests without it never reach the domain layer.
const userIDHeader = "X-User-ID"

type contextKey struct{ name string }

var userIDKey = contextKey{name: "user_id"}

// RequireUser rejects requests that carry no user identity and stores the id
// in the request context for handlers.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userIDHeader)
		if userID == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the authenticated user id stored by RequireUser.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
