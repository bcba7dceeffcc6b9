package api

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
)

type contextKey string

const identityKey contextKey = "bookshare.identity"

// RequireIdentity resolves the verified bearer credential into the
// caller's external identifier and stores it on the request context.
// Requests with a missing or invalid credential are rejected with 401
// before reaching any handler; the two cases are not distinguished.
// It must run below jwtauth.Verifier.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			renderUnauthenticated(w, r)
			return
		}

		subject, _ := claims["sub"].(string)
		if subject == "" {
			renderUnauthenticated(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func renderUnauthenticated(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, ErrorResponse{Message: "Authentication failed - no user ID found"})
}

// IdentityFromContext returns the verified external identifier set by
// RequireIdentity.
func IdentityFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(identityKey).(string)
	return id, ok && id != ""
}
