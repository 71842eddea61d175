// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const (
	userKey   ctxKey = "user"
	holderKey ctxKey = "identity-holder"
)

// identityHolder lets an outer middleware see the identity resolved by an
// inner one.
type identityHolder struct {
	userID string
}

func withHolder(ctx context.Context, h *identityHolder) context.Context {
	return context.WithValue(ctx, holderKey, h)
}

// TokenVerifier resolves a bearer token to an identity key.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Identity resolves the caller's identity from an "Authorization: Bearer"
// header and stores it in the request context.
//
// Requests without the header pass through anonymously; handlers decide
// whether an identity is required. A header that is present but invalid is
// rejected with 401.
func Identity(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "invalid authorization header", http.StatusUnauthorized)
				return
			}
			userID, err := v.Verify(token)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			if h, ok := r.Context().Value(holderKey).(*identityHolder); ok {
				h.userID = userID
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// RequireIdentity rejects anonymous requests with 401.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserIDFromContext(r.Context()) == "" {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// GetUserIDFromContext extracts the user ID from the request context.
// Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
