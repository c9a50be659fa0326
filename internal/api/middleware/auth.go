package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/whenworks/calendar-api/internal/api/types"
)

type userKeyType string

const UsernameKey userKeyType = "username"

// TokenResolver turns a bearer token into the username it was issued for.
type TokenResolver interface {
	ResolveToken(token string) (string, error)
}

// Auth validates the Authorization bearer token and stores its subject in the
// request context. Missing or invalid tokens answer 401 with a Bearer
// challenge; handlers resolve the subject to a user row themselves.
func Auth(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := r.Header.Get("Authorization")
			if !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				challenge(w)
				return
			}
			tokenStr := strings.TrimSpace(ah[len("Bearer "):])
			username, err := resolver.ResolveToken(tokenStr)
			if err != nil {
				challenge(w)
				return
			}
			ctx := context.WithValue(r.Context(), UsernameKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUsername returns the authenticated username from context.
func GetUsername(ctx context.Context) string {
	if v := ctx.Value(UsernameKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(types.APIResponse{
		Success: false,
		Error:   &types.APIError{Code: "unauthorized", Message: "Could not validate credentials"},
	})
}
