// Package middleware provides HTTP middleware for the FreshCart API.
package middleware

import (
	"context"
	"net/http"
)

// Context keys for request-scoped values.
type contextKey string

// UserIDKey is the context key for the shopper identity.
const UserIDKey contextKey = "user_id"

// IdentityConfig holds shopper identification settings.
type IdentityConfig struct {
	// Require rejects requests without an X-User-ID header. Off in
	// development, where a default shopper is assumed.
	Require     bool
	DefaultUser string
}

// Identity extracts the shopper identity from the X-User-ID header or the
// user_id query parameter and stores it on the request context.
func Identity(cfg IdentityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-ID")
			if userID == "" {
				userID = r.URL.Query().Get("user_id")
			}
			if userID == "" {
				if cfg.Require {
					http.Error(w, `{"error": "missing X-User-ID header"}`, http.StatusUnauthorized)
					return
				}
				userID = cfg.DefaultUser
				if userID == "" {
					userID = "dev"
				}
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext retrieves the shopper identity from the context.
func UserFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(UserIDKey).(string); ok {
		return v
	}
	return ""
}

// CORS returns a middleware that sets CORS headers for allowed origins.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	originSet := map[string]bool{}
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		originSet[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || originSet[origin]) {
				if allowAll {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
