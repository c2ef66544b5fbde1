// ABOUTME: HTTP middleware for bearer token authentication on API endpoints
// ABOUTME: Extracts the JWT from the Authorization header and adds the caller to the request context

package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{}

// WithCaller returns a context carrying the authenticated caller ID.
func WithCaller(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, contextKey{}, callerID)
}

// CallerFromContext extracts the authenticated caller ID, if any.
func CallerFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok
}

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// Middleware creates an HTTP middleware that extracts and validates bearer
// tokens, stashing the caller ID in the request context.
func Middleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				http.Error(w, `{"error":"`+errMsg+`"}`, http.StatusUnauthorized)
				return
			}

			callerID, err := verifier.Verify(token)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), callerID)))
		})
	}
}
