// Package auth provides JWT bearer-token authentication for the webhook API.
//
// # Tokens
//
// Tokens are signed with HS256 using the configured jwt_secret. The subject
// claim identifies the caller and is placed on the request context by the
// middleware.
//
// # Middleware
//
//	handler = auth.Middleware(verifier)(mux)
//
// Requests without a valid "Authorization: Bearer <token>" header are
// rejected with 401 before reaching the API handlers.
package auth
