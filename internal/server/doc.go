// Package server exposes the HTTP API.
//
// # Endpoints
//
//   - POST /api/messages: deliver an inbound activity, returns replies
//   - GET /api/conversations/{id}/history: conversation history
//   - GET /health: liveness check, unauthenticated
//
// API routes are wrapped with JWT bearer auth when a verifier is configured.
package server
