// Package model defines the chat message taxonomy and the model client
// interface, plus the Gemini-backed implementation.
//
// Messages are typed (system, user, assistant, tool) so the compiler keeps
// role handling honest. Client is a single-method interface so tests can
// substitute a fake for GeminiClient.
package model
