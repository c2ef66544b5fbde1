// Package state persists conversation, user, and temp scoped data.
//
// # Scopes
//
// Each turn sees three partitions, keyed independently:
//
//   - conversation/<key>: per-conversation data (history, lights_on flag)
//   - user/<key>: per-user data shared across that user's conversations
//   - temp/<key>: turn-local scratch space, never persisted
//
// Missing partitions load as defaults (empty history, lights off) rather
// than errors.
//
// # Storage Backends
//
// Storage is a small three-method interface (Read, Write, Delete) over JSON
// field maps. MemoryStorage backs tests; SQLiteStorage backs production with
// one row per scope key and WAL journaling.
package state
