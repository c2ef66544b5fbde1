// Package bot bridges incoming channel activities to the turn planner.
//
// # Overview
//
// The bot package is the entry point for a conversational turn. It accepts
// an Activity (one inbound user message from any channel), loads the
// conversation's persisted state, runs the turn planner, and converts the
// resulting commands into outgoing replies.
//
// # Turn Flow
//
//  1. Validate the activity (non-empty text and conversation ID).
//  2. Drop duplicate deliveries using the dedupe cache.
//  3. Acquire the per-conversation lock so turns in the same conversation
//     never interleave.
//  4. Load conversation and user state from storage.
//  5. Run BeginTask (first turn) or ContinueTask (subsequent turns).
//  6. Persist updated state and return the rendered replies.
//
// # Error Behavior
//
// If the planner fails, the bot returns a single generic error notice to the
// user instead of propagating the failure to the channel. State is not saved
// for failed turns. If only the save fails, the reply is still delivered and
// the failure is logged.
//
// # Concurrency
//
// Turns for different conversations run concurrently. Turns for the same
// conversation are serialized with a per-conversation mutex keyed by the
// conversation's scope key.
package bot
