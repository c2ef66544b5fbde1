// Package planner turns conversation state plus a new user message into a
// plan of outgoing commands.
//
// # Overview
//
// The Planner owns the conversational loop: it appends the incoming user
// message to history, asks the responder for a completion over the prior
// history, appends the assistant reply, and emits a single "say" command
// carrying that reply.
//
// # Responder Initialization
//
// The responder is built lazily on the first turn. Its system instruction
// comes from a rendered prompt template, so template errors and model client
// errors surface on the turn that first needs the responder. A failed
// initialization is retried on the next turn; a successful one is reused for
// the planner's lifetime.
//
// # Failure Asymmetry
//
// When generation fails mid-turn, the planner emits a fixed apology to the
// user and leaves the assistant side of history empty. The user message stays
// appended. This keeps history an honest record of what was said rather than
// what was attempted.
package planner
