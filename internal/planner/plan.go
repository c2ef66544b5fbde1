// ABOUTME: Plan and command types emitted by the turn planner
// ABOUTME: A plan is an ordered list of output commands for the transport to deliver

package planner

import "github.com/2389/chatbridge/internal/message"

// CommandType identifies the kind of output command.
type CommandType string

// CommandSay delivers a message to the channel.
const CommandSay CommandType = "say"

// Command is one output action. Response is nil for command kinds that carry
// no message; callers must check it rather than probing fields.
type Command struct {
	Type     CommandType
	Response *message.Message
}

// Plan is the ordered set of commands produced by one turn.
type Plan struct {
	Commands []Command
}

// Say constructs a plan containing a single say command for msg.
func Say(msg message.Message) *Plan {
	return &Plan{
		Commands: []Command{{Type: CommandSay, Response: &msg}},
	}
}
