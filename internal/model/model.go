// ABOUTME: Chat message taxonomy and the model client boundary
// ABOUTME: Defines the concrete message variants consumed by model backends

package model

import (
	"context"
	"errors"
)

// ErrEmptyCompletion is returned when the model produced no usable reply text
var ErrEmptyCompletion = errors.New("model returned empty completion")

// ToolCall describes a function invocation requested by the assistant.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ChatMessage is the closed set of message variants a model backend accepts.
// The four implementations are SystemMessage, UserMessage, AssistantMessage
// and ToolMessage.
type ChatMessage interface {
	chatMessage()
}

// SystemMessage carries the system instruction.
type SystemMessage struct {
	Content string
}

// UserMessage carries one user utterance.
type UserMessage struct {
	Content string
}

// AssistantMessage carries a model reply, optionally with tool calls.
type AssistantMessage struct {
	Content   string
	ToolCalls []ToolCall
}

// ToolMessage carries a tool result answering a prior tool call.
type ToolMessage struct {
	Content    string
	ToolCallID string
}

func (SystemMessage) chatMessage()    {}
func (UserMessage) chatMessage()      {}
func (AssistantMessage) chatMessage() {}
func (ToolMessage) chatMessage()      {}

// Client is the model inference boundary. Exactly one network call per
// Complete; deadline handling belongs to the caller's context.
type Client interface {
	Complete(ctx context.Context, messages []ChatMessage) (AssistantMessage, error)
}
