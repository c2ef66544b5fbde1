// ABOUTME: Canonical message representation shared by the planner and the state store
// ABOUTME: Bridges to and from the model package's chat message taxonomy

package message

import (
	"errors"
	"fmt"

	"github.com/2389/chatbridge/internal/model"
)

// Bridge errors
var (
	ErrInvalidRole        = errors.New("invalid message role")
	ErrUnsupportedMessage = errors.New("unsupported chat message type")
)

// Role identifies the sender of a message.
type Role string

// Recognized roles. The role fully determines which optional fields are
// meaningful: ToolCalls is assistant-only, ToolCallID is tool-only.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is the canonical unit of dialogue. Messages are immutable once
// appended to a conversation history.
type Message struct {
	Role       Role             `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []model.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

// ToModel converts a canonical message into the model taxonomy variant for
// its role. Tool call metadata is carried verbatim.
func ToModel(msg Message) (model.ChatMessage, error) {
	switch msg.Role {
	case RoleSystem:
		return model.SystemMessage{Content: msg.Content}, nil
	case RoleUser:
		return model.UserMessage{Content: msg.Content}, nil
	case RoleAssistant:
		return model.AssistantMessage{Content: msg.Content, ToolCalls: msg.ToolCalls}, nil
	case RoleTool:
		return model.ToolMessage{Content: msg.Content, ToolCallID: msg.ToolCallID}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidRole, msg.Role)
}

// FromModel is the inverse of ToModel, keyed on the concrete variant.
// FromModel(ToModel(m)) == m for every valid message.
func FromModel(ext model.ChatMessage) (Message, error) {
	switch m := ext.(type) {
	case model.SystemMessage:
		return Message{Role: RoleSystem, Content: m.Content}, nil
	case model.UserMessage:
		return Message{Role: RoleUser, Content: m.Content}, nil
	case model.AssistantMessage:
		return Message{Role: RoleAssistant, Content: m.Content, ToolCalls: m.ToolCalls}, nil
	case model.ToolMessage:
		return Message{Role: RoleTool, Content: m.Content, ToolCallID: m.ToolCallID}, nil
	}
	return Message{}, fmt.Errorf("%w: %T", ErrUnsupportedMessage, ext)
}

// HistoryToModel converts an ordered history for a model call, preserving
// chronological order.
func HistoryToModel(history []Message) ([]model.ChatMessage, error) {
	out := make([]model.ChatMessage, 0, len(history))
	for _, msg := range history {
		ext, err := ToModel(msg)
		if err != nil {
			return nil, err
		}
		out = append(out, ext)
	}
	return out, nil
}
