// ABOUTME: Typed turn state assembled from three scoped storage partitions
// ABOUTME: Conversation-shared, user-shared, and turn-local data loaded per turn

package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2389/chatbridge/internal/message"
)

// Scope prefixes for storage keys.
const (
	scopeConversation = "conversation/"
	scopeUser         = "user/"
	scopeTemp         = "temp/"
)

// Conversation partition field names.
const (
	fieldHistory  = "history"
	fieldLightsOn = "lights_on"
)

// ConversationState is shared by all participants in a conversation.
// History is append-only during a turn; after a successful turn the last
// entry is the assistant's reply to the user message just before it.
type ConversationState struct {
	History  []message.Message
	LightsOn bool
}

// UserState holds fields scoped to the user across conversations.
type UserState struct {
	Values map[string]json.RawMessage
}

// TempState holds turn-local fields. It is never persisted at turn end.
type TempState struct {
	Values map[string]json.RawMessage
}

// TurnState aggregates the three partitions for one turn.
type TurnState struct {
	Conversation    *ConversationState
	User            *UserState
	Temp            *TempState
	conversationKey string
	userKey         string
}

// Load materializes a TurnState from three scoped reads. Missing partitions
// and fields take their defaults: empty history, lights off.
func Load(ctx context.Context, storage Storage, conversationKey, userKey string) (*TurnState, error) {
	convFields, err := storage.Read(ctx, scopeConversation+conversationKey)
	if err != nil {
		return nil, fmt.Errorf("loading conversation state: %w", err)
	}
	userFields, err := storage.Read(ctx, scopeUser+userKey)
	if err != nil {
		return nil, fmt.Errorf("loading user state: %w", err)
	}
	tempFields, err := storage.Read(ctx, scopeTemp+conversationKey)
	if err != nil {
		return nil, fmt.Errorf("loading temp state: %w", err)
	}

	conv := &ConversationState{History: []message.Message{}}
	if raw, ok := convFields[fieldHistory]; ok {
		if err := json.Unmarshal(raw, &conv.History); err != nil {
			return nil, fmt.Errorf("decoding history: %w", err)
		}
	}
	if raw, ok := convFields[fieldLightsOn]; ok {
		if err := json.Unmarshal(raw, &conv.LightsOn); err != nil {
			return nil, fmt.Errorf("decoding lights_on: %w", err)
		}
	}

	return &TurnState{
		Conversation:    conv,
		User:            &UserState{Values: userFields},
		Temp:            &TempState{Values: tempFields},
		conversationKey: conversationKey,
		userKey:         userKey,
	}, nil
}

// Save persists the conversation and user partitions. The temp partition is
// discarded: its lifetime is the turn.
func (t *TurnState) Save(ctx context.Context, storage Storage) error {
	history, err := json.Marshal(t.Conversation.History)
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	lightsOn, err := json.Marshal(t.Conversation.LightsOn)
	if err != nil {
		return fmt.Errorf("encoding lights_on: %w", err)
	}

	convFields := map[string]json.RawMessage{
		fieldHistory:  history,
		fieldLightsOn: lightsOn,
	}
	if err := storage.Write(ctx, scopeConversation+t.conversationKey, convFields); err != nil {
		return fmt.Errorf("saving conversation state: %w", err)
	}

	if err := storage.Write(ctx, scopeUser+t.userKey, t.User.Values); err != nil {
		return fmt.Errorf("saving user state: %w", err)
	}

	return nil
}

// ConversationKey returns the key the conversation partition was loaded from.
func (t *TurnState) ConversationKey() string {
	return t.conversationKey
}
