// ABOUTME: Responder wraps a model client behind a fixed system instruction
// ABOUTME: One model call per Generate, no caching, no streaming

package responder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/chatbridge/internal/message"
	"github.com/2389/chatbridge/internal/model"
)

// Responder binds a model client to an immutable system instruction. It is
// constructed once per planner lifetime, on the first turn.
type Responder struct {
	client      model.Client
	instruction string
	logger      *slog.Logger
}

// New creates a Responder. The instruction is fixed for the Responder's
// lifetime.
func New(client model.Client, instruction string, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		client:      client,
		instruction: instruction,
		logger:      logger.With("component", "responder"),
	}
}

// Generate produces the reply to text given the prior conversation history.
// The history is converted to the model taxonomy, the system instruction is
// prepended, and the new user message appended; exactly one model invocation
// follows.
func (r *Responder) Generate(ctx context.Context, text string, history []message.Message) (string, error) {
	prior, err := message.HistoryToModel(history)
	if err != nil {
		return "", fmt.Errorf("converting history: %w", err)
	}

	msgs := make([]model.ChatMessage, 0, len(prior)+2)
	msgs = append(msgs, model.SystemMessage{Content: r.instruction})
	msgs = append(msgs, prior...)
	msgs = append(msgs, model.UserMessage{Content: text})

	reply, err := r.client.Complete(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("model completion: %w", err)
	}

	r.logger.Debug("generated reply",
		"history_len", len(history),
		"reply_chars", len(reply.Content))
	return reply.Content, nil
}
