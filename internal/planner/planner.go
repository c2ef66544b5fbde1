// ABOUTME: Turn planner orchestrating responder initialization, history mutation, and plan construction
// ABOUTME: Model call failures are absorbed into a fixed fallback plan; init failures propagate

package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/2389/chatbridge/internal/message"
	"github.com/2389/chatbridge/internal/state"
)

// fallbackReply is sent when the model call fails. The fallback is not
// appended to history; only successful replies become context.
const fallbackReply = "I apologize, but I encountered an error while processing your request. Please try again."

// ErrResponderInit wraps failures to render the system prompt or construct
// the model client. The planner stays uninitialized so the next turn retries
// from scratch.
var ErrResponderInit = errors.New("responder initialization failed")

// TextResponder defines what the planner needs from the responder layer.
type TextResponder interface {
	Generate(ctx context.Context, text string, history []message.Message) (string, error)
}

// PromptRenderer defines what the planner needs from the prompt layer.
type PromptRenderer interface {
	Render(ctx context.Context, name string, data any, maxInputTokens int) (string, error)
}

// ResponderFactory builds the responder bound to a rendered system
// instruction. Called at most once per planner instance.
type ResponderFactory func(ctx context.Context, instruction string) (TextResponder, error)

// Planner drives one conversation turn: it lazily initializes the responder,
// appends the user message, generates the reply, and packages it as a plan.
type Planner struct {
	prompts        PromptRenderer
	promptName     string
	maxInputTokens int
	factory        ResponderFactory
	logger         *slog.Logger

	mu        sync.Mutex
	responder TextResponder
}

// New creates a Planner. The named prompt is rendered once, on the first
// turn, to produce the responder's system instruction.
func New(prompts PromptRenderer, promptName string, maxInputTokens int, factory ResponderFactory, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		prompts:        prompts,
		promptName:     promptName,
		maxInputTokens: maxInputTokens,
		factory:        factory,
		logger:         logger.With("component", "planner"),
	}
}

// BeginTask plans the first turn of a conversation.
func (p *Planner) BeginTask(ctx context.Context, text string, st *state.TurnState) (*Plan, error) {
	p.logger.Debug("begin_task", "input", text)
	return p.plan(ctx, text, st)
}

// ContinueTask plans a turn in an ongoing conversation. The contract is
// identical to BeginTask: the responder keeps no session affinity, so both
// entries run the same state machine.
func (p *Planner) ContinueTask(ctx context.Context, text string, st *state.TurnState) (*Plan, error) {
	p.logger.Debug("continue_task", "input", text)
	return p.plan(ctx, text, st)
}

func (p *Planner) plan(ctx context.Context, text string, st *state.TurnState) (*Plan, error) {
	resp, err := p.ensureResponder(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponderInit, err)
	}

	st.Conversation.History = append(st.Conversation.History, message.Message{
		Role:    message.RoleUser,
		Content: text,
	})

	// Everything before this turn is context for the model.
	prior := st.Conversation.History[:len(st.Conversation.History)-1]

	reply, err := resp.Generate(ctx, text, prior)
	if err != nil {
		p.logger.Error("generation failed", "error", err)
		return Say(message.Message{Role: message.RoleAssistant, Content: fallbackReply}), nil
	}

	p.logger.Debug("reply generated",
		"history_len", len(prior),
		"reply_chars", len(reply))

	assistant := message.Message{Role: message.RoleAssistant, Content: reply}
	st.Conversation.History = append(st.Conversation.History, assistant)
	return Say(assistant), nil
}

// ensureResponder performs the one-time Uninitialized -> Ready transition.
// The mutex serializes concurrent first turns so only one initialization
// runs; a failed initialization leaves the planner uninitialized and is
// retried on the next turn.
func (p *Planner) ensureResponder(ctx context.Context, st *state.TurnState) (TextResponder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.responder != nil {
		return p.responder, nil
	}

	instruction, err := p.prompts.Render(ctx, p.promptName, st.Conversation, p.maxInputTokens)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt %q: %w", p.promptName, err)
	}

	resp, err := p.factory(ctx, instruction)
	if err != nil {
		return nil, fmt.Errorf("constructing responder: %w", err)
	}

	p.logger.Debug("responder initialized", "prompt", p.promptName)
	p.responder = resp
	return resp, nil
}
