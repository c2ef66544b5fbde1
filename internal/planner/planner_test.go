// ABOUTME: Tests for the turn planner state machine
// ABOUTME: Verifies history mutation, fallback behavior, and one-time responder initialization

package planner

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/chatbridge/internal/message"
	"github.com/2389/chatbridge/internal/state"
)

// mockRenderer implements PromptRenderer and counts Render calls
type mockRenderer struct {
	mu       sync.Mutex
	rendered string
	err      error
	calls    int
}

func (m *mockRenderer) Render(_ context.Context, _ string, _ any, _ int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.rendered, nil
}

func (m *mockRenderer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockResponder implements TextResponder
type mockResponder struct {
	mu          sync.Mutex
	reply       string
	err         error
	lastText    string
	lastHistory []message.Message
}

func (m *mockResponder) Generate(_ context.Context, text string, history []message.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastText = text
	m.lastHistory = append([]message.Message(nil), history...)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func newTestState(t *testing.T) *state.TurnState {
	t.Helper()
	st, err := state.Load(context.Background(), state.NewMemoryStorage(), "conv-1", "user-1")
	require.NoError(t, err)
	return st
}

func newTestPlanner(renderer *mockRenderer, resp *mockResponder, factoryErr error) (*Planner, *int) {
	factoryCalls := 0
	factory := func(_ context.Context, _ string) (TextResponder, error) {
		factoryCalls++
		if factoryErr != nil {
			return nil, factoryErr
		}
		return resp, nil
	}
	return New(renderer, "chat", 2048, factory, nil), &factoryCalls
}

func TestBeginTask_AppendsUserAndAssistant(t *testing.T) {
	renderer := &mockRenderer{rendered: "You are helpful."}
	resp := &mockResponder{reply: "Oslo."}
	p, _ := newTestPlanner(renderer, resp, nil)
	st := newTestState(t)

	plan, err := p.BeginTask(context.Background(), "Hello! What is the capital of Norway?", st)
	require.NoError(t, err)

	require.Len(t, plan.Commands, 1)
	assert.Equal(t, CommandSay, plan.Commands[0].Type)
	require.NotNil(t, plan.Commands[0].Response)
	assert.Equal(t, message.RoleAssistant, plan.Commands[0].Response.Role)
	assert.Equal(t, "Oslo.", plan.Commands[0].Response.Content)

	history := st.Conversation.History
	require.Len(t, history, 2)
	assert.Equal(t, message.RoleUser, history[0].Role)
	assert.Equal(t, "Hello! What is the capital of Norway?", history[0].Content)
	assert.Equal(t, message.RoleAssistant, history[1].Role)
	assert.Equal(t, "Oslo.", history[1].Content)
}

func TestContinueTask_PriorHistoryExcludesCurrentMessage(t *testing.T) {
	renderer := &mockRenderer{rendered: "sys"}
	resp := &mockResponder{reply: "again"}
	p, _ := newTestPlanner(renderer, resp, nil)
	st := newTestState(t)
	st.Conversation.History = []message.Message{
		{Role: message.RoleUser, Content: "first"},
		{Role: message.RoleAssistant, Content: "one"},
	}

	_, err := p.ContinueTask(context.Background(), "second", st)
	require.NoError(t, err)

	// The responder saw only the pre-turn history.
	require.Len(t, resp.lastHistory, 2)
	assert.Equal(t, "first", resp.lastHistory[0].Content)
	assert.Equal(t, "one", resp.lastHistory[1].Content)
	assert.Equal(t, "second", resp.lastText)

	require.Len(t, st.Conversation.History, 4)
	assert.Equal(t, message.RoleUser, st.Conversation.History[2].Role)
	assert.Equal(t, message.RoleAssistant, st.Conversation.History[3].Role)
}

func TestPlan_GenerationFailureProducesFallback(t *testing.T) {
	renderer := &mockRenderer{rendered: "sys"}
	resp := &mockResponder{err: errors.New("model unavailable")}
	p, _ := newTestPlanner(renderer, resp, nil)
	st := newTestState(t)

	plan, err := p.BeginTask(context.Background(), "hi", st)
	require.NoError(t, err)

	require.Len(t, plan.Commands, 1)
	require.NotNil(t, plan.Commands[0].Response)
	assert.Equal(t,
		"I apologize, but I encountered an error while processing your request. Please try again.",
		plan.Commands[0].Response.Content)

	// The user message stays; the fallback is never appended.
	require.Len(t, st.Conversation.History, 1)
	assert.Equal(t, message.RoleUser, st.Conversation.History[0].Role)
}

func TestPlan_InitializationFailurePropagates(t *testing.T) {
	renderer := &mockRenderer{err: errors.New("template missing")}
	p, _ := newTestPlanner(renderer, nil, nil)
	st := newTestState(t)

	plan, err := p.BeginTask(context.Background(), "hi", st)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResponderInit)
	assert.Nil(t, plan)

	// History untouched: the turn failed before the user append.
	assert.Empty(t, st.Conversation.History)
}

func TestPlan_FactoryFailurePropagatesAndRetries(t *testing.T) {
	renderer := &mockRenderer{rendered: "sys"}
	factoryErr := errors.New("no api key")
	p, factoryCalls := newTestPlanner(renderer, nil, factoryErr)
	st := newTestState(t)

	_, err := p.BeginTask(context.Background(), "hi", st)
	require.ErrorIs(t, err, ErrResponderInit)

	// A second turn retries initialization from scratch.
	_, err = p.BeginTask(context.Background(), "hi again", st)
	require.ErrorIs(t, err, ErrResponderInit)
	assert.Equal(t, 2, *factoryCalls)
	assert.Equal(t, 2, renderer.callCount())
}

func TestPlan_ResponderInitializedOnce(t *testing.T) {
	renderer := &mockRenderer{rendered: "sys"}
	resp := &mockResponder{reply: "ok"}
	p, factoryCalls := newTestPlanner(renderer, resp, nil)
	st := newTestState(t)

	_, err := p.BeginTask(context.Background(), "one", st)
	require.NoError(t, err)
	_, err = p.ContinueTask(context.Background(), "two", st)
	require.NoError(t, err)

	assert.Equal(t, 1, renderer.callCount())
	assert.Equal(t, 1, *factoryCalls)
}

func TestPlan_ConcurrentFirstTurnsInitializeOnce(t *testing.T) {
	renderer := &mockRenderer{rendered: "sys"}
	resp := &mockResponder{reply: "ok"}
	p, factoryCalls := newTestPlanner(renderer, resp, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st := newTestState(t)
			_, err := p.BeginTask(context.Background(), "hello", st)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, renderer.callCount())
	assert.Equal(t, 1, *factoryCalls)
}
