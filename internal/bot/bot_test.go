// ABOUTME: Tests for the bot turn execution layer
// ABOUTME: Verifies dedupe, begin/continue routing, persistence, and the error boundary

package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/chatbridge/internal/dedupe"
	"github.com/2389/chatbridge/internal/message"
	"github.com/2389/chatbridge/internal/planner"
	"github.com/2389/chatbridge/internal/state"
)

// mockPlanner implements TurnPlanner
type mockPlanner struct {
	mu            sync.Mutex
	reply         string
	err           error
	beginCalls    int
	continueCalls int
}

func (m *mockPlanner) plan(text string, st *state.TurnState) (*planner.Plan, error) {
	if m.err != nil {
		return nil, m.err
	}
	st.Conversation.History = append(st.Conversation.History,
		message.Message{Role: message.RoleUser, Content: text},
		message.Message{Role: message.RoleAssistant, Content: m.reply},
	)
	return planner.Say(message.Message{Role: message.RoleAssistant, Content: m.reply}), nil
}

func (m *mockPlanner) BeginTask(_ context.Context, text string, st *state.TurnState) (*planner.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beginCalls++
	return m.plan(text, st)
}

func (m *mockPlanner) ContinueTask(_ context.Context, text string, st *state.TurnState) (*planner.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.continueCalls++
	return m.plan(text, st)
}

func testActivity(id, text string) *Activity {
	return &Activity{
		ID:             id,
		ChannelID:      "teams",
		ConversationID: "conv-1",
		UserID:         "user-1",
		Text:           text,
	}
}

func TestProcessActivity_HappyPath(t *testing.T) {
	storage := state.NewMemoryStorage()
	p := &mockPlanner{reply: "Oslo."}
	b := New(storage, p, nil, nil)

	out, err := b.ProcessActivity(context.Background(), testActivity("a1", "capital of Norway?"))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Oslo.", out[0].Text)
	assert.Contains(t, out[0].HTML, "Oslo.")
	assert.NotEmpty(t, out[0].ID)
	assert.Equal(t, 1, p.beginCalls)

	// State persisted: second turn continues.
	st, err := b.History(context.Background(), "teams/conv-1", "teams/user-1")
	require.NoError(t, err)
	require.Len(t, st.Conversation.History, 2)
}

func TestProcessActivity_RoutesBeginThenContinue(t *testing.T) {
	storage := state.NewMemoryStorage()
	p := &mockPlanner{reply: "ok"}
	b := New(storage, p, nil, nil)

	_, err := b.ProcessActivity(context.Background(), testActivity("a1", "first"))
	require.NoError(t, err)
	_, err = b.ProcessActivity(context.Background(), testActivity("a2", "second"))
	require.NoError(t, err)

	assert.Equal(t, 1, p.beginCalls)
	assert.Equal(t, 1, p.continueCalls)
}

func TestProcessActivity_DuplicateDeliveryIgnored(t *testing.T) {
	storage := state.NewMemoryStorage()
	p := &mockPlanner{reply: "ok"}
	cache := dedupe.New(time.Minute, 100)
	t.Cleanup(cache.Close)
	b := New(storage, p, cache, nil)

	out, err := b.ProcessActivity(context.Background(), testActivity("a1", "hello"))
	require.NoError(t, err)
	require.Len(t, out, 1)

	out, err = b.ProcessActivity(context.Background(), testActivity("a1", "hello"))
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1, p.beginCalls)
}

func TestProcessActivity_PlannerErrorHitsBoundary(t *testing.T) {
	storage := state.NewMemoryStorage()
	p := &mockPlanner{err: errors.New("prompt render failed")}
	b := New(storage, p, nil, nil)

	out, err := b.ProcessActivity(context.Background(), testActivity("a1", "hello"))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "The bot encountered an error or bug.", out[0].Text)

	// Failed turns persist nothing.
	st, err := b.History(context.Background(), "teams/conv-1", "teams/user-1")
	require.NoError(t, err)
	assert.Empty(t, st.Conversation.History)
}

func TestProcessActivity_ValidatesInput(t *testing.T) {
	b := New(state.NewMemoryStorage(), &mockPlanner{reply: "ok"}, nil, nil)

	_, err := b.ProcessActivity(context.Background(), &Activity{ConversationID: "c"})
	require.Error(t, err)

	_, err = b.ProcessActivity(context.Background(), &Activity{Text: "hi"})
	require.Error(t, err)
}

func TestProcessActivity_SerializesSameConversation(t *testing.T) {
	storage := state.NewMemoryStorage()
	p := &mockPlanner{reply: "ok"}
	b := New(storage, p, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			a := testActivity("", "message")
			a.ID = ""
			_, err := b.ProcessActivity(context.Background(), a)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// All eight turns landed; history grew by two entries per turn with no
	// lost updates.
	st, err := b.History(context.Background(), "teams/conv-1", "teams/user-1")
	require.NoError(t, err)
	assert.Len(t, st.Conversation.History, 16)
}
