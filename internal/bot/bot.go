// ABOUTME: Turn execution layer tying dedupe, state, planner, and rendering together
// ABOUTME: Owns the per-conversation lock and the global error boundary

package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/2389/chatbridge/internal/dedupe"
	"github.com/2389/chatbridge/internal/planner"
	"github.com/2389/chatbridge/internal/render"
	"github.com/2389/chatbridge/internal/state"
)

// errorNotice is the generic failure message sent when a turn fails outside
// the planner's own fallback path.
const errorNotice = "The bot encountered an error or bug."

// Activity is the channel-agnostic inbound message consumed per turn.
type Activity struct {
	ID             string `json:"id"`
	ChannelID      string `json:"channel_id"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Text           string `json:"text"`
}

// Outgoing is one reply ready for delivery by the channel adapter. HTML is
// the markdown-rendered form for channels that accept rich text.
type Outgoing struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	HTML string `json:"html,omitempty"`
}

// TurnPlanner defines what the bot needs from the planner layer.
type TurnPlanner interface {
	BeginTask(ctx context.Context, text string, st *state.TurnState) (*planner.Plan, error)
	ContinueTask(ctx context.Context, text string, st *state.TurnState) (*planner.Plan, error)
}

// Bot processes one activity per call: dedupe, load state, plan, deliver,
// save. Concurrent turns for the same conversation are serialized by a
// per-conversation lock so load-mutate-save never interleaves.
type Bot struct {
	storage state.Storage
	planner TurnPlanner
	dedupe  *dedupe.Cache
	logger  *slog.Logger

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// New creates a Bot. The dedupe cache may be nil to disable retry
// suppression (tests, CLI drivers).
func New(storage state.Storage, turnPlanner TurnPlanner, cache *dedupe.Cache, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		storage: storage,
		planner: turnPlanner,
		dedupe:  cache,
		logger:  logger.With("component", "bot"),
		locks:   make(map[string]*sync.Mutex),
	}
}

// ProcessActivity runs one conversation turn. Redelivered activities return
// no replies (success, idempotent). Failures inside the turn are absorbed by
// the error boundary: they are logged and replaced by a generic notice.
func (b *Bot) ProcessActivity(ctx context.Context, activity *Activity) ([]Outgoing, error) {
	if activity.Text == "" {
		return nil, fmt.Errorf("activity text is required")
	}
	if activity.ConversationID == "" {
		return nil, fmt.Errorf("conversation_id is required")
	}

	if b.dedupe != nil && activity.ID != "" {
		key := activity.ChannelID + ":" + activity.ID
		if b.dedupe.Seen(key) {
			b.logger.Debug("duplicate activity ignored",
				"channel", activity.ChannelID,
				"activity_id", activity.ID)
			return nil, nil
		}
	}

	unlock := b.lockConversation(activity.conversationKey())
	defer unlock()

	out, err := b.runTurn(ctx, activity)
	if err != nil {
		b.logger.Error("turn failed", "error", err,
			"conversation", activity.ConversationID,
			"activity_id", activity.ID)
		return []Outgoing{{ID: uuid.New().String(), Text: errorNotice}}, nil
	}
	return out, nil
}

func (b *Bot) runTurn(ctx context.Context, activity *Activity) ([]Outgoing, error) {
	st, err := state.Load(ctx, b.storage, activity.conversationKey(), activity.userKey())
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}

	var plan *planner.Plan
	if len(st.Conversation.History) == 0 {
		plan, err = b.planner.BeginTask(ctx, activity.Text, st)
	} else {
		plan, err = b.planner.ContinueTask(ctx, activity.Text, st)
	}
	if err != nil {
		return nil, fmt.Errorf("planning turn: %w", err)
	}

	out := make([]Outgoing, 0, len(plan.Commands))
	for _, cmd := range plan.Commands {
		if cmd.Type != planner.CommandSay || cmd.Response == nil {
			continue
		}
		out = append(out, Outgoing{
			ID:   uuid.New().String(),
			Text: cmd.Response.Content,
			HTML: render.Markdown(cmd.Response.Content),
		})
	}

	if err := st.Save(ctx, b.storage); err != nil {
		// The reply is already generated; prefer delivering it over failing
		// the whole turn. The next turn reloads the last persisted state.
		b.logger.Error("saving state failed", "error", err,
			"conversation", activity.ConversationID)
	}

	return out, nil
}

// History returns the persisted conversation history for a conversation key.
func (b *Bot) History(ctx context.Context, conversationKey, userKey string) (*state.TurnState, error) {
	return state.Load(ctx, b.storage, conversationKey, userKey)
}

func (b *Bot) lockConversation(key string) func() {
	b.lockMu.Lock()
	mu, ok := b.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		b.locks[key] = mu
	}
	b.lockMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func (a *Activity) conversationKey() string {
	if a.ChannelID != "" {
		return a.ChannelID + "/" + a.ConversationID
	}
	return a.ConversationID
}

func (a *Activity) userKey() string {
	if a.ChannelID != "" {
		return a.ChannelID + "/" + a.UserID
	}
	return a.UserID
}
