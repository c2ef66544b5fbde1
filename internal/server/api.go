// ABOUTME: HTTP API exposing the webhook endpoint and conversation history
// ABOUTME: POST /api/messages runs one turn; replies are returned as JSON

package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/2389/chatbridge/internal/auth"
	"github.com/2389/chatbridge/internal/bot"
)

// MessagesResponse is the JSON response for POST /api/messages.
type MessagesResponse struct {
	Replies []bot.Outgoing `json:"replies"`
}

// HistoryMessage is one entry in the history response.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryResponse is the JSON response for GET /api/conversations/{id}/history.
type HistoryResponse struct {
	ConversationID string           `json:"conversation_id"`
	Messages       []HistoryMessage `json:"messages"`
}

// Server wires the bot into HTTP handlers.
type Server struct {
	bot      *bot.Bot
	verifier auth.TokenVerifier
	logger   *slog.Logger
}

// New creates a Server. A nil verifier disables authentication.
func New(b *bot.Bot, verifier auth.TokenVerifier, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		bot:      b,
		verifier: verifier,
		logger:   logger.With("component", "server"),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/messages", s.handleMessages)
	api.HandleFunc("GET /api/conversations/{id}/history", s.handleHistory)

	var protected http.Handler = api
	if s.verifier != nil {
		protected = auth.Middleware(s.verifier)(api)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("/api/", protected)
	return mux
}

// handleMessages handles the channel webhook. Each request carries one
// activity; the response carries the replies the channel adapter should
// deliver.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	var activity bot.Activity
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.logger.Debug("activity received",
		"channel", activity.ChannelID,
		"conversation", activity.ConversationID,
		"activity_id", activity.ID)

	replies, err := s.bot.ProcessActivity(r.Context(), &activity)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, MessagesResponse{Replies: replies})
}

// handleHistory returns the persisted history for a conversation. The
// channel query parameter must match the one the activities carried.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("id")
	channel := r.URL.Query().Get("channel")

	key := conversationID
	if channel != "" {
		key = channel + "/" + conversationID
	}

	st, err := s.bot.History(r.Context(), key, "")
	if err != nil {
		s.logger.Error("loading history failed", "error", err, "conversation", conversationID)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	resp := HistoryResponse{
		ConversationID: conversationID,
		Messages:       make([]HistoryMessage, 0, len(st.Conversation.History)),
	}
	for _, msg := range st.Conversation.History {
		resp.Messages = append(resp.Messages, HistoryMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
