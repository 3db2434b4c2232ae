package proxy

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"agentdeck/internal/chat"
	"agentdeck/internal/i18n"
)

// ChatRequest is the JSON body for POST /api/chat.
type ChatRequest struct {
	Messages []ChatRequestMessage `json:"messages"`
}

// ChatRequestMessage is one entry of the inbound message history.
type ChatRequestMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionResponse is returned by GET /api/chat/sessions/{session_id}.
type SessionResponse struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Messages []chat.Message `json:"messages"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ErrorResponse is returned on errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleChat handles POST /api/chat. The reply streams back as line frames;
// an unreachable upstream degrades to a canned message embedding the user
// text, so the consumer always receives a well-formed stream.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Messages) == 0 {
		s.writeError(w, http.StatusBadRequest, "messages is required")
		return
	}

	userText := lastUserText(req.Messages)
	if strings.TrimSpace(userText) == "" {
		s.writeError(w, http.StatusBadRequest, "no user message in history")
		return
	}

	reply, err := s.upstream.Reply(r.Context(), userText)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			s.logger.Error("upstream reply failed", "error", err)
		}
		reply = i18n.T("proxy.fallback", userText)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	// 整段回复编码为单个帧 / The whole reply goes out as a single frame.
	_, _ = w.Write([]byte(chat.EncodeTextFrame(reply)))
	if fl, ok := w.(http.Flusher); ok {
		fl.Flush()
	}
}

// handleListSessions handles GET /api/chat/sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "session storage disabled")
		return
	}
	metas, err := s.store.ListSessions()
	if err != nil {
		s.logger.Error("list sessions failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "list sessions failed")
		return
	}
	respondJSON(w, http.StatusOK, metas)
}

// handleGetSession handles GET /api/chat/sessions/{session_id}.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "session storage disabled")
		return
	}
	sessionID := chi.URLParam(r, "session_id")
	meta, err := s.store.LoadSession(sessionID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	messages, err := s.store.LoadMessages(sessionID)
	if err != nil {
		s.logger.Error("load messages failed", "session_id", sessionID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "load messages failed")
		return
	}
	respondJSON(w, http.StatusOK, SessionResponse{ID: meta.ID, Title: meta.Title, Messages: messages})
}

// handleHealthz handles GET /healthz.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, ErrorResponse{Error: msg})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// lastUserText returns the content of the most recent user message.
func lastUserText(messages []ChatRequestMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == chat.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
