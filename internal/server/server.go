// Package server exposes the agent over HTTP/JSON, mirroring what the CLI
// offers: chat, streaming chat, history management and agent info.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saurabhnalepatil/free-ai-model-project/internal/agent"
	"github.com/saurabhnalepatil/free-ai-model-project/internal/config"
	"github.com/saurabhnalepatil/free-ai-model-project/internal/history"
	"github.com/saurabhnalepatil/free-ai-model-project/internal/logger"
	"github.com/saurabhnalepatil/free-ai-model-project/internal/provider"
	"github.com/saurabhnalepatil/free-ai-model-project/pkg/tools"
)

// Server holds one agent per chat session. Each session's turn cycle is
// sequential; sessions are independent of each other.
type Server struct {
	cfg   *config.Config
	store *history.Store
	tools *tools.Manager

	mu     sync.Mutex
	agents map[string]*agent.Agent
}

// New creates a server. The tool manager is shared across sessions; tools
// hold no conversation state.
func New(cfg *config.Config, store *history.Store, tm *tools.Manager) *Server {
	return &Server{
		cfg:    cfg,
		store:  store,
		tools:  tm,
		agents: make(map[string]*agent.Agent),
	}
}

// agentFor returns the session's agent, creating it on first use. An empty
// session id gets a fresh one.
func (s *Server) agentFor(sessionID string) (*agent.Agent, string, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.agents[sessionID]; ok {
		return a, sessionID, nil
	}

	p, err := provider.New(s.cfg.LLM)
	if err != nil {
		return nil, "", err
	}
	a := agent.New(p, s.tools, s.store, s.cfg, sessionID)
	s.agents[sessionID] = a
	return a, sessionID, nil
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/chat/stream", s.handleChatStream)
	mux.HandleFunc("POST /api/clear", s.handleClear)
	mux.HandleFunc("GET /api/info", s.handleInfo)
	mux.HandleFunc("POST /api/save", s.handleSave)
	return mux
}

// ListenAndServe starts the server on the configured address.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%s", s.cfg.Server.Host, s.cfg.Server.Port)
	logger.L.Info("starting web server", "address", addr)
	return http.ListenAndServe(addr, s.Handler())
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"success": false, "error": err.Error()})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("no message provided"))
		return
	}

	a, sessionID, err := s.agentFor(req.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	response, err := a.Chat(r.Context(), req.Message)
	if err != nil {
		logger.L.Error("chat failed", "session", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"response":   response,
		"session_id": sessionID,
	})
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("no message provided"))
		return
	}

	a, sessionID, err := s.agentFor(req.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Session-Id", sessionID)

	err = a.ChatStream(r.Context(), req.Message, func(chunk string) error {
		if _, err := fmt.Fprintf(w, "data: %s\n\n", chunk); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		logger.L.Error("stream failed", "session", sessionID, "error", err)
		fmt.Fprintf(w, "data: Error: %v\n\n", err)
		flusher.Flush()
	}
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	a, sessionID, err := s.agentFor(req.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.ClearHistory()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "session_id": sessionID})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	a, _, err := s.agentFor(r.URL.Query().Get("session_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Info())
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	a, _, err := s.agentFor(req.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	filename := fmt.Sprintf("conversation_%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join("conversations", filename)
	if err := os.MkdirAll("conversations", 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := a.SaveConversation(path); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "filepath": path})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}
