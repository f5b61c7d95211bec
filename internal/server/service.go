// Package server exposes the chat core over a local HTTP JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"lochat/internal/chat"
	"lochat/internal/ollama"
	"lochat/internal/store"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

// DefaultAddr is the default listen address for the API.
const DefaultAddr = "127.0.0.1:8171"

// defaultMessageLimit caps /api/messages responses when the client does
// not pass an explicit limit.
const defaultMessageLimit = 200

// Config controls the server runtime behavior.
type Config struct {
	Addr string
}

// Service serves the session, message and chat endpoints.
type Service struct {
	cfg   Config
	store *store.Store
	chat  *chat.Service
	log   *zap.Logger
}

// New returns a server over the given store and orchestrator.
func New(cfg Config, st *store.Store, chatSvc *chat.Service, log *zap.Logger) *Service {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{cfg: cfg, store: st, chat: chatSvc, log: log}
}

// Handler returns the HTTP handler serving all routes, wrapped with CORS
// so browser front ends on other local ports can call the API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("POST /api/sessions/rename", s.handleRenameSession)
	mux.HandleFunc("GET /api/messages", s.handleListMessages)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/system", s.handleSetSystem)
	mux.HandleFunc("DELETE /api/system", s.handleClearSystem)

	return cors.Default().Handler(s.logRequests(mux))
}

// Run serves the API until ctx is canceled, then shuts down gracefully.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.log.Info("api listening", zap.String("addr", s.cfg.Addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	}
}

func (s *Service) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	sessions, err := s.store.ListSessions()
	if err != nil {
		s.log.Error("listing sessions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "listing sessions failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Service) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.store.CreateSession(req.Title)
	if err != nil {
		s.log.Error("creating session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "creating session failed")
		return
	}

	title := req.Title
	if title == "" {
		title = store.DefaultSessionTitle
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "title": title})
}

func (s *Service) handleRenameSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID int64  `json:"session_id"`
		Title     string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch err := s.store.RenameSession(req.SessionID, req.Title); {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case err != nil:
		s.log.Error("renaming session", zap.Int64("session", req.SessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "renaming session failed")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": req.SessionID, "title": req.Title})
	}
}

func (s *Service) handleListMessages(w http.ResponseWriter, r *http.Request) {
	sessionID, err := queryInt64(r, "session_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	limit := defaultMessageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	msgs, err := s.store.ReadOrdered(sessionID, limit)
	if err != nil {
		s.log.Error("reading messages", zap.Int64("session", sessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "reading messages failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (s *Service) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID int64  `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "session_id and text are required")
		return
	}

	reply, err := s.chat.Ask(r.Context(), req.SessionID, req.Text, "", "api")
	if errors.Is(err, ollama.ErrUnavailable) {
		// The user message is already committed; only the reply failed.
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if err != nil {
		s.log.Error("chat turn", zap.Int64("session", req.SessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "chat turn failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Service) handleSetSystem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID int64  `json:"session_id"`
		Prompt    string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "session_id and prompt are required")
		return
	}

	if err := s.store.SetSystemPrompt(req.SessionID, req.Prompt); err != nil {
		s.log.Error("setting system prompt", zap.Int64("session", req.SessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "setting system prompt failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Service) handleClearSystem(w http.ResponseWriter, r *http.Request) {
	sessionID, err := queryInt64(r, "session_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	if err := s.store.ClearSystemPrompts(sessionID); err != nil {
		s.log.Error("clearing system prompts", zap.Int64("session", sessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "clearing system prompts failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func queryInt64(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
}
