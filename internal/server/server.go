// Package server exposes the assistant and its conversation memory over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/itspaulthegreat/ai-customer-service-bot/internal/assistant"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/logger"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/memory"
)

const (
	maxBodyBytes   = 64 * 1024
	archiveLimit   = 20
	defaultTimeout = 10 * time.Second
)

// Chatter produces a reply for a customer message.
type Chatter interface {
	Handle(ctx context.Context, userID, text string) (string, error)
}

// TranscriptReader reads archived conversations back.
type TranscriptReader interface {
	ForUser(ctx context.Context, userID string, limit int) ([]memory.Transcript, error)
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type Server struct {
	cfg     Config
	chat    Chatter
	memory  *memory.Store
	archive TranscriptReader
	checks  map[string]HealthChecker
	started time.Time
}

func New(cfg Config, chat Chatter, store *memory.Store) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultTimeout
	}

	return &Server{
		cfg:     cfg,
		chat:    chat,
		memory:  store,
		checks:  make(map[string]HealthChecker),
		started: time.Now(),
	}
}

// SetArchive enables GET /conversation/{userID}/archive.
func (s *Server) SetArchive(reader TranscriptReader) {
	s.archive = reader
}

func (s *Server) AddHealthCheck(name string, check HealthChecker) {
	s.checks[name] = check
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /conversation/{userID}", s.handleHistory)
	mux.HandleFunc("DELETE /conversation/{userID}", s.handleClear)
	mux.HandleFunc("GET /conversation/{userID}/archive", s.handleArchive)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	return withCORS(withRequestID(mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type chatResponse struct {
	Response  string `json:"response"`
	UserID    string `json:"user_id,omitempty"`
	RequestID string `json:"request_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	requestID := requestIDFrom(r.Context())
	logger.Info("chat request", "request_id", requestID, "user", req.UserID, "chars", len(req.Message))

	response, err := s.chat.Handle(r.Context(), req.UserID, req.Message)
	if err != nil {
		logger.Error("chat failed", "request_id", requestID, "user", req.UserID, "error", err)
		response = assistant.FallbackReply
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:  response,
		UserID:    req.UserID,
		RequestID: requestID,
	})
}

type historyResponse struct {
	UserID       string           `json:"user_id"`
	History      []memory.Message `json:"history"`
	MessageCount int              `json:"message_count"`
	Context      string           `json:"context"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	var history []memory.Message
	if last := r.URL.Query().Get("last"); last != "" {
		n, err := strconv.Atoi(last)
		if err != nil {
			writeError(w, http.StatusBadRequest, "last must be an integer")
			return
		}
		history = s.memory.LastMessages(userID, n)
	} else {
		history = s.memory.History(userID)
	}

	writeJSON(w, http.StatusOK, historyResponse{
		UserID:       userID,
		History:      history,
		MessageCount: len(history),
		Context:      s.memory.ConversationContext(userID, 0),
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	cleared := s.memory.ClearSession(userID)

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"cleared": cleared,
	})
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, "transcript archive is disabled")
		return
	}

	userID := r.PathValue("userID")
	transcripts, err := s.archive.ForUser(r.Context(), userID, archiveLimit)
	if err != nil {
		logger.Error("archive lookup failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "archive lookup failed")
		return
	}
	if transcripts == nil {
		transcripts = []memory.Transcript{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":     userID,
		"transcripts": transcripts,
		"count":       len(transcripts),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "AI customer service bot with conversation memory",
		"endpoints": map[string]string{
			"POST /chat":                         "Main conversation endpoint",
			"GET /conversation/{userID}":         "Get conversation history (?last=N)",
			"DELETE /conversation/{userID}":      "Clear conversation history",
			"GET /conversation/{userID}/archive": "Archived conversations",
			"GET /health":                        "System health check",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
