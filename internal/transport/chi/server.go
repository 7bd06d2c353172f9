// Package chi exposes the question-answering pipeline over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	chatuc "github.com/kailas-cloud/ragdex/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
	queryuc "github.com/kailas-cloud/ragdex/internal/usecase/query"
)

// banner is the root endpoint body, used by the frontend as a liveness probe.
const banner = "Physical AI & Humanoid Robotics RAG Chatbot Backend is running!"

// Error codes in JSON error bodies.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeSessionNotFound  = "session_not_found"
	codeInternalError    = "internal_error"
)

// Server holds the HTTP handlers.
type Server struct {
	query  *queryuc.Service
	chat   *chatuc.Service
	health *healthuc.Service
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	query *queryuc.Service,
	chat *chatuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{query: query, chat: chat, health: health, logger: logger}
}

// Routes registers all endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.Root)
	r.Get("/health", s.Health)
	r.Post("/query", s.Query)
	r.Post("/chat", s.Chat)
	r.Get("/history", s.History)
	r.Delete("/history", s.ClearHistory)
	r.Get("/metrics", s.Metrics)
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": banner})
}

// Health handles GET /health. A degraded report is 503 so load balancers
// rotate the instance out.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{
		Status: string(report.Status),
		Checks: report.Checks,
	})
}

// Query handles POST /query: one-shot question answering.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.query.Ask(r.Context(), queryuc.Request{
		Question:     req.Question,
		SelectedText: req.SelectedText,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Answer:  result.Answer,
		Sources: result.Sources,
		Meta: queryMeta{
			RateLimited: result.RateLimited,
			ChatFailed:  result.Outcome == queryuc.OutcomeAnswerFailed,
			SourceCount: len(result.Sources),
		},
	})
}

// Chat handles POST /chat: a conversational turn inside a session.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.chat.Chat(r.Context(), chatuc.Request{
		SessionID:    req.SessionID,
		Question:     req.Query,
		SelectedText: req.SelectedText,
		Software:     req.Software,
		Hardware:     req.Hardware,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	history := result.History
	if history == nil {
		history = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: result.SessionID,
		Answer:    result.Answer,
		Sources:   result.Sources,
		History:   history,
	})
}

// History handles GET /history?session_id=...
func (s *Server) History(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "session_id is required")
		return
	}

	history, err := s.chat.History(r.Context(), sessionID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if history == nil {
		history = []domain.Message{}
	}

	writeJSON(w, http.StatusOK, historyResponse{SessionID: sessionID, History: history})
}

// ClearHistory handles DELETE /history?session_id=...
func (s *Server) ClearHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "session_id is required")
		return
	}

	if err := s.chat.ClearHistory(r.Context(), sessionID); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// --- Wire DTOs ---

type queryRequest struct {
	Question     string `json:"question"`
	SelectedText string `json:"selected_text,omitempty"`
}

type queryResponse struct {
	Answer  string          `json:"answer"`
	Sources []domain.Source `json:"sources"`
	Meta    queryMeta       `json:"meta"`
}

type queryMeta struct {
	RateLimited bool `json:"rate_limited,omitempty"`
	ChatFailed  bool `json:"chat_failed,omitempty"`
	SourceCount int  `json:"source_count"`
}

type chatRequest struct {
	SessionID    string `json:"session_id,omitempty"`
	Query        string `json:"query"`
	SelectedText string `json:"selected_text,omitempty"`
	Software     string `json:"software,omitempty"`
	Hardware     string `json:"hardware,omitempty"`
}

type chatResponse struct {
	SessionID string           `json:"session_id"`
	Answer    string           `json:"answer"`
	Sources   []domain.Source  `json:"sources"`
	History   []domain.Message `json:"conversation_history"`
}

type historyResponse struct {
	SessionID string           `json:"session_id"`
	History   []domain.Message `json:"history"`
}

type healthResponse struct {
	Status string                          `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyQuestion):
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Question cannot be empty")
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, codeSessionNotFound, "session not found")
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
