// Package chat adds session-scoped conversation state on top of the query
// pipeline.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/usecase/query"
)

// Request is one conversational turn.
type Request struct {
	SessionID    string // empty starts a new session
	Question     string
	SelectedText string
	Software     string // self-reported software experience
	Hardware     string // self-reported hardware experience
}

// Result is the answer bound to its session.
type Result struct {
	SessionID string
	Answer    string
	Sources   []domain.Source
	History   []domain.Message // transcript including this turn
}

// Service runs conversational turns with per-session history.
type Service struct {
	asker   Asker
	history HistoryRepo
	logger  *zap.Logger
}

// New creates a chat service.
func New(asker Asker, history HistoryRepo, logger *zap.Logger) *Service {
	return &Service{asker: asker, history: history, logger: logger}
}

// Chat answers a question inside a session, folding prior turns into the
// prompt and recording the new exchange. A missing session id starts a
// fresh session with a server-issued id.
func (s *Service) Chat(ctx context.Context, req Request) (Result, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	history, err := s.history.Load(ctx, sessionID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		history = nil
	case err != nil:
		// A broken transcript degrades to a fresh conversation.
		s.logger.Warn("Failed to load session history",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		history = nil
	}

	result, err := s.asker.Ask(ctx, query.Request{
		Question:     req.Question,
		SelectedText: req.SelectedText,
		History:      history,
		Background:   background(req.Software, req.Hardware),
	})
	if err != nil {
		return Result{}, fmt.Errorf("chat turn: %w", err)
	}

	now := time.Now().UTC()
	turn := []domain.Message{
		{Role: domain.RoleUser, Content: strings.TrimSpace(req.Question), Timestamp: now},
		{Role: domain.RoleAssistant, Content: result.Answer, Timestamp: now},
	}
	updated, err := s.history.Append(ctx, sessionID, turn...)
	if err != nil {
		// The answer is already produced; losing one transcript entry is
		// not worth failing the request.
		s.logger.Warn("Failed to persist session history",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		updated = history
		for _, m := range turn {
			updated = domain.AppendBounded(updated, m, domain.DefaultHistoryCapacity)
		}
	}

	return Result{
		SessionID: sessionID,
		Answer:    result.Answer,
		Sources:   result.Sources,
		History:   updated,
	}, nil
}

// History returns the session transcript, oldest first. An unknown session
// surfaces domain.ErrSessionNotFound.
func (s *Service) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	history, err := s.history.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return history, nil
}

// ClearHistory wipes the session transcript.
func (s *Service) ClearHistory(ctx context.Context, sessionID string) error {
	if err := s.history.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// background renders the self-reported experience fields into one prompt note.
func background(software, hardware string) string {
	var parts []string
	if software = strings.TrimSpace(software); software != "" {
		parts = append(parts, "software experience: "+software)
	}
	if hardware = strings.TrimSpace(hardware); hardware != "" {
		parts = append(parts, "hardware experience: "+hardware)
	}
	return strings.Join(parts, ", ")
}
