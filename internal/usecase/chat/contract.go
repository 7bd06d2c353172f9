package chat

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/usecase/query"
)

// HistoryRepo persists bounded per-session conversation history.
type HistoryRepo interface {
	Load(ctx context.Context, sessionID string) ([]domain.Message, error)
	Append(ctx context.Context, sessionID string, messages ...domain.Message) ([]domain.Message, error)
	Clear(ctx context.Context, sessionID string) error
}

// Asker answers a single question with retrieval context.
type Asker interface {
	Ask(ctx context.Context, req query.Request) (query.Result, error)
}
