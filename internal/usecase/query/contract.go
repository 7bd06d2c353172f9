package query

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Embedder vectorizes the question text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// SearchRepo retrieves the most similar textbook chunks. Implementations
// degrade to an empty slice on retrieval failure.
type SearchRepo interface {
	TopChunks(ctx context.Context, vector []float32, topK int) []domain.Chunk
}
