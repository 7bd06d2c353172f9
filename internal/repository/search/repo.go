// Package search retrieves textbook chunks by vector similarity.
package search

import (
	"context"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain"
)

// returnFields are the chunk payload fields requested from the index.
var returnFields = []string{"text", "chapter", "file", "chunk_index", "__vector_score"}

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements usecase/query.SearchRepo over a vector index.
type Repo struct {
	store     store
	indexName string
	logger    *zap.Logger
}

// New creates a search repository over the named index.
func New(s store, indexName string, logger *zap.Logger) *Repo {
	return &Repo{store: s, indexName: indexName, logger: logger}
}

// TopChunks returns up to topK chunks most similar to vector, ordered by
// non-increasing similarity score. Retrieval is best-effort: any store
// failure degrades to an empty result rather than failing the request.
func (r *Repo) TopChunks(ctx context.Context, vector []float32, topK int) []domain.Chunk {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName,
		Vector:       vector,
		K:            topK,
		ReturnFields: returnFields,
	})
	if err != nil {
		r.logger.Warn("Vector search failed, returning no context",
			zap.String("index", r.indexName),
			zap.Error(err),
		)
		return nil
	}

	return parseChunks(sr)
}

// parseChunks converts db.SearchResult into ordered []domain.Chunk.
// Missing payload fields default to zero values instead of failing the result.
func parseChunks(sr *db.SearchResult) []domain.Chunk {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	chunks := make([]domain.Chunk, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		chunks = append(chunks, entryToChunk(entry))
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})
	return chunks
}

func entryToChunk(entry db.SearchEntry) domain.Chunk {
	chunk := domain.Chunk{
		Text:    entry.Fields["text"],
		Chapter: entry.Fields["chapter"],
		File:    entry.Fields["file"],
		Score:   entry.Score,
	}
	if raw, ok := entry.Fields["chunk_index"]; ok {
		if idx, err := strconv.Atoi(raw); err == nil {
			chunk.Index = idx
		}
	}
	return chunk
}
