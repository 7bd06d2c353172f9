package embcache

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return m.result, nil
}

// mockCache implements the consumer interface for tests.
type mockCache struct {
	entries map[string][]float32
	puts    int
}

func (m *mockCache) Get(text string) ([]float32, bool) {
	vec, ok := m.entries[text]
	return vec, ok
}

func (m *mockCache) Put(text string, vec []float32) {
	m.puts++
	if m.entries == nil {
		m.entries = make(map[string][]float32)
	}
	m.entries[text] = vec
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder) (*CachedEmbedder, *mockCache) {
	t.Helper()
	mc := &mockCache{entries: make(map[string][]float32)}
	ce := New(inner, mc, nil, zap.NewNop())
	return ce, mc
}
