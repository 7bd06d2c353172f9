package search

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	result *db.SearchResult
	err    error
	lastQ  *db.KNNQuery
}

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.lastQ = q
	return m.result, m.err
}

func entry(key string, score float64, text, chapter, file, idx string) db.SearchEntry {
	return db.SearchEntry{
		Key:   key,
		Score: score,
		Fields: map[string]string{
			"text":        text,
			"chapter":     chapter,
			"file":        file,
			"chunk_index": idx,
		},
	}
}

func TestRepo_TopChunks(t *testing.T) {
	ms := &mockStore{result: &db.SearchResult{
		Total: 2,
		Entries: []db.SearchEntry{
			entry("ragdex:chunk:1", 0.92, "Actuators convert energy.", "01 → intro", "01/intro.md", "0"),
			entry("ragdex:chunk:2", 0.85, "Joints connect links.", "01 → intro", "01/intro.md", "3"),
		},
	}}
	repo := New(ms, "book_chunks_1024", zap.NewNop())

	chunks := repo.TopChunks(context.Background(), []float32{0.1, 0.2}, 5)

	if ms.lastQ.IndexName != "book_chunks_1024" {
		t.Errorf("unexpected index name: %s", ms.lastQ.IndexName)
	}
	if ms.lastQ.K != 5 {
		t.Errorf("expected K=5, got %d", ms.lastQ.K)
	}

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "Actuators convert energy." {
		t.Errorf("unexpected first chunk: %+v", chunks[0])
	}
	if chunks[0].Chapter != "01 → intro" {
		t.Errorf("unexpected chapter: %q", chunks[0].Chapter)
	}
	if chunks[1].Index != 3 {
		t.Errorf("expected chunk index 3, got %d", chunks[1].Index)
	}
}

func TestRepo_TopChunks_OrderedByScore(t *testing.T) {
	ms := &mockStore{result: &db.SearchResult{
		Total: 3,
		Entries: []db.SearchEntry{
			entry("k1", 0.5, "low", "c", "f", "0"),
			entry("k2", 0.9, "high", "c", "f", "1"),
			entry("k3", 0.7, "mid", "c", "f", "2"),
		},
	}}
	repo := New(ms, "idx", zap.NewNop())

	chunks := repo.TopChunks(context.Background(), []float32{1}, 3)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Score > chunks[i-1].Score {
			t.Errorf("chunks not ordered by non-increasing score: %v then %v",
				chunks[i-1].Score, chunks[i].Score)
		}
	}
	if chunks[0].Text != "high" {
		t.Errorf("expected highest score first, got %q", chunks[0].Text)
	}
}

func TestRepo_TopChunks_MissingFieldsDefault(t *testing.T) {
	ms := &mockStore{result: &db.SearchResult{
		Total: 1,
		Entries: []db.SearchEntry{
			{Key: "k1", Score: 0.8, Fields: map[string]string{"text": "only text"}},
		},
	}}
	repo := New(ms, "idx", zap.NewNop())

	chunks := repo.TopChunks(context.Background(), []float32{1}, 5)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Chapter != "" || c.File != "" || c.Index != 0 {
		t.Errorf("missing fields must default to zero values: %+v", c)
	}
}

func TestRepo_TopChunks_ErrorDegradesToEmpty(t *testing.T) {
	ms := &mockStore{err: errors.New("connection refused")}
	repo := New(ms, "idx", zap.NewNop())

	chunks := repo.TopChunks(context.Background(), []float32{1}, 5)
	if len(chunks) != 0 {
		t.Fatalf("store error must degrade to empty result, got %d chunks", len(chunks))
	}
}

func TestRepo_TopChunks_EmptyResult(t *testing.T) {
	ms := &mockStore{result: &db.SearchResult{Total: 0}}
	repo := New(ms, "idx", zap.NewNop())

	if chunks := repo.TopChunks(context.Background(), []float32{1}, 5); len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}
