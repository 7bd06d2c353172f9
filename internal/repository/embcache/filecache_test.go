package embcache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embedding_cache.json")

	fs, err := NewFileStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if _, ok := fs.Get("missing"); ok {
		t.Error("empty store must not report hits")
	}

	fs.Put("hello world", []float32{0.1, 0.2, 0.3})

	vec, ok := fs.Get("hello world")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if len(vec) != 3 || vec[1] != 0.2 {
		t.Errorf("unexpected vector: %v", vec)
	}
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embedding_cache.json")

	fs, err := NewFileStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	fs.Put("persisted question", []float32{1, 2, 3, 4})

	reopened, err := NewFileStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	vec, ok := reopened.Get("persisted question")
	if !ok {
		t.Fatal("expected entry to survive reopen")
	}
	if len(vec) != 4 {
		t.Errorf("unexpected vector after reopen: %v", vec)
	}
}

func TestFileStore_CacheFileIsValidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embedding_cache.json")

	fs, err := NewFileStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	fs.Put("a", []float32{0.5})
	fs.Put("b", []float32{0.6, 0.7})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cache file: %v", err)
	}

	var parsed map[string][]float32
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("cache file is not valid JSON: %v", err)
	}
	if len(parsed) != 2 {
		t.Errorf("expected 2 entries on disk, got %d", len(parsed))
	}
}

func TestFileStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embedding_cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	fs, err := NewFileStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("corrupt file must not fail open: %v", err)
	}
	if fs.Len() != 0 {
		t.Errorf("expected empty store, got %d entries", fs.Len())
	}
}
