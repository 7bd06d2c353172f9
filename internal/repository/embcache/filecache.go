// Package embcache caches query embeddings on local disk so that repeated
// questions never hit the embedding provider twice.
package embcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileStore is a JSON-file-backed embedding cache keyed by exact text.
// The whole cache is loaded into memory at startup; every Put persists
// the full map via a temp file and atomic rename.
type FileStore struct {
	path   string
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string][]float32
}

// NewFileStore opens the cache at path, loading existing entries if the
// file exists. A missing file is not an error; a corrupt file is logged
// and replaced on the next Put.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	fs := &FileStore{
		path:    path,
		logger:  logger,
		entries: make(map[string][]float32),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, fmt.Errorf("read cache file %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &fs.entries); err != nil {
		logger.Warn("Embedding cache file is corrupt, starting empty",
			zap.String("path", path),
			zap.Error(err),
		)
		fs.entries = make(map[string][]float32)
	}

	return fs, nil
}

// Get returns the cached vector for text, if present.
func (fs *FileStore) Get(text string) ([]float32, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	vec, ok := fs.entries[text]
	return vec, ok
}

// Put stores the vector for text and persists the cache to disk.
// A persistence failure keeps the in-memory entry and is logged,
// not returned: a cold cache on restart beats a failed request.
func (fs *FileStore) Put(text string, vec []float32) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.entries[text] = vec

	if err := fs.persistLocked(); err != nil {
		fs.logger.Warn("Failed to persist embedding cache",
			zap.String("path", fs.path),
			zap.Error(err),
		)
	}
}

// Len returns the number of cached entries.
func (fs *FileStore) Len() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.entries)
}

// persistLocked writes the cache atomically. Caller holds fs.mu.
func (fs *FileStore) persistLocked() error {
	data, err := json.Marshal(fs.entries)
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	dir := filepath.Dir(fs.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(fs.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, fs.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
