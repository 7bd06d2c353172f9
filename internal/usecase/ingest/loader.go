package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// loadChunks walks root for markdown files and chunks their contents.
// Files are visited in path order so chunk keys are stable between runs.
func loadChunks(root string) ([]domain.Chunk, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".mdx":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)

	var chunks []domain.Chunk
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil, fmt.Errorf("relativize %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)

		for i, text := range chunkText(string(data)) {
			chunks = append(chunks, domain.Chunk{
				Text:    text,
				Chapter: chapterLabel(rel),
				File:    rel,
				Index:   i,
			})
		}
	}

	return chunks, nil
}

// chapterLabel derives a human-readable chapter from the relative path:
// extension stripped, path separators rendered as breadcrumbs.
// "01-intro/overview.md" becomes "01-intro → overview".
func chapterLabel(relPath string) string {
	label := strings.TrimSuffix(relPath, filepath.Ext(relPath))
	return strings.ReplaceAll(label, "/", " → ")
}
