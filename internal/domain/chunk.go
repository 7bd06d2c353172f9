package domain

import "strconv"

// Chunk is one retrievable unit of the textbook corpus. Created during
// ingestion, immutable afterwards; Score is attached by the vector index
// at query time and never stored.
type Chunk struct {
	Text    string
	Chapter string
	File    string
	Index   int
	Score   float64
}

// Source is a citation record derived from a retrieved chunk.
type Source struct {
	Chapter string `json:"chapter"`
	Section string `json:"section,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Source maps the chunk to its citation, labeling the section by ordinal.
func (c Chunk) Source() Source {
	return Source{
		Chapter: c.Chapter,
		Section: "Chunk " + strconv.Itoa(c.Index),
	}
}

// SourcesFromChunks maps chunks to citations, capped at limit entries.
func SourcesFromChunks(chunks []Chunk, limit int) []Source {
	if limit > len(chunks) {
		limit = len(chunks)
	}
	sources := make([]Source, 0, limit)
	for _, c := range chunks[:limit] {
		sources = append(sources, c.Source())
	}
	return sources
}
