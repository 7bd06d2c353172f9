package ingest

import "strings"

// Chunking parameters, tuned for textbook prose.
const (
	chunkWords   = 220
	overlapWords = 40
	minChunkLen  = 30 // chars; shorter fragments carry no retrievable signal
)

// splitWords breaks text into whitespace-separated words.
func splitWords(text string) []string {
	return strings.Fields(text)
}

// chunkText slides a fixed word window over text with overlap between
// consecutive windows. Fragments below minChunkLen characters are skipped.
func chunkText(text string) []string {
	words := splitWords(text)
	if len(words) == 0 {
		return nil
	}

	step := chunkWords - overlapWords
	var chunks []string

	for start := 0; start < len(words); start += step {
		end := start + chunkWords
		if end > len(words) {
			end = len(words)
		}

		chunk := strings.Join(words[start:end], " ")
		if len(chunk) >= minChunkLen {
			chunks = append(chunks, chunk)
		}

		if end == len(words) {
			break
		}
	}

	return chunks
}
