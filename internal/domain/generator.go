package domain

import "context"

// GenerateRequest carries everything the answer generator folds into the prompt.
type GenerateRequest struct {
	Question   string
	Contexts   []string  // retrieval-ordered passages; first entry may be user-selected text
	History    []Message // optional prior conversation turns
	Background string    // optional user background note (software/hardware)
}

// Generator produces a grounded answer from retrieved passages.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
