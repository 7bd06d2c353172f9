package domain

import "errors"

var (
	// ErrEmptyQuestion signals a blank question after trimming.
	ErrEmptyQuestion = errors.New("question cannot be empty")
	// ErrRateLimited signals a provider rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrChatProviderError signals an answer generation provider failure.
	ErrChatProviderError = errors.New("chat provider error")
	// ErrUnrecognizedShape signals an embedding response that matched no known layout.
	ErrUnrecognizedShape = errors.New("unrecognized embedding response shape")
	// ErrSessionNotFound signals a missing conversation session.
	ErrSessionNotFound = errors.New("session not found")
)
