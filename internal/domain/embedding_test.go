package domain

import (
	"context"
	"errors"
	"testing"
)

type fakeEmbedder struct {
	lastText string
	texts    []string
	err      error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	f.lastText = text
	f.texts = append(f.texts, text)
	if f.err != nil {
		return EmbeddingResult{}, f.err
	}
	return EmbeddingResult{Embedding: []float32{1}, TotalTokens: 1}, nil
}

func TestInstructionEmbedder_PrependsInstruction(t *testing.T) {
	inner := &fakeEmbedder{}
	emb := NewInstructionEmbedder(inner, "search_query: ")

	if _, err := emb.Embed(context.Background(), "how do robots walk"); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if inner.lastText != "search_query: how do robots walk" {
		t.Errorf("unexpected embedded text: %q", inner.lastText)
	}
}

func TestInstructionEmbedder_ErrorPropagation(t *testing.T) {
	inner := &fakeEmbedder{err: ErrEmbeddingProviderError}
	emb := NewInstructionEmbedder(inner, "p: ")

	if _, err := emb.Embed(context.Background(), "x"); !errors.Is(err, ErrEmbeddingProviderError) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestInstructionEmbedder_BatchFallback(t *testing.T) {
	inner := &fakeEmbedder{}
	emb := NewInstructionEmbedder(inner, "doc: ")

	res, err := emb.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("BatchEmbed failed: %v", err)
	}
	if len(res.Embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(res.Embeddings))
	}
	if inner.texts[0] != "doc: a" || inner.texts[1] != "doc: b" {
		t.Errorf("unexpected batch texts: %v", inner.texts)
	}
	if res.TotalTokens != 2 {
		t.Errorf("expected aggregated token count, got %d", res.TotalTokens)
	}
}

func TestAppendBounded(t *testing.T) {
	var history []Message
	for i := 0; i < 10; i++ {
		history = AppendBounded(history, Message{Role: RoleUser, Content: string(rune('a' + i))}, 7)
	}
	if len(history) != 7 {
		t.Fatalf("expected capacity of 7, got %d", len(history))
	}
	if history[0].Content != "d" {
		t.Errorf("expected oldest evicted, got %q first", history[0].Content)
	}
	if history[6].Content != "j" {
		t.Errorf("expected newest last, got %q", history[6].Content)
	}
}

func TestSourcesFromChunks(t *testing.T) {
	chunks := []Chunk{
		{Chapter: "01 → intro", Index: 2},
		{Chapter: "02 → motion", Index: 0},
	}

	sources := SourcesFromChunks(chunks, 5)
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].Chapter != "01 → intro" || sources[0].Section != "Chunk 2" {
		t.Errorf("unexpected source: %+v", sources[0])
	}

	if got := SourcesFromChunks(chunks, 1); len(got) != 1 {
		t.Errorf("expected capped sources, got %d", len(got))
	}
}
