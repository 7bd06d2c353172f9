package query

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

func TestAsk_Answered(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}}
	repo := &mockSearchRepo{chunks: testChunks()}
	gen := &mockGenerator{answer: "Robots move using actuators."}
	svc := newTestService(emb, repo, gen)

	result, err := svc.Ask(context.Background(), Request{Question: "How do robots move?"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if result.Answer != "Robots move using actuators." {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
	if result.Outcome != OutcomeAnswered {
		t.Errorf("expected answered outcome, got %s", result.Outcome)
	}
	if repo.lastK != 5 {
		t.Errorf("expected top_k=5, got %d", repo.lastK)
	}
	if len(result.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(result.Sources))
	}
	if result.Sources[0].Chapter != "03 → actuators" || result.Sources[0].Section != "Chunk 0" {
		t.Errorf("unexpected source: %+v", result.Sources[0])
	}
	if len(gen.lastReq.Contexts) != 2 {
		t.Errorf("expected 2 contexts, got %d", len(gen.lastReq.Contexts))
	}
	if gen.lastReq.Contexts[0] != "Actuators convert energy into motion." {
		t.Errorf("contexts must follow retrieval order, got %q first", gen.lastReq.Contexts[0])
	}
}

func TestAsk_EmptyQuestion(t *testing.T) {
	emb := &mockEmbedder{}
	repo := &mockSearchRepo{}
	gen := &mockGenerator{}
	svc := newTestService(emb, repo, gen)

	for _, q := range []string{"", "   ", "\n\t "} {
		_, err := svc.Ask(context.Background(), Request{Question: q})
		if !errors.Is(err, domain.ErrEmptyQuestion) {
			t.Errorf("question %q: expected ErrEmptyQuestion, got %v", q, err)
		}
	}

	if emb.calls != 0 || repo.calls != 0 || gen.calls != 0 {
		t.Errorf("empty question must not touch any adapter: embed=%d search=%d generate=%d",
			emb.calls, repo.calls, gen.calls)
	}
}

func TestAsk_QuestionTrimmedBeforeEmbedding(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	repo := &mockSearchRepo{chunks: testChunks()}
	gen := &mockGenerator{answer: "ok"}
	svc := newTestService(emb, repo, gen)

	_, err := svc.Ask(context.Background(), Request{Question: "  What is a servo?  "})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if gen.lastReq.Question != "What is a servo?" {
		t.Errorf("expected trimmed question in prompt, got %q", gen.lastReq.Question)
	}
}

func TestAsk_EmbedFailure(t *testing.T) {
	emb := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	repo := &mockSearchRepo{}
	gen := &mockGenerator{}
	svc := newTestService(emb, repo, gen)

	result, err := svc.Ask(context.Background(), Request{Question: "valid question"})
	if err != nil {
		t.Fatalf("embed failure must not surface as error: %v", err)
	}

	if result.Answer != AnswerEmbedFailed {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
	if result.Outcome != OutcomeEmbedFailed {
		t.Errorf("expected embed_failed outcome, got %s", result.Outcome)
	}
	if result.Sources == nil || len(result.Sources) != 0 {
		t.Errorf("expected empty non-nil sources, got %#v", result.Sources)
	}
	if repo.calls != 0 || gen.calls != 0 {
		t.Errorf("embed failure must skip search and generation: search=%d generate=%d",
			repo.calls, gen.calls)
	}
}

func TestAsk_NoContext(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	repo := &mockSearchRepo{chunks: nil}
	gen := &mockGenerator{}
	svc := newTestService(emb, repo, gen)

	result, err := svc.Ask(context.Background(), Request{Question: "unknown topic"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if result.Answer != AnswerNoContext {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
	if result.Outcome != OutcomeNoContext {
		t.Errorf("expected no_context outcome, got %s", result.Outcome)
	}
	if gen.calls != 0 {
		t.Errorf("no retrieved context must skip generation, got %d calls", gen.calls)
	}
}

func TestAsk_SelectedTextIsFirstContext(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	repo := &mockSearchRepo{chunks: testChunks()}
	gen := &mockGenerator{answer: "ok"}
	svc := newTestService(emb, repo, gen)

	_, err := svc.Ask(context.Background(), Request{
		Question:     "Explain this",
		SelectedText: "A servo is a closed-loop actuator.",
	})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if len(gen.lastReq.Contexts) != 3 {
		t.Fatalf("expected selected text plus 2 chunks, got %d contexts", len(gen.lastReq.Contexts))
	}
	if gen.lastReq.Contexts[0] != "A servo is a closed-loop actuator." {
		t.Errorf("selected text must be the first context, got %q", gen.lastReq.Contexts[0])
	}
}

func TestAsk_SelectedTextWithoutSearchResults(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	repo := &mockSearchRepo{chunks: nil}
	gen := &mockGenerator{answer: "Based on your selection, it is a servo."}
	svc := newTestService(emb, repo, gen)

	result, err := svc.Ask(context.Background(), Request{
		Question:     "What is this?",
		SelectedText: "A servo is a closed-loop actuator.",
	})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if gen.calls != 1 {
		t.Fatalf("selected text alone must still reach the generator, got %d calls", gen.calls)
	}
	if result.Answer != "Based on your selection, it is a servo." {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
	if len(result.Sources) != 0 {
		t.Errorf("selected text is not a citation, got %d sources", len(result.Sources))
	}
}

func TestAsk_SelectedTextTrimmed(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	repo := &mockSearchRepo{chunks: testChunks()}
	gen := &mockGenerator{answer: "ok"}
	svc := newTestService(emb, repo, gen)

	_, err := svc.Ask(context.Background(), Request{
		Question:     "Explain this",
		SelectedText: "  A servo is a closed-loop actuator.\n",
	})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if gen.lastReq.Contexts[0] != "A servo is a closed-loop actuator." {
		t.Errorf("expected trimmed selected text as first context, got %q", gen.lastReq.Contexts[0])
	}
}

func TestAsk_WhitespaceSelectedTextIsNoContext(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	repo := &mockSearchRepo{chunks: nil}
	gen := &mockGenerator{answer: "should never run"}
	svc := newTestService(emb, repo, gen)

	result, err := svc.Ask(context.Background(), Request{
		Question:     "What is this?",
		SelectedText: "   \n\t",
	})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if gen.calls != 0 {
		t.Errorf("blank selection with no retrieved chunks must skip generation, got %d calls", gen.calls)
	}
	if result.Answer != AnswerNoContext {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
	if result.Outcome != OutcomeNoContext {
		t.Errorf("expected no_context outcome, got %s", result.Outcome)
	}
}

func TestAsk_SourcesCapped(t *testing.T) {
	chunks := make([]domain.Chunk, 8)
	for i := range chunks {
		chunks[i] = domain.Chunk{Text: "t", Chapter: "c", Index: i, Score: 1 - float64(i)/10}
	}
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	repo := &mockSearchRepo{chunks: chunks}
	gen := &mockGenerator{answer: "ok"}
	svc := newTestService(emb, repo, gen)

	result, err := svc.Ask(context.Background(), Request{Question: "q"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if len(result.Sources) != 5 {
		t.Errorf("expected sources capped at 5, got %d", len(result.Sources))
	}
}

func TestAsk_GeneratorRateLimited(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	repo := &mockSearchRepo{chunks: testChunks()}
	gen := &mockGenerator{err: domain.ErrRateLimited}
	svc := newTestService(emb, repo, gen)

	result, err := svc.Ask(context.Background(), Request{Question: "q"})
	if err != nil {
		t.Fatalf("rate limit must not surface as error: %v", err)
	}
	if result.Answer != AnswerRateLimited {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
	if result.Outcome != OutcomeAnswerFailed {
		t.Errorf("expected answer_failed outcome, got %s", result.Outcome)
	}
	if len(result.Sources) != 2 {
		t.Errorf("sources must still accompany a degraded answer, got %d", len(result.Sources))
	}
	if !result.RateLimited {
		t.Error("expected rate limited flag set")
	}
}

func TestAsk_GeneratorFailure(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	repo := &mockSearchRepo{chunks: testChunks()}
	gen := &mockGenerator{err: domain.ErrChatProviderError}
	svc := newTestService(emb, repo, gen)

	result, err := svc.Ask(context.Background(), Request{Question: "q"})
	if err != nil {
		t.Fatalf("generator failure must not surface as error: %v", err)
	}
	if result.Answer != AnswerGenerateFail {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
}

func TestAsk_HistoryAndBackgroundForwarded(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	repo := &mockSearchRepo{chunks: testChunks()}
	gen := &mockGenerator{answer: "ok"}
	svc := newTestService(emb, repo, gen)

	history := []domain.Message{{Role: domain.RoleUser, Content: "earlier question"}}
	_, err := svc.Ask(context.Background(), Request{
		Question:   "follow-up",
		History:    history,
		Background: "hardware",
	})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if len(gen.lastReq.History) != 1 || gen.lastReq.History[0].Content != "earlier question" {
		t.Errorf("history not forwarded: %+v", gen.lastReq.History)
	}
	if gen.lastReq.Background != "hardware" {
		t.Errorf("background not forwarded: %q", gen.lastReq.Background)
	}
}
