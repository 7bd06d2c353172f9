// Package query orchestrates a question through embedding, retrieval, and
// answer generation.
package query

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// Fixed user-facing answers. Provider failures degrade to one of these with
// an otherwise successful response; only an empty question is a caller error.
const (
	AnswerEmbedFailed  = "Embedding failed or service unavailable. Please try again later."
	AnswerNoContext    = "No relevant passages found in the textbook."
	AnswerRateLimited  = "API rate limit reached. Please try again in a few seconds."
	AnswerGenerateFail = "Sorry, there was an issue generating the answer. Please try again."
)

// Outcome labels the terminal state of a query.
type Outcome string

const (
	OutcomeAnswered      Outcome = "answered"
	OutcomeEmptyQuestion Outcome = "empty_question"
	OutcomeEmbedFailed   Outcome = "embed_failed"
	OutcomeNoContext     Outcome = "no_context"
	OutcomeAnswerFailed  Outcome = "answer_failed"
)

// Request is a single question with optional context hints.
type Request struct {
	Question     string
	SelectedText string           // user-highlighted passage, used as the first context
	History      []domain.Message // prior conversation turns
	Background   string           // user background note (software/hardware)
}

// Result is the answer with its supporting sources.
type Result struct {
	Answer      string
	Sources     []domain.Source
	Outcome     Outcome
	RateLimited bool // a provider answered 429 on this request
}

// Service runs the query pipeline: validate, embed, search, generate.
type Service struct {
	embedder   Embedder
	repo       SearchRepo
	generator  domain.Generator
	topK       int
	maxSources int
	logger     *zap.Logger
}

// New creates a query service.
func New(
	embedder Embedder,
	repo SearchRepo,
	generator domain.Generator,
	topK, maxSources int,
	logger *zap.Logger,
) *Service {
	if topK <= 0 {
		topK = 5
	}
	if maxSources <= 0 {
		maxSources = 5
	}
	return &Service{
		embedder:   embedder,
		repo:       repo,
		generator:  generator,
		topK:       topK,
		maxSources: maxSources,
		logger:     logger,
	}
}

// Ask answers a question from the textbook corpus.
//
// Only an empty question returns an error. Every provider failure past
// validation resolves to a fixed answer so the caller always gets a
// well-formed response.
func (s *Service) Ask(ctx context.Context, req Request) (Result, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		s.finish(OutcomeEmptyQuestion)
		return Result{}, domain.ErrEmptyQuestion
	}

	emb, err := s.embedder.Embed(ctx, question)
	if err != nil {
		s.logger.Warn("Question embedding failed", zap.Error(err))
		s.finish(OutcomeEmbedFailed)
		return Result{
			Answer:      AnswerEmbedFailed,
			Sources:     []domain.Source{},
			Outcome:     OutcomeEmbedFailed,
			RateLimited: errors.Is(err, domain.ErrRateLimited),
		}, nil
	}

	chunks := s.repo.TopChunks(ctx, emb.Embedding, s.topK)
	metrics.RetrievedChunks.Observe(float64(len(chunks)))

	contexts := make([]string, 0, len(chunks)+1)
	if selected := strings.TrimSpace(req.SelectedText); selected != "" {
		contexts = append(contexts, selected)
	}
	for _, c := range chunks {
		contexts = append(contexts, c.Text)
	}

	sources := domain.SourcesFromChunks(chunks, s.maxSources)

	if len(contexts) == 0 {
		s.finish(OutcomeNoContext)
		return Result{Answer: AnswerNoContext, Sources: []domain.Source{}, Outcome: OutcomeNoContext}, nil
	}

	answer, err := s.generator.Generate(ctx, domain.GenerateRequest{
		Question:   question,
		Contexts:   contexts,
		History:    req.History,
		Background: req.Background,
	})
	if err != nil {
		s.logger.Warn("Answer generation failed", zap.Error(err))
		s.finish(OutcomeAnswerFailed)
		if errors.Is(err, domain.ErrRateLimited) {
			return Result{
				Answer:      AnswerRateLimited,
				Sources:     sources,
				Outcome:     OutcomeAnswerFailed,
				RateLimited: true,
			}, nil
		}
		return Result{Answer: AnswerGenerateFail, Sources: sources, Outcome: OutcomeAnswerFailed}, nil
	}

	s.finish(OutcomeAnswered)
	return Result{Answer: answer, Sources: sources, Outcome: OutcomeAnswered}, nil
}

func (s *Service) finish(outcome Outcome) {
	metrics.QueryOutcomesTotal.WithLabelValues(string(outcome)).Inc()
}
