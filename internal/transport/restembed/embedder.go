// Package restembed implements the embedding provider contract over a bare
// JSON-over-HTTP endpoint for providers without an OpenAI-compatible API.
// Response layouts differ between such providers, so parsing runs through an
// explicit parser chain instead of ad-hoc shape sniffing.
package restembed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// Embedder calls a plain HTTP embedding endpoint.
type Embedder struct {
	endpoint       string
	apiKey         string
	model          string
	httpClient     *http.Client
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *zap.Logger
}

// Config holds the REST embedding provider settings.
type Config struct {
	Endpoint       string
	APIKey         string
	Model          string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	Logger         *zap.Logger
}

// New creates a REST embedding provider.
func New(cfg *Config) *Embedder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	retryBaseDelay := cfg.RetryBaseDelay
	if retryBaseDelay <= 0 {
		retryBaseDelay = 500 * time.Millisecond
	}

	return &Embedder{
		endpoint:       cfg.Endpoint,
		apiKey:         cfg.APIKey,
		model:          cfg.Model,
		httpClient:     &http.Client{Timeout: timeout},
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		logger:         cfg.Logger,
	}
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: res.Embeddings[0]}, nil
}

// BatchEmbed implements domain.BatchEmbedder. HTTP 429 is retried with
// exponential backoff up to maxRetries attempts, then surfaces as
// domain.ErrRateLimited.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	payload, err := json.Marshal(map[string]any{
		"model": e.model,
		"input": texts,
	})
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("marshal request: %w", err)
	}

	var body []byte
	delay := e.retryBaseDelay
	for attempt := 1; ; attempt++ {
		var status int
		body, status, err = e.post(ctx, payload)
		if err != nil {
			metrics.EmbeddingRequestsTotal.WithLabelValues("rest", e.model, "error").Inc()
			return domain.BatchEmbeddingResult{}, fmt.Errorf("embed request: %w: %v", domain.ErrEmbeddingProviderError, err)
		}

		if status == http.StatusOK {
			break
		}

		metrics.EmbeddingRequestsTotal.WithLabelValues("rest", e.model, "error").Inc()

		if status != http.StatusTooManyRequests {
			metrics.EmbeddingErrorsTotal.WithLabelValues("rest", e.model, "api_error").Inc()
			return domain.BatchEmbeddingResult{}, fmt.Errorf(
				"embedding API error %d: %s: %w", status, truncate(body, 400), domain.ErrEmbeddingProviderError)
		}

		if attempt >= e.maxRetries {
			metrics.EmbeddingErrorsTotal.WithLabelValues("rest", e.model, "rate_limited").Inc()
			return domain.BatchEmbeddingResult{}, fmt.Errorf("embedding API error 429: %w", domain.ErrRateLimited)
		}

		e.logger.Warn("Embedding provider rate limited, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)
		select {
		case <-ctx.Done():
			return domain.BatchEmbeddingResult{}, fmt.Errorf("embedding retry: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	embeddings, err := parseEmbeddings(body)
	if err != nil {
		metrics.EmbeddingErrorsTotal.WithLabelValues("rest", e.model, "parse_error").Inc()
		return domain.BatchEmbeddingResult{}, err
	}

	if len(embeddings) != len(texts) {
		metrics.EmbeddingErrorsTotal.WithLabelValues("rest", e.model, "empty_response").Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf(
			"expected %d embeddings, got %d: %w", len(texts), len(embeddings), domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues("rest", e.model, "success").Inc()
	return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
}

func (e *Embedder) post(ctx context.Context, payload []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.EmbeddingRequestDuration.WithLabelValues("rest", e.model).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}

// --- Parser chain ---

// shapeParser attempts one known response layout. It returns ok=false when
// the layout does not apply, letting the next parser try.
type shapeParser func(body []byte) (vectors [][]float32, ok bool)

// parsers are tried in order; the first match wins.
var parsers = []shapeParser{
	parseDataObjects,   // {"data":[{"embedding":[...]}, ...]}
	parseEmbeddingList, // {"embeddings":[[...], ...]}
	parseSingleVector,  // {"embedding":[...]}
}

// parseEmbeddings normalizes any known provider response layout into a list
// of vectors, or fails with domain.ErrUnrecognizedShape.
func parseEmbeddings(body []byte) ([][]float32, error) {
	for _, parse := range parsers {
		if vectors, ok := parse(body); ok {
			return vectors, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnrecognizedShape, truncate(body, 200))
}

func parseDataObjects(body []byte) ([][]float32, bool) {
	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if json.Unmarshal(body, &parsed) != nil || len(parsed.Data) == 0 {
		return nil, false
	}
	vectors := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		if len(d.Embedding) == 0 {
			return nil, false
		}
		vectors[i] = d.Embedding
	}
	return vectors, true
}

func parseEmbeddingList(body []byte) ([][]float32, bool) {
	var parsed struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if json.Unmarshal(body, &parsed) != nil || len(parsed.Embeddings) == 0 {
		return nil, false
	}
	return parsed.Embeddings, true
}

func parseSingleVector(body []byte) ([][]float32, bool) {
	var parsed struct {
		Embedding []float32 `json:"embedding"`
	}
	if json.Unmarshal(body, &parsed) != nil || len(parsed.Embedding) == 0 {
		return nil, false
	}
	return [][]float32{parsed.Embedding}, true
}
