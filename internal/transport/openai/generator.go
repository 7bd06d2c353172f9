package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// systemPrompt pins the model to the retrieved passages. The literal fallback
// phrase is part of the product contract with the frontend.
const systemPrompt = "You are an expert assistant specialized in Physical AI & Humanoid Robotics. " +
	"Answer the user's question using ONLY the information contained in the provided passages. " +
	"Be precise, technical, and concise. If the answer is not present in the passages, reply: " +
	`"I don't know based on the textbook."`

// noContextAnswer is returned without calling the model when there is nothing
// to ground an answer on.
const noContextAnswer = "I'm sorry, I couldn't find relevant information or the API rate limit was reached."

// Generator produces answers via an OpenAI-compatible chat completion API.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// GeneratorConfig holds the chat provider settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	Logger      *zap.Logger
}

// NewGenerator creates an OpenAI-compatible answer generator.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.3
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}

	return &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      cfg.Logger,
	}
}

// Generate builds the grounded prompt and calls the chat model. An empty
// context list short-circuits with a fixed answer and never reaches the
// provider.
func (g *Generator) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	if len(req.Contexts) == 0 {
		return noContextAnswer, nil
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)

	system := systemPrompt
	if req.Background != "" {
		system += "\nUser background: " + req.Background
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})

	for _, m := range req.History {
		role := openai.ChatMessageRoleUser
		if m.Role == domain.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: buildUserPrompt(req.Contexts, req.Question),
	})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues(g.model, "error").Inc()
		return "", parseChatError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.ChatRequestsTotal.WithLabelValues(g.model, "error").Inc()
		return "", fmt.Errorf("empty chat response: %w", domain.ErrChatProviderError)
	}

	metrics.ChatRequestsTotal.WithLabelValues(g.model, "success").Inc()
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// buildUserPrompt renders passages as numbered blocks in retrieval order.
func buildUserPrompt(contexts []string, question string) string {
	blocks := make([]string, len(contexts))
	for i, c := range contexts {
		blocks[i] = fmt.Sprintf("Passage %d:\n%s", i+1, c)
	}
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s\nAnswer:", strings.Join(blocks, "\n\n"), question)
}

// parseChatError maps provider failures to domain sentinels.
func parseChatError(err error) error {
	wrap := domain.ErrChatProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			wrap = domain.ErrRateLimited
		}
		return fmt.Errorf("chat API error %d: %w", reqErr.HTTPStatusCode, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			wrap = domain.ErrRateLimited
		}
		return fmt.Errorf("chat API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("chat request failed: %w", wrap)
}
