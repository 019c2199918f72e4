// Package openai generates answers through the Azure OpenAI chat
// completion API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/dsc-chiba-u/flexrag/internal/domain"
	"github.com/dsc-chiba-u/flexrag/internal/metrics"
)

const defaultAPIVersion = "2024-02-15-preview"

// systemPrompt embeds the question and the assembled sources; the prompt
// allows reasonable inference from the sources rather than demanding a
// literal match.
const systemPrompt = `You are a knowledgeable assistant.
Answer the user's question using the sources below.
If the sources do not answer the question directly but support a reasonable inference, share that inference.
Only say that no information was found when the sources contain nothing relevant.
Keep the answer concise and accurate.

Question: %s

Sources:
%s`

const userPrompt = "What can you tell from this information?"

// Generator is an answer generation provider using Azure OpenAI.
type Generator struct {
	client     *openai.Client
	deployment string
	logger     *zap.Logger
}

// Config holds the generation provider settings.
type Config struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
	Logger     *zap.Logger
}

// NewGenerator creates an Azure OpenAI chat-completion generator.
func NewGenerator(cfg *Config) *Generator {
	clientCfg := openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
	if cfg.APIVersion != "" {
		clientCfg.APIVersion = cfg.APIVersion
	} else {
		clientCfg.APIVersion = defaultAPIVersion
	}
	deployment := cfg.Deployment
	clientCfg.AzureModelMapperFunc = func(string) string { return deployment }

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		client:     openai.NewClientWithConfig(clientCfg),
		deployment: deployment,
		logger:     logger,
	}
}

// Generate produces an answer to the question conditioned on the assembled
// sources. A single attempt; all failures wrap domain.ErrGeneration.
func (g *Generator) Generate(
	ctx context.Context, question, sources string, temperature float32, maxTokens int,
) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.deployment,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(systemPrompt, question, sources)},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	start := time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.deployment, "error").Inc()
		return "", parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(g.deployment, "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrGeneration)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.deployment, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.deployment).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(g.deployment, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.GenerationTokensTotal.WithLabelValues(g.deployment, "completion").Add(float64(resp.Usage.CompletionTokens))
		metrics.GenerationTokensTotal.WithLabelValues(g.deployment, "total").Add(float64(resp.Usage.TotalTokens))
	}

	g.logger.Debug("answer generated",
		zap.String("deployment", g.deployment),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("latency", duration),
	)
	return resp.Choices[0].Message.Content, nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrGeneration.
func parseAPIError(err error) error {
	wrap := domain.ErrGeneration

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractMessage(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("completion API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("completion API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("completion request failed: %v: %w", err, wrap)
}

// extractMessage pulls the nested error message from a JSON error body.
func extractMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return ""
}
