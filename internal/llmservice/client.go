package llmservice

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"policy-rag/internal/config"
)

// NewModel builds the chat completion client for the configured endpoint.
func NewModel(cfg *config.LLMConfig) (llms.Model, error) {
	httpClient := &http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second}

	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	return openai.New(opts...)
}

// Generate performs one non-streaming completion at temperature zero and
// returns the raw text of the first choice.
func Generate(ctx context.Context, model llms.Model, prompt string) (string, error) {
	log.Debug().Int("prompt_len", len(prompt)).Msg("calling model")

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	res, err := model.GenerateContent(ctx, messages, llms.WithTemperature(0))
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", nil
	}
	return res.Choices[0].Content, nil
}
