package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"github.com/dimensionhq/neura/internal/config"
	"github.com/dimensionhq/neura/internal/model"
)

const openAIName = "openai"

// OpenAIGenerator talks to the chat completions API, or to any gateway that
// speaks the same protocol when a base URL is configured.
type OpenAIGenerator struct {
	client *openai.Client
	model  model.Model
	logger *slog.Logger
}

func NewOpenAIGenerator(cfg config.ProviderConfig, apiKey string, m model.Model, logger *slog.Logger) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s is not set; run `neura init` or export it", config.APIKeyVar)
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("initializing openai client", "model", m.Code(), "base_url", clientCfg.BaseURL, "api_key_present", true)
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  m,
		logger: logger,
	}, nil
}

func (o *OpenAIGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	m := req.Model
	if m == "" {
		m = o.model
	}
	chatReq := openai.ChatCompletionRequest{
		Model: m.Code(),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		o.logger.Error("chat completion failed", "model", m.Code(), "error", err)
		return Response{}, transportError(openAIName, err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, transportError(openAIName, fmt.Errorf("no choices returned"))
	}
	o.logger.Debug("chat completion received", "finish_reason", resp.Choices[0].FinishReason, "completion_tokens", resp.Usage.CompletionTokens)

	raw := resp.Choices[0].Message.Content
	plan, err := Decode(raw)
	if err != nil {
		return Response{Raw: raw}, decodeError(openAIName, raw, err)
	}
	return Response{Plan: plan, Raw: raw}, nil
}

// HealthCheck lists models, which authenticates without spending tokens.
func (o *OpenAIGenerator) HealthCheck(ctx context.Context) error {
	if _, err := o.client.ListModels(ctx); err != nil {
		return transportError(openAIName, err)
	}
	return nil
}
