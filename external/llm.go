// Package external talks to services outside the chain: the language model
// behind the analysis endpoints.
package external

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/types"
)

const DefaultModel = openai.GPT4oMini

// Completer returns the model's reply to a system and user prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

type openAIClient struct {
	client *openai.Client
	model  string
	lgr    *zap.Logger
}

func NewLLM(cfg LLMConfig) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	lgr := cfg.Logger
	if lgr == nil {
		lgr = zap.NewNop()
	}
	return &openAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		lgr:    lgr.With(zap.String("llm", model)),
	}, nil
}

func (c *openAIClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
	})
	if err != nil {
		c.lgr.Warn("Chat completion failed", zap.Error(err))
		return "", types.ErrExternalService.With(err, "language model request failed")
	}
	if len(resp.Choices) == 0 {
		return "", types.ErrExternalService.With(nil, "language model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
