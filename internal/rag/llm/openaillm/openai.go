// Package openaillm generates answers through the OpenAI chat
// completions API.
package openaillm

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"ragline/internal/domain"
	"ragline/internal/rag/llm"
	"ragline/internal/rag/prompt"
	"ragline/internal/retry"
)

type Config struct {
	APIKey       string
	Model        string
	Temperature  float64
	SystemPrompt string
	Policy       retry.Policy
}

type client struct {
	api          openai.Client
	model        string
	temperature  float64
	systemPrompt string
	policy       retry.Policy
}

func New(cfg Config) llm.Provider {
	return &client{
		api:          openai.NewClient(option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)),
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		systemPrompt: cfg.SystemPrompt,
		policy:       cfg.Policy,
	}
}

func (c *client) Generate(ctx context.Context, pc prompt.Context) (string, error) {
	var answer string
	err := c.policy.Do(ctx, transient, func(ctx context.Context) error {
		resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: shared.ChatModel(c.model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(c.systemPrompt),
				openai.UserMessage(prompt.Render(pc)),
			},
			Temperature: openai.Float(c.temperature),
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("completion returned no choices")
		}
		answer = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", &domain.GenerationError{Err: err}
	}
	return answer, nil
}

func transient(err error) bool {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return apierr.StatusCode == http.StatusTooManyRequests || apierr.StatusCode >= 500
	}
	return false
}
