// Package geminillm generates answers through the Google GenAI API.
package geminillm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

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
	genAI        *genai.Client
	model        string
	temperature  float32
	systemPrompt string
	policy       retry.Policy
}

func New(ctx context.Context, cfg Config) (llm.Provider, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &client{
		genAI:        c,
		model:        cfg.Model,
		temperature:  float32(cfg.Temperature),
		systemPrompt: cfg.SystemPrompt,
		policy:       cfg.Policy,
	}, nil
}

func (c *client) Generate(ctx context.Context, pc prompt.Context) (string, error) {
	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: c.systemPrompt}},
		},
		Temperature: genai.Ptr(c.temperature),
	}

	var answer string
	err := c.policy.Do(ctx, transient, func(ctx context.Context) error {
		result, err := c.genAI.Models.GenerateContent(ctx, c.model, genai.Text(prompt.Render(pc)), contentConfig)
		if err != nil {
			return err
		}
		if result == nil {
			return errors.New("empty generation result")
		}
		answer = result.Text()
		return nil
	})
	if err != nil {
		return "", &domain.GenerationError{Err: err}
	}
	return answer, nil
}

func transient(err error) bool {
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.ResourceExhausted, codes.Unavailable, codes.DeadlineExceeded:
			return true
		}
	}
	return false
}
