// Package geminiembed embeds text through the Google GenAI API.
package geminiembed

import (
	"context"
	"fmt"

	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ragline/internal/rag/embedding"
)

type Config struct {
	APIKey    string
	Model     string
	Dimension int
}

type client struct {
	genAI     *genai.Client
	model     string
	dimension int32
}

func New(ctx context.Context, cfg Config) (embedding.Provider, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &client{genAI: c, model: cfg.Model, dimension: int32(cfg.Dimension)}, nil
}

func (c *client) Dimension() int { return int(c.dimension) }

func (c *client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: text}},
		})
	}

	result, err := c.genAI.Models.EmbedContent(ctx, c.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &c.dimension,
		TaskType:             "RETRIEVAL_DOCUMENT",
	})
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, 0, len(result.Embeddings))
	for _, e := range result.Embeddings {
		vectors = append(vectors, e.Values)
	}
	return vectors, nil
}

func (c *client) Transient(err error) bool {
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.ResourceExhausted, codes.Unavailable, codes.DeadlineExceeded:
			return true
		}
	}
	return false
}
