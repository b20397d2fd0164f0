// Package openaiembed embeds text through the OpenAI embeddings API.
package openaiembed

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"ragline/internal/rag/embedding"
)

type Config struct {
	APIKey    string
	Model     string
	Dimension int
}

type client struct {
	api       openai.Client
	model     string
	dimension int
}

// New returns an embedding.Provider backed by OpenAI. SDK-internal
// retries are disabled; the shared retry policy owns backoff.
func New(cfg Config) embedding.Provider {
	return &client{
		api:       openai.NewClient(option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)),
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}
}

func (c *client) Dimension() int { return c.dimension }

func (c *client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: openai.Int(int64(c.dimension)),
	})
	if err != nil {
		return nil, err
	}

	return vectorsFromData(len(texts), resp.Data)
}

// vectorsFromData reassembles the response by its reported index; the
// API does not guarantee response order. Every input must come back
// with a vector or the whole batch fails.
func vectorsFromData(n int, data []openai.Embedding) ([][]float32, error) {
	vectors := make([][]float32, n)
	for _, d := range data {
		if d.Index < 0 || int(d.Index) >= n {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vectors[d.Index] = vec
	}

	missing := 0
	for _, vec := range vectors {
		if vec == nil {
			missing++
		}
	}
	if missing > 0 {
		return nil, fmt.Errorf("embedding response missing %d of %d vectors", missing, n)
	}
	return vectors, nil
}

// Transient reports whether the call is worth retrying: rate limits,
// server errors and timeouts are; auth and invalid-input errors fail
// immediately.
func (c *client) Transient(err error) bool {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return apierr.StatusCode == http.StatusTooManyRequests || apierr.StatusCode >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}
