// Package httprerank talks to a rerank service exposing the common
// POST /v1/rerank shape (Jina, Cohere and mxbai-compatible servers).
package httprerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"ragline/internal/domain"
	"ragline/internal/httpclient"
	"ragline/internal/rag/rerank"
)

type Config struct {
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type Client struct {
	url    string
	apiKey string
	model  string
	http   *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		http:   httpclient.Pooled(timeout),
	}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float32 `json:"relevance_score"`
	} `json:"results"`
}

func (c *Client) Rerank(ctx context.Context, query string, candidates []domain.RetrievalResult) ([]domain.RerankedResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	documents := make([]string, len(candidates))
	for i, cand := range candidates {
		documents[i] = cand.Text
	}

	body, err := json.Marshal(rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: documents,
		TopN:      len(documents),
	})
	if err != nil {
		return nil, &domain.RerankError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.RerankError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.RerankError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.RerankError{Err: fmt.Errorf("rerank service returned %s", resp.Status)}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.RerankError{Err: err}
	}
	var parsed rerankResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, &domain.RerankError{Err: err}
	}

	// the response must score every candidate exactly once; a service
	// that adds or drops documents is a protocol violation
	if len(parsed.Results) != len(candidates) {
		return nil, &domain.RerankError{
			Err: fmt.Errorf("service scored %d of %d candidates", len(parsed.Results), len(candidates)),
		}
	}
	scores := make([]float32, len(candidates))
	seen := make([]bool, len(candidates))
	for _, r := range parsed.Results {
		if r.Index < 0 || r.Index >= len(candidates) || seen[r.Index] {
			return nil, &domain.RerankError{Err: fmt.Errorf("invalid candidate index %d in response", r.Index)}
		}
		seen[r.Index] = true
		scores[r.Index] = r.RelevanceScore
	}

	return Order(candidates, scores), nil
}

// Order builds the reranked list from per-candidate relevance scores,
// sorting by descending relevance with ties kept in retrieval order.
func Order(candidates []domain.RetrievalResult, scores []float32) []domain.RerankedResult {
	ranked := make([]domain.RerankedResult, len(candidates))
	for i, cand := range candidates {
		ranked[i] = domain.RerankedResult{
			RecordID:  cand.RecordID,
			Text:      cand.Text,
			Metadata:  cand.Metadata,
			Relevance: scores[i],
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Relevance > ranked[j].Relevance
	})
	return ranked
}

var _ rerank.Reranker = (*Client)(nil)
