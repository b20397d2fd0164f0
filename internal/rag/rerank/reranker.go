// Package rerank rescores retrieval candidates with a cross-encoder
// model. A failed rerank is recoverable: the orchestrator falls back to
// the retrieval ordering instead of failing the query.
package rerank

import (
	"context"

	"ragline/internal/domain"
)

// Reranker reorders the candidate set by relevance to the query. The
// result is always a permutation of the input: nothing added, nothing
// dropped. Equal relevance keeps the original retrieval order.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []domain.RetrievalResult) ([]domain.RerankedResult, error)
}
