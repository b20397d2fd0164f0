package embedding

import (
	"context"
	"fmt"
	"sync"

	"ragline/internal/domain"
	"ragline/internal/retry"
	"ragline/pkg/logx"
)

// Provider is the raw embedding call implemented by each backend. It
// embeds one batch that already fits the provider's batch-size limit.
type Provider interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Transient(err error) bool
	Dimension() int
}

// Batcher splits large inputs into provider-sized batches, runs them
// with a bounded number of concurrent calls, retries transient failures
// and reassembles the results in input order. One failed batch fails
// the whole call; partial results are never returned.
type Batcher struct {
	prov      Provider
	batchSize int
	workers   int
	policy    retry.Policy
	logger    *logx.Logger
}

func NewBatcher(prov Provider, batchSize, workers int, policy retry.Policy, component string) *Batcher {
	if batchSize <= 0 {
		batchSize = 100
	}
	if workers <= 0 {
		workers = 1
	}
	return &Batcher{
		prov:      prov,
		batchSize: batchSize,
		workers:   workers,
		policy:    policy,
		logger:    logx.New(component),
	}
}

func (b *Batcher) Dimension() int { return b.prov.Dimension() }

func (b *Batcher) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := b.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (b *Batcher) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	type span struct{ from, to int }
	var spans []span
	for from := 0; from < len(texts); from += b.batchSize {
		to := from + b.batchSize
		if to > len(texts) {
			to = len(texts)
		}
		spans = append(spans, span{from, to})
	}

	results := make([][][]float32, len(spans))
	errs := make([]error, len(spans))

	sem := make(chan struct{}, b.workers)
	var wg sync.WaitGroup
	for i, sp := range spans {
		wg.Add(1)
		go func(i int, sp span) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			var vectors [][]float32
			err := b.policy.Do(ctx, b.prov.Transient, func(ctx context.Context) error {
				var callErr error
				vectors, callErr = b.prov.EmbedBatch(ctx, texts[sp.from:sp.to])
				return callErr
			})
			if err != nil {
				errs[i] = &domain.EmbeddingError{From: sp.from, To: sp.to, Err: err}
				return
			}
			if len(vectors) != sp.to-sp.from {
				errs[i] = &domain.EmbeddingError{
					From: sp.from, To: sp.to,
					Err: fmt.Errorf("provider returned %d vectors for %d inputs", len(vectors), sp.to-sp.from),
				}
				return
			}
			results[i] = vectors
		}(i, sp)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			b.logger.Error("embedding batch failed", "error", err)
			return nil, err
		}
	}

	out := make([][]float32, 0, len(texts))
	dim := b.prov.Dimension()
	for _, batch := range results {
		for _, vec := range batch {
			if dim > 0 && len(vec) != dim {
				return nil, &domain.SchemaError{Want: dim, Got: len(vec)}
			}
			out = append(out, vec)
		}
	}
	return out, nil
}
