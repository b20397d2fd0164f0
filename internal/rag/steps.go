package rag

import (
	"context"
	"time"

	"ragline/internal/domain"
	"ragline/internal/metrics"
	"ragline/internal/rag/prompt"
	"ragline/pkg/logx"
)

// Per-step wrappers. Each one scopes the call timeout, logs the step
// transition and records its latency under a stable label.

func (s *service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.CallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opts.CallTimeout)
}

func (s *service) checkCache(ctx context.Context, log *logx.Logger, q domain.Query) (domain.Answer, bool) {
	if s.answers == nil {
		return domain.Answer{}, false
	}

	start := time.Now()
	defer func() { metrics.CaptureStepLatency("cache_lookup", time.Since(start)) }()

	answer, found := s.answers.Get(ctx, q.Question, q.TopK)
	metrics.RecordCacheLookup(found)
	if found {
		log.Debug("answer cache hit")
	}
	return answer, found
}

func (s *service) saveToCache(q domain.Query, answer domain.Answer) {
	if s.answers == nil || answer.Degraded {
		return
	}

	// Writes happen off the request path; a lost write only costs a
	// future cache miss.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.answers.Set(ctx, q.Question, q.TopK, answer)
	}()
}

func (s *service) embedQuestion(ctx context.Context, log *logx.Logger, q domain.Query) ([]float32, error) {
	log.Debug("query step", "step", "embedding")

	start := time.Now()
	defer func() { metrics.CaptureStepLatency("embed", time.Since(start)) }()

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.embedder.EmbedQuery(callCtx, q.Question)
}

// search surfaces store unavailability immediately: queries have no
// stale-read fallback, and retry policy for the store belongs to
// ingestion only.
func (s *service) search(ctx context.Context, log *logx.Logger, vector []float32, topK int) ([]domain.RetrievalResult, error) {
	log.Debug("query step", "step", "retrieval", "topK", topK)

	start := time.Now()
	defer func() { metrics.CaptureStepLatency("retrieve", time.Since(start)) }()

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.Search(callCtx, vector, topK)
}

func (s *service) rerankStep(ctx context.Context, log *logx.Logger, question string, candidates []domain.RetrievalResult) ([]domain.RerankedResult, error) {
	log.Debug("query step", "step", "rerank", "candidates", len(candidates))

	start := time.Now()
	defer func() { metrics.CaptureStepLatency("rerank", time.Since(start)) }()

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.reranker.Rerank(callCtx, question, candidates)
}

func (s *service) generate(ctx context.Context, log *logx.Logger, pc prompt.Context) (string, error) {
	log.Debug("query step", "step", "generation", "passages", len(pc.Passages), "contextSize", pc.Size)

	start := time.Now()
	defer func() { metrics.CaptureStepLatency("generate", time.Since(start)) }()

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.gen.Generate(callCtx, pc)
}
