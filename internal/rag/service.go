// Package rag orchestrates the query pipeline: embed the question,
// retrieve candidates, rerank, assemble the prompt and generate the
// answer. Every external call is delegated to an injected dependency so
// the pipeline logic stays testable with hand mocks.
package rag

import (
	"context"
	"strings"
	"time"

	"ragline/internal/cache"
	"ragline/internal/config"
	"ragline/internal/domain"
	"ragline/internal/metrics"
	"ragline/internal/rag/embedding"
	"ragline/internal/rag/llm"
	"ragline/internal/rag/prompt"
	"ragline/internal/rag/rerank"
	"ragline/internal/rag/vectordb"
	"ragline/pkg/logx"
)

// Service is the public contract of the query pipeline. Handlers and
// the CLI only ever see this interface, never the wired dependencies.
type Service interface {
	// Query runs the full pipeline and returns the generated answer.
	// When generation fails the returned Answer still carries the
	// retrieved sources alongside the error.
	Query(ctx context.Context, q domain.Query) (domain.Answer, error)

	// Retrieve runs embedding and similarity search only, without
	// reranking or generation.
	Retrieve(ctx context.Context, q domain.Query) ([]domain.RetrievalResult, error)
}

// Options carries the pipeline knobs owned by configuration.
type Options struct {
	DefaultTopK          int
	MaxContextSize       int
	EmptyRetrievalPolicy string
	CallTimeout          time.Duration
}

type service struct {
	store    vectordb.Gateway
	embedder embedding.Embedder
	gen      llm.Provider
	// reranker is nil when reranking is disabled.
	reranker rerank.Reranker
	// answers is nil when the cache is disabled; a nil *cache.Cache
	// always misses.
	answers *cache.Cache
	opts    Options
	logger  *logx.Logger
}

// NewService wires the pipeline. The concrete store, embedder and
// generation provider are chosen by the caller; the service never
// inspects which implementation it was given.
func NewService(store vectordb.Gateway, em embedding.Embedder, gen llm.Provider, rr rerank.Reranker, answers *cache.Cache, opts Options) Service {
	return &service{
		store:    store,
		embedder: em,
		gen:      gen,
		reranker: rr,
		answers:  answers,
		opts:     opts,
		logger:   logx.New("query-service"),
	}
}

func (s *service) Query(ctx context.Context, q domain.Query) (domain.Answer, error) {
	start := time.Now()
	log := s.requestLogger(ctx)

	q, err := s.normalize(q)
	if err != nil {
		metrics.CaptureQueryDuration("invalid", time.Since(start))
		return domain.Answer{}, err
	}

	if answer, found := s.checkCache(ctx, log, q); found {
		metrics.CaptureQueryDuration("cached", time.Since(start))
		return answer, nil
	}

	vector, err := s.embedQuestion(ctx, log, q)
	if err != nil {
		metrics.CaptureQueryDuration("failed", time.Since(start))
		return domain.Answer{}, err
	}

	// Over-fetch so the reranker has a larger pool to reorder.
	fetchK := q.TopK
	if s.reranker != nil {
		fetchK = 2 * q.TopK
	}

	candidates, err := s.search(ctx, log, vector, fetchK)
	if err != nil {
		metrics.CaptureQueryDuration("failed", time.Since(start))
		return domain.Answer{}, err
	}

	if len(candidates) == 0 && s.opts.EmptyRetrievalPolicy == config.EmptyRetrievalMarker {
		log.Info("no candidates retrieved, returning marker answer")
		metrics.CaptureQueryDuration("no_context", time.Since(start))
		return domain.Answer{Text: domain.NoRelevantInformation}, nil
	}

	passages, degraded := s.order(ctx, log, q, candidates)

	pc := prompt.Assemble(q.Question, passages, s.opts.MaxContextSize)
	if pc.Dropped > 0 {
		log.Warn("passages dropped from context", "dropped", pc.Dropped, "kept", len(pc.Passages))
	}
	sources := sourcesOf(pc.Passages)

	text, err := s.generate(ctx, log, pc)
	if err != nil {
		metrics.CaptureQueryDuration("failed", time.Since(start))
		return domain.Answer{Sources: sources, Degraded: degraded}, err
	}

	answer := domain.Answer{Text: text, Sources: sources, Degraded: degraded}
	s.saveToCache(q, answer)

	metrics.CaptureQueryDuration("ok", time.Since(start))
	return answer, nil
}

func (s *service) Retrieve(ctx context.Context, q domain.Query) ([]domain.RetrievalResult, error) {
	log := s.requestLogger(ctx)

	q, err := s.normalize(q)
	if err != nil {
		return nil, err
	}

	vector, err := s.embedQuestion(ctx, log, q)
	if err != nil {
		return nil, err
	}

	return s.search(ctx, log, vector, q.TopK)
}

// normalize validates the query without touching any dependency and
// fills in the configured default top_k.
func (s *service) normalize(q domain.Query) (domain.Query, error) {
	q.Question = strings.TrimSpace(q.Question)
	if q.Question == "" {
		return q, &domain.ValidationError{Msg: "question must not be empty"}
	}
	if q.TopK == 0 {
		q.TopK = s.opts.DefaultTopK
	}
	if q.TopK < 0 {
		return q, &domain.ValidationError{Msg: "top_k must be positive"}
	}
	return q, nil
}

// order reranks the candidates and truncates to top_k. A rerank failure
// is recoverable: the retrieval ordering is kept and the answer is
// flagged as degraded.
func (s *service) order(ctx context.Context, log *logx.Logger, q domain.Query, candidates []domain.RetrievalResult) ([]domain.RerankedResult, bool) {
	if s.reranker == nil {
		return byRetrievalOrder(candidates, q.TopK), false
	}

	reranked, err := s.rerankStep(ctx, log, q.Question, candidates)
	if err != nil {
		log.Warn("rerank failed, falling back to retrieval order", "error", err)
		metrics.IncrementRerankFallbacks()
		return byRetrievalOrder(candidates, q.TopK), true
	}

	if len(reranked) > q.TopK {
		reranked = reranked[:q.TopK]
	}
	return reranked, false
}

func (s *service) requestLogger(ctx context.Context) *logx.Logger {
	if traceID, ok := ctx.Value(config.TraceIDKey).(string); ok {
		return s.logger.With("traceId", traceID)
	}
	return s.logger
}

// byRetrievalOrder converts search hits as-is, keeping similarity as
// the reported relevance.
func byRetrievalOrder(candidates []domain.RetrievalResult, topK int) []domain.RerankedResult {
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	out := make([]domain.RerankedResult, len(candidates))
	for i, c := range candidates {
		out[i] = domain.RerankedResult{
			RecordID:  c.RecordID,
			Text:      c.Text,
			Metadata:  c.Metadata,
			Relevance: c.Score,
		}
	}
	return out
}

func sourcesOf(passages []domain.RerankedResult) []domain.Source {
	if len(passages) == 0 {
		return nil
	}
	sources := make([]domain.Source, len(passages))
	for i, p := range passages {
		sources[i] = domain.Source{Text: p.Text, Score: p.Relevance}
	}
	return sources
}

