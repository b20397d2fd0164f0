// Package app wires the configured providers into the query and
// ingestion services. The API binary and the CLI share this assembly.
package app

import (
	"context"
	"fmt"

	"ragline/internal/cache"
	"ragline/internal/config"
	"ragline/internal/rag"
	"ragline/internal/rag/chunker"
	"ragline/internal/rag/embedding"
	"ragline/internal/rag/embedding/geminiembed"
	"ragline/internal/rag/embedding/openaiembed"
	"ragline/internal/rag/ingest"
	"ragline/internal/rag/llm"
	"ragline/internal/rag/llm/geminillm"
	"ragline/internal/rag/llm/openaillm"
	"ragline/internal/rag/rerank"
	"ragline/internal/rag/rerank/httprerank"
	"ragline/internal/rag/vectordb"
	"ragline/internal/rag/vectordb/memstore"
	"ragline/internal/rag/vectordb/qdrantstore"
	"ragline/internal/retry"
)

// App holds every wired component for one process.
type App struct {
	Config   *config.Config
	Store    vectordb.Gateway
	Embedder embedding.Embedder
	LLM      llm.Provider
	Reranker rerank.Reranker
	Answers  *cache.Cache
	Query    rag.Service
	Ingestor ingest.Service
}

// New assembles the full pipeline from configuration. Provider and
// store backends are selected here and nowhere else.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	providerRetry := retry.Policy{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    cfg.CallTimeout,
		Jitter:      0.2,
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("vector store: %w", err)
	}

	embedder, err := newEmbedder(ctx, cfg, providerRetry)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}

	gen, err := newLLM(ctx, cfg, providerRetry)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	var reranker rerank.Reranker
	if cfg.RerankEnabled {
		reranker = httprerank.New(httprerank.Config{
			URL:     cfg.RerankURL,
			Model:   cfg.RerankModel,
			Timeout: cfg.CallTimeout,
		})
	}

	var answers *cache.Cache
	if cfg.CacheEnabled {
		answers = cache.New(ctx, cfg.RedisAddr, cfg.CacheTTL)
	}

	query := rag.NewService(store, embedder, gen, reranker, answers, rag.Options{
		DefaultTopK:          cfg.DefaultTopK,
		MaxContextSize:       cfg.MaxContextSize,
		EmptyRetrievalPolicy: cfg.EmptyRetrievalPolicy,
		CallTimeout:          cfg.CallTimeout,
	})

	ingestor := ingest.NewService(
		chunker.New(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder,
		store,
		providerRetry,
	)

	return &App{
		Config:   cfg,
		Store:    store,
		Embedder: embedder,
		LLM:      gen,
		Reranker: reranker,
		Answers:  answers,
		Query:    query,
		Ingestor: ingestor,
	}, nil
}

func (a *App) Close() {
	if a.Answers != nil {
		a.Answers.Close()
	}
}

func newStore(ctx context.Context, cfg *config.Config) (vectordb.Gateway, error) {
	switch cfg.StoreBackend {
	case "qdrant":
		return qdrantstore.New(ctx, qdrantstore.Config{
			Host:       cfg.QdrantHost,
			Port:       cfg.QdrantPort,
			UseTLS:     cfg.QdrantUseTLS,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.CollectionName,
			Dimension:  cfg.EmbeddingDimension,
		})
	case "memory":
		return memstore.New(cfg.EmbeddingDimension), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func newEmbedder(ctx context.Context, cfg *config.Config, policy retry.Policy) (embedding.Embedder, error) {
	var (
		prov embedding.Provider
		err  error
	)
	switch cfg.Provider {
	case "openai":
		prov = openaiembed.New(openaiembed.Config{
			APIKey:    cfg.OpenAIAPIKey,
			Model:     cfg.EmbeddingModel,
			Dimension: cfg.EmbeddingDimension,
		})
	case "gemini":
		prov, err = geminiembed.New(ctx, geminiembed.Config{
			APIKey:    cfg.GeminiAPIKey,
			Model:     cfg.EmbeddingModel,
			Dimension: cfg.EmbeddingDimension,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return embedding.NewBatcher(prov, cfg.EmbeddingBatchSize, cfg.EmbeddingWorkers, policy, cfg.Provider), nil
}

func newLLM(ctx context.Context, cfg *config.Config, policy retry.Policy) (llm.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return openaillm.New(openaillm.Config{
			APIKey:       cfg.OpenAIAPIKey,
			Model:        cfg.LLMModel,
			Temperature:  cfg.LLMTemperature,
			SystemPrompt: cfg.SystemPrompt,
			Policy:       policy,
		}), nil
	case "gemini":
		return geminillm.New(ctx, geminillm.Config{
			APIKey:       cfg.GeminiAPIKey,
			Model:        cfg.LLMModel,
			Temperature:  cfg.LLMTemperature,
			SystemPrompt: cfg.SystemPrompt,
			Policy:       policy,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
