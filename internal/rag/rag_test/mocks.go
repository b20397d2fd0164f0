package rag_test

import (
	"context"

	"ragline/internal/domain"
	"ragline/internal/rag/prompt"
)

// MockStore implements vectordb.Gateway
type MockStore struct {
	OnSearch func(ctx context.Context, vector []float32, topK int) ([]domain.RetrievalResult, error)
	OnUpsert func(ctx context.Context, records []domain.IndexRecord) (int, error)
	OnClear  func(ctx context.Context) error
	OnStats  func(ctx context.Context) (domain.StoreStats, error)

	SearchCalls int
	LastTopK    int
}

func (m *MockStore) Search(ctx context.Context, vector []float32, topK int) ([]domain.RetrievalResult, error) {
	m.SearchCalls++
	m.LastTopK = topK
	if m.OnSearch != nil {
		return m.OnSearch(ctx, vector, topK)
	}
	return []domain.RetrievalResult{{RecordID: "r1", Text: "default passage", Score: 0.9}}, nil
}

func (m *MockStore) Upsert(ctx context.Context, records []domain.IndexRecord) (int, error) {
	if m.OnUpsert != nil {
		return m.OnUpsert(ctx, records)
	}
	return len(records), nil
}

func (m *MockStore) Clear(ctx context.Context) error {
	if m.OnClear != nil {
		return m.OnClear(ctx)
	}
	return nil
}

func (m *MockStore) Stats(ctx context.Context) (domain.StoreStats, error) {
	if m.OnStats != nil {
		return m.OnStats(ctx)
	}
	return domain.StoreStats{}, nil
}

// MockEmbedder implements embedding.Embedder
type MockEmbedder struct {
	OnEmbed      func(ctx context.Context, texts []string) ([][]float32, error)
	OnEmbedQuery func(ctx context.Context, text string) ([]float32, error)

	EmbedQueryCalls int
}

func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if m.OnEmbed != nil {
		return m.OnEmbed(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{0.1}
	}
	return vectors, nil
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	m.EmbedQueryCalls++
	if m.OnEmbedQuery != nil {
		return m.OnEmbedQuery(ctx, text)
	}
	return []float32{0.1}, nil
}

func (m *MockEmbedder) Dimension() int { return 1 }

// MockLLM implements llm.Provider
type MockLLM struct {
	OnGenerate func(ctx context.Context, pc prompt.Context) (string, error)

	GenerateCalls int
	LastContext   prompt.Context
}

func (m *MockLLM) Generate(ctx context.Context, pc prompt.Context) (string, error) {
	m.GenerateCalls++
	m.LastContext = pc
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, pc)
	}
	return "mocked answer", nil
}

// MockReranker implements rerank.Reranker
type MockReranker struct {
	OnRerank func(ctx context.Context, query string, candidates []domain.RetrievalResult) ([]domain.RerankedResult, error)

	RerankCalls int
}

func (m *MockReranker) Rerank(ctx context.Context, query string, candidates []domain.RetrievalResult) ([]domain.RerankedResult, error) {
	m.RerankCalls++
	if m.OnRerank != nil {
		return m.OnRerank(ctx, query, candidates)
	}
	out := make([]domain.RerankedResult, len(candidates))
	for i, c := range candidates {
		out[i] = domain.RerankedResult{RecordID: c.RecordID, Text: c.Text, Metadata: c.Metadata, Relevance: c.Score}
	}
	return out, nil
}
