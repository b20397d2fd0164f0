// Package memstore is a brute-force in-memory gateway. It backs tests
// and the "memory" store backend for local runs without Qdrant.
package memstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"ragline/internal/domain"
	"ragline/internal/rag/vectordb"
)

type Store struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]domain.IndexRecord
}

func New(dimension int) *Store {
	return &Store{
		dimension: dimension,
		records:   make(map[string]domain.IndexRecord),
	}
}

func (s *Store) Upsert(ctx context.Context, records []domain.IndexRecord) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, &domain.StoreUnavailableError{Err: err}
	}
	for _, rec := range records {
		if len(rec.Vector) != s.dimension {
			return 0, &domain.SchemaError{Want: s.dimension, Got: len(rec.Vector)}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		s.records[rec.RecordID] = rec
	}
	return len(records), nil
}

func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]domain.RetrievalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.StoreUnavailableError{Err: err}
	}
	if len(vector) != s.dimension {
		return nil, &domain.SchemaError{Want: s.dimension, Got: len(vector)}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.RetrievalResult, 0, len(s.records))
	for _, rec := range s.records {
		results = append(results, domain.RetrievalResult{
			RecordID: rec.RecordID,
			Text:     rec.Text,
			Metadata: rec.Metadata,
			Score:    cosine(vector, rec.Vector),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].RecordID < results[j].RecordID
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]domain.IndexRecord)
	return nil
}

func (s *Store) Stats(ctx context.Context) (domain.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.StoreStats{RecordCount: int64(len(s.records)), Dimension: s.dimension}, nil
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

var _ vectordb.Gateway = (*Store)(nil)
