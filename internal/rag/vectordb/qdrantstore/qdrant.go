// Package qdrantstore implements the vector store gateway on Qdrant.
package qdrantstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ragline/internal/domain"
	"ragline/internal/rag/vectordb"
	"ragline/pkg/logx"
)

type Config struct {
	Host       string
	Port       int
	UseTLS     bool
	APIKey     string
	Collection string
	Dimension  int
}

type Store struct {
	client     *qdrant.Client
	collection string
	dimension  int
	logger     *logx.Logger
}

// New connects to Qdrant and ensures the collection exists with the
// configured dimension and cosine distance. The schema is fixed here;
// later dimension mismatches are SchemaErrors, never silent pads.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		UseTLS: cfg.UseTLS,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, &domain.StoreUnavailableError{Err: err}
	}

	s := &Store{
		client:     client,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		logger:     logx.New("qdrant"),
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return classify(err)
	}
	if exists {
		return nil
	}

	s.logger.Info("creating collection", "name", s.collection, "dimension", s.dimension)
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, records []domain.IndexRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, rec := range records {
		if len(rec.Vector) != s.dimension {
			return 0, &domain.SchemaError{Want: s.dimension, Got: len(rec.Vector)}
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(rec.RecordID),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"text":         rec.Text,
				"document_id":  rec.Metadata.DocumentID,
				"start_offset": int64(rec.Metadata.StartOffset),
				"end_offset":   int64(rec.Metadata.EndOffset),
			}),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, classify(err)
	}
	return len(points), nil
}

func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]domain.RetrievalResult, error) {
	if len(vector) != s.dimension {
		return nil, &domain.SchemaError{Want: s.dimension, Got: len(vector)}
	}
	if topK <= 0 {
		return nil, &domain.ValidationError{Msg: fmt.Sprintf("top_k must be positive, got %d", topK)}
	}

	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, classify(err)
	}

	results := make([]domain.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, domain.RetrievalResult{
			RecordID: hit.Id.GetUuid(),
			Text:     hit.Payload["text"].GetStringValue(),
			Score:    hit.Score,
			Metadata: domain.Metadata{
				DocumentID:  hit.Payload["document_id"].GetStringValue(),
				StartOffset: int(hit.Payload["start_offset"].GetIntegerValue()),
				EndOffset:   int(hit.Payload["end_offset"].GetIntegerValue()),
			},
		})
	}

	// qdrant already orders by score; pin equal scores to record id so
	// repeated runs return identical orderings
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].RecordID < results[j].RecordID
	})
	return results, nil
}

// Clear drops and recreates the collection.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return classify(err)
	}
	return s.ensureCollection(ctx)
}

func (s *Store) Stats(ctx context.Context) (domain.StoreStats, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return domain.StoreStats{}, classify(err)
	}
	return domain.StoreStats{RecordCount: int64(count), Dimension: s.dimension}, nil
}

// classify maps grpc transport failures to StoreUnavailableError so the
// orchestrators can tell connectivity problems from everything else.
func classify(err error) error {
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
			return &domain.StoreUnavailableError{Err: err}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &domain.StoreUnavailableError{Err: err}
	}
	return err
}

var _ vectordb.Gateway = (*Store)(nil)
