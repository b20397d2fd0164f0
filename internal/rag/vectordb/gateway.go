// Package vectordb defines the gateway owning the vector collection.
// All mutation goes through Upsert and Clear; the gateway never retries
// connectivity failures itself so ingestion and query can apply
// different retry policies.
package vectordb

import (
	"context"

	"ragline/internal/domain"
)

type Gateway interface {
	// Upsert writes the records and returns how many were written. Each
	// record is addressed by its own id, so concurrent batches cannot
	// lose each other's writes.
	Upsert(ctx context.Context, records []domain.IndexRecord) (int, error)

	// Search returns at most topK results ordered by descending
	// similarity, ties broken by record id.
	Search(ctx context.Context, vector []float32, topK int) ([]domain.RetrievalResult, error)

	// Clear removes every record in the collection.
	Clear(ctx context.Context) error

	Stats(ctx context.Context) (domain.StoreStats, error)
}
