// Package ingest turns source documents into indexed vectors: extract
// text, chunk it, embed the chunks and upsert the records into the
// vector store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"ragline/internal/config"
	"ragline/internal/domain"
	"ragline/internal/metrics"
	"ragline/internal/rag/chunker"
	"ragline/internal/rag/embedding"
	"ragline/internal/rag/vectordb"
	"ragline/internal/retry"
	"ragline/pkg/logx"
)

// Result reports what one document contributed to the index. Chunks
// and vectors are written one-to-one; both counts are reported so
// callers can spot a store that dropped records.
type Result struct {
	SourceID       string `json:"source_id"`
	ChunksWritten  int    `json:"chunks_written"`
	VectorsWritten int    `json:"vectors_written"`
	// Err is set when this document failed; other documents in the same
	// batch may still have succeeded.
	Err error `json:"-"`
}

// Service is the ingestion pipeline contract.
type Service interface {
	// IngestDocument chunks, embeds and indexes one in-memory document.
	IngestDocument(ctx context.Context, doc domain.Document) (Result, error)

	// IngestFile extracts text from a file on disk and ingests it. The
	// file's path becomes the document's source id.
	IngestFile(ctx context.Context, path string) (Result, error)

	// IngestFiles ingests many files. Extraction and embedding failures
	// are per-document: the batch continues and the failure lands in that
	// document's Result. An unreachable store aborts the whole batch.
	IngestFiles(ctx context.Context, paths []string) ([]Result, error)

	// IngestDir ingests every file under dir matching the glob pattern,
	// in lexical path order.
	IngestDir(ctx context.Context, dir, pattern string) ([]Result, error)
}

type service struct {
	chunker    *chunker.Chunker
	embedder   embedding.Embedder
	store      vectordb.Gateway
	storeRetry retry.Policy
	logger     *logx.Logger
}

func NewService(ch *chunker.Chunker, em embedding.Embedder, store vectordb.Gateway, storeRetry retry.Policy) Service {
	return &service{
		chunker:    ch,
		embedder:   em,
		store:      store,
		storeRetry: storeRetry,
		logger:     logx.New("ingest-service"),
	}
}

func (s *service) IngestDocument(ctx context.Context, doc domain.Document) (Result, error) {
	start := time.Now()
	log := s.requestLogger(ctx).With("sourceId", doc.SourceID)

	res := Result{SourceID: doc.SourceID}

	if strings.TrimSpace(doc.SourceID) == "" {
		res.Err = &domain.ValidationError{Msg: "document source id must not be empty"}
		return res, res.Err
	}

	chunks := s.chunker.Split(doc.SourceID, doc.RawText)
	if len(chunks) == 0 {
		log.Info("document produced no chunks, nothing to index")
		metrics.RecordDocumentIngested("empty")
		return res, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	// One embedding call per document; the embedder batches internally.
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		metrics.RecordDocumentIngested("embed_failed")
		res.Err = err
		return res, err
	}

	records := make([]domain.IndexRecord, len(chunks))
	for i, c := range chunks {
		records[i] = domain.IndexRecord{
			RecordID: uuid.NewString(),
			Vector:   vectors[i],
			Text:     c.Text,
			Metadata: domain.Metadata{
				DocumentID:  c.DocumentID,
				StartOffset: c.StartOffset,
				EndOffset:   c.EndOffset,
			},
		}
	}

	written, err := s.upsert(ctx, records)
	if err != nil {
		metrics.RecordDocumentIngested("store_failed")
		res.Err = err
		return res, err
	}

	res.ChunksWritten = written
	res.VectorsWritten = written
	metrics.RecordDocumentIngested("ok")
	metrics.AddChunksWritten(written)
	metrics.CaptureStepLatency("ingest_document", time.Since(start))
	log.Info("document indexed", "chunks", written, "elapsed", time.Since(start))
	return res, nil
}

func (s *service) IngestFile(ctx context.Context, path string) (Result, error) {
	text, err := extractText(path)
	if err != nil {
		metrics.RecordDocumentIngested("extract_failed")
		res := Result{SourceID: path, Err: err}
		return res, err
	}
	return s.IngestDocument(ctx, domain.Document{SourceID: path, RawText: text})
}

func (s *service) IngestFiles(ctx context.Context, paths []string) ([]Result, error) {
	log := s.requestLogger(ctx)

	results := make([]Result, 0, len(paths))
	for _, path := range paths {
		res, err := s.IngestFile(ctx, path)
		results = append(results, res)
		if err == nil {
			continue
		}

		// Connectivity failures would fail every following document too.
		var ue *domain.StoreUnavailableError
		if errors.As(err, &ue) {
			log.Error("vector store unreachable, aborting batch", "failedAt", path, "error", err)
			return results, err
		}
		log.Warn("document failed, continuing batch", "sourceId", path, "error", err)
	}
	return results, nil
}

func (s *service) IngestDir(ctx context.Context, dir, pattern string) ([]Result, error) {
	if pattern == "" {
		pattern = "*"
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, &domain.ValidationError{Msg: fmt.Sprintf("bad glob pattern %q: %v", pattern, err)}
	}

	var paths []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		paths = append(paths, m)
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, &domain.ValidationError{Msg: fmt.Sprintf("no files match %s in %s", pattern, dir)}
	}
	return s.IngestFiles(ctx, paths)
}

// upsert writes all records of one document in a single call, retrying
// only connectivity failures.
func (s *service) upsert(ctx context.Context, records []domain.IndexRecord) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, &domain.StoreUnavailableError{Err: err}
	}

	var written int
	err := s.storeRetry.Do(ctx, transientStore, func(ctx context.Context) error {
		var upsertErr error
		written, upsertErr = s.store.Upsert(ctx, records)
		return upsertErr
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func (s *service) requestLogger(ctx context.Context) *logx.Logger {
	if traceID, ok := ctx.Value(config.TraceIDKey).(string); ok {
		return s.logger.With("traceId", traceID)
	}
	return s.logger
}

func transientStore(err error) bool {
	var ue *domain.StoreUnavailableError
	return errors.As(err, &ue)
}
