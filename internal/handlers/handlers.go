// Package handlers maps the HTTP surface onto the query and ingestion
// services.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ragline/internal/api"
	"ragline/internal/domain"
	"ragline/internal/rag"
	"ragline/internal/rag/ingest"
	"ragline/internal/rag/vectordb"
	"ragline/pkg/logx"
)

// Info is the static deployment detail reported by /stats.
type Info struct {
	CollectionName string
	EmbeddingModel string
	LLMModel       string
}

type Handler struct {
	query     rag.Service
	ingestor  ingest.Service
	store     vectordb.Gateway
	info      Info
	uploadDir string
	logger    *logx.Logger
}

func New(query rag.Service, ingestor ingest.Service, store vectordb.Gateway, info Info) *Handler {
	return &Handler{
		query:     query,
		ingestor:  ingestor,
		store:     store,
		info:      info,
		uploadDir: filepath.Join(os.TempDir(), "ragline-uploads"),
		logger:    logx.New("http-handler"),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	defer closeBody(r, h.logger)

	var req api.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "body must be valid JSON")
		return
	}

	start := time.Now()
	answer, err := h.query.Query(r.Context(), domain.Query{Question: req.Question, TopK: req.TopK})
	if err != nil {
		h.writeDomainError(w, err, answer.Sources)
		return
	}

	writeJSON(w, http.StatusOK, api.QueryResponse{
		Question:          strings.TrimSpace(req.Question),
		Answer:            answer.Text,
		Sources:           toSourceResponses(answer.Sources),
		Degraded:          answer.Degraded,
		ProcessingSeconds: time.Since(start).Seconds(),
	})
}

func (h *Handler) RelevantDocs(w http.ResponseWriter, r *http.Request) {
	defer closeBody(r, h.logger)

	var req api.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "body must be valid JSON")
		return
	}

	results, err := h.query.Retrieve(r.Context(), domain.Query{Question: req.Question, TopK: req.TopK})
	if err != nil {
		h.writeDomainError(w, err, nil)
		return
	}

	docs := make([]api.DocumentMatch, len(results))
	for i, res := range results {
		docs[i] = api.DocumentMatch{
			DocumentID: res.Metadata.DocumentID,
			Text:       res.Text,
			Score:      res.Score,
		}
	}
	writeJSON(w, http.StatusOK, api.RelevantDocsResponse{
		Question:   strings.TrimSpace(req.Question),
		Documents:  docs,
		TotalCount: len(docs),
	})
}

// IngestUpload receives one document via multipart/form-data and
// indexes it synchronously.
func (h *Handler) IngestUpload(w http.ResponseWriter, r *http.Request) {
	const maxUploadSize = 32 << 20

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "file too large or malformed form")
		return
	}

	fileReader, fileMeta, err := r.FormFile("document")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "form field 'document' is required")
		return
	}
	defer fileReader.Close()

	if err := os.MkdirAll(h.uploadDir, 0o750); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "storage error")
		return
	}

	tempPath := filepath.Join(h.uploadDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(fileMeta.Filename)))
	dst, err := os.Create(tempPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "storage error")
		return
	}
	defer os.Remove(tempPath)

	if _, err := io.Copy(dst, fileReader); err != nil {
		dst.Close()
		writeError(w, http.StatusInternalServerError, "internal_error", "write error")
		return
	}
	dst.Close()

	res, err := h.ingestor.IngestFile(r.Context(), tempPath)
	res.SourceID = fileMeta.Filename
	if err != nil {
		h.writeDomainError(w, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, api.IngestResponse{Results: []api.IngestItemResult{toIngestItemResult(res)}})
}

// IngestTexts indexes raw documents posted as JSON. Failures are
// per-document; the response carries one result per input.
func (h *Handler) IngestTexts(w http.ResponseWriter, r *http.Request) {
	defer closeBody(r, h.logger)

	var req api.IngestTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "body must be valid JSON")
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, "validation_error", "documents must not be empty")
		return
	}

	results := make([]api.IngestItemResult, 0, len(req.Documents))
	for _, item := range req.Documents {
		res, err := h.ingestor.IngestDocument(r.Context(), domain.Document{
			SourceID: item.SourceID,
			RawText:  item.Text,
		})
		results = append(results, toIngestItemResult(res))

		var ue *domain.StoreUnavailableError
		if err != nil && errors.As(err, &ue) {
			h.writeDomainError(w, err, nil)
			return
		}
	}
	writeJSON(w, http.StatusOK, api.IngestResponse{Results: results})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.writeDomainError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, api.StatsResponse{
		CollectionName: h.info.CollectionName,
		RecordCount:    stats.RecordCount,
		Dimension:      stats.Dimension,
		EmbeddingModel: h.info.EmbeddingModel,
		LLMModel:       h.info.LLMModel,
	})
}

// Clear drops every indexed record. The confirm query parameter guards
// against accidental calls.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "validation_error", "pass confirm=true to clear the index")
		return
	}

	if err := h.store.Clear(r.Context()); err != nil {
		h.writeDomainError(w, err, nil)
		return
	}
	h.logger.Info("index cleared by request", "remoteAddr", r.RemoteAddr)
	writeJSON(w, http.StatusOK, api.ClearResponse{Cleared: true})
}
