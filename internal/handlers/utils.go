package handlers

import (
	"encoding/json"
	"net/http"

	"ragline/internal/api"
	"ragline/internal/domain"
	"ragline/internal/rag/ingest"
	"ragline/pkg/logx"
)

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logx.New("http-handler").Error("encoding response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, httpCode int, kind, message string) {
	writeJSON(w, httpCode, api.ErrorResponse{Kind: kind, Message: message})
}

// writeDomainError maps the pipeline error taxonomy onto HTTP status
// codes. Provider failures are upstream faults, not client errors.
// sources, when present, ride along so a generation failure does not
// throw away the retrieved passages.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error, sources []domain.Source) {
	kind := domain.ErrorKind(err)

	var httpCode int
	switch kind {
	case "validation_error":
		httpCode = http.StatusBadRequest
	case "extraction_error":
		httpCode = http.StatusUnprocessableEntity
	case "store_unavailable":
		httpCode = http.StatusServiceUnavailable
	case "embedding_error", "generation_error", "rerank_error":
		httpCode = http.StatusBadGateway
	default:
		httpCode = http.StatusInternalServerError
	}

	h.logger.Error("request failed", "kind", kind, "error", err)

	resp := api.ErrorResponse{Kind: kind, Message: err.Error()}
	if len(sources) > 0 {
		resp.Sources = toSourceResponses(sources)
	}
	writeJSON(w, httpCode, resp)
}

func closeBody(r *http.Request, logger *logx.Logger) {
	if err := r.Body.Close(); err != nil {
		logger.Error("closing request body failed", "error", err)
	}
}

func toSourceResponses(sources []domain.Source) []api.SourceResponse {
	out := make([]api.SourceResponse, len(sources))
	for i, s := range sources {
		out[i] = api.SourceResponse{Text: s.Text, Score: s.Score}
	}
	return out
}

func toIngestItemResult(res ingest.Result) api.IngestItemResult {
	out := api.IngestItemResult{
		SourceID:       res.SourceID,
		ChunksWritten:  res.ChunksWritten,
		VectorsWritten: res.VectorsWritten,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
		out.ErrorKind = domain.ErrorKind(res.Err)
	}
	return out
}
