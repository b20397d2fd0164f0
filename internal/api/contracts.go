// Package api holds the wire contracts of the HTTP surface. Internal
// domain types never cross the boundary directly.
package api

type QueryRequest struct {
	Question string `json:"question" validate:"required"`
	TopK     int    `json:"top_k,omitempty"`
}

type SourceResponse struct {
	Text  string  `json:"text"`
	Score float32 `json:"score"`
}

type QueryResponse struct {
	Question string           `json:"question"`
	Answer   string           `json:"answer"`
	Sources  []SourceResponse `json:"sources"`
	// Degraded marks answers produced with the retrieval ordering after
	// the reranker failed.
	Degraded          bool    `json:"degraded,omitempty"`
	ProcessingSeconds float64 `json:"processing_time"`
}

type RelevantDocsResponse struct {
	Question   string           `json:"question"`
	Documents  []DocumentMatch  `json:"documents"`
	TotalCount int              `json:"total_count"`
}

type DocumentMatch struct {
	DocumentID string  `json:"document_id"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
}

type IngestTextRequest struct {
	Documents []IngestTextItem `json:"documents" validate:"required"`
}

type IngestTextItem struct {
	SourceID string `json:"source_id"`
	Text     string `json:"text"`
}

type IngestItemResult struct {
	SourceID       string `json:"source_id"`
	ChunksWritten  int    `json:"chunks_written"`
	VectorsWritten int    `json:"vectors_written"`
	Error          string `json:"error,omitempty"`
	ErrorKind      string `json:"error_kind,omitempty"`
}

type IngestResponse struct {
	Results []IngestItemResult `json:"results"`
}

type StatsResponse struct {
	CollectionName string `json:"collection_name"`
	RecordCount    int64  `json:"record_count"`
	Dimension      int    `json:"dimension"`
	EmbeddingModel string `json:"embedding_model"`
	LLMModel       string `json:"llm_model"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ClearResponse struct {
	Cleared bool `json:"cleared"`
}

type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	// Sources carries the retrieved passages when a failure still
	// produced partial value, as generation failures do.
	Sources []SourceResponse `json:"sources,omitempty"`
}
