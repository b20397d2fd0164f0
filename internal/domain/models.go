package domain

// Document is a unit of source content entering ingestion. It is not
// persisted beyond the ingestion call.
type Document struct {
	SourceID string
	RawText  string
}

// Chunk is a contiguous slice of a document's text. Offsets are byte
// offsets into the document's raw text and satisfy EndOffset > StartOffset.
type Chunk struct {
	ChunkID     string
	DocumentID  string
	Text        string
	StartOffset int
	EndOffset   int
}

// IndexRecord is the persisted unit in the vector store.
type IndexRecord struct {
	RecordID string
	Vector   []float32
	Text     string
	Metadata Metadata
}

// Metadata travels with every record. DocumentID and the offsets are
// always present.
type Metadata struct {
	DocumentID  string `json:"document_id"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
}

// StoreStats describes the collection as the gateway sees it.
type StoreStats struct {
	RecordCount int64 `json:"record_count"`
	Dimension   int   `json:"dimension"`
}

// Query is a user question plus retrieval size. Ephemeral.
type Query struct {
	Question string
	TopK     int
}

// RetrievalResult is one similarity-search hit, ordered by descending
// similarity when returned from the gateway.
type RetrievalResult struct {
	RecordID string
	Text     string
	Metadata Metadata
	Score    float32
}

// RerankedResult is a retrieval result rescored by the reranker.
// Relevance replaces the similarity score; ties keep retrieval order.
type RerankedResult struct {
	RecordID  string
	Text      string
	Metadata  Metadata
	Relevance float32
}

// Source is the caller-facing view of a passage that backed an answer.
type Source struct {
	Text  string  `json:"text"`
	Score float32 `json:"score"`
}

// Answer is the final result of one query orchestration.
type Answer struct {
	Text    string
	Sources []Source
	// Degraded is set when reranking was skipped after a provider failure
	// and the retrieval ordering was used instead.
	Degraded bool
}

// NoRelevantInformation is the standard marker answer returned when
// retrieval finds nothing and the empty-retrieval policy is "marker".
const NoRelevantInformation = "No relevant information was found for this question."
