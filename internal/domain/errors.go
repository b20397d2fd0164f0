package domain

import (
	"errors"
	"fmt"
)

// ValidationError: bad caller input, no external call was made.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "validation: " + e.Msg }

// ExtractionError: one source could not be read. Per-document in batch
// mode; the batch continues past it.
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction of %s failed: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// EmbeddingError: the provider failed after retries were exhausted.
// From/To is the half-open index range of the failing batch within the
// original input.
type EmbeddingError struct {
	From, To int
	Err      error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding batch [%d:%d) failed: %v", e.From, e.To, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// SchemaError: vector dimension does not match the collection schema.
// Non-retryable, indicates misconfiguration.
type SchemaError struct {
	Want, Got int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: collection expects %d, got %d", e.Want, e.Got)
}

// StoreUnavailableError: the vector store could not be reached. The
// gateway never retries this itself; retry policy belongs to the
// orchestrators.
type StoreUnavailableError struct {
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("vector store unavailable: %v", e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// RerankError: the rerank provider failed. Recoverable at the
// orchestrator level by falling back to the retrieval ordering.
type RerankError struct {
	Err error
}

func (e *RerankError) Error() string { return fmt.Sprintf("rerank failed: %v", e.Err) }

func (e *RerankError) Unwrap() error { return e.Err }

// GenerationError: the generation provider failed. Fatal to the query;
// retrieved sources are still attached to the answer.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("generation failed: %v", e.Err) }

func (e *GenerationError) Unwrap() error { return e.Err }

// ErrorKind maps a pipeline error onto the short kind string reported to
// external callers. Internal detail never leaks past the message.
func ErrorKind(err error) string {
	var (
		ve *ValidationError
		xe *ExtractionError
		ee *EmbeddingError
		se *SchemaError
		ue *StoreUnavailableError
		re *RerankError
		ge *GenerationError
	)
	switch {
	case errors.As(err, &ve):
		return "validation_error"
	case errors.As(err, &xe):
		return "extraction_error"
	case errors.As(err, &ee):
		return "embedding_error"
	case errors.As(err, &se):
		return "schema_error"
	case errors.As(err, &ue):
		return "store_unavailable"
	case errors.As(err, &re):
		return "rerank_error"
	case errors.As(err, &ge):
		return "generation_error"
	default:
		return "internal_error"
	}
}
