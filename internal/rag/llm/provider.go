package llm

import (
	"context"

	"ragline/internal/rag/prompt"
)

// Provider produces the final answer text from an assembled prompt
// context.
type Provider interface {
	Generate(ctx context.Context, pc prompt.Context) (string, error)
}
