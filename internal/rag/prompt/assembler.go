// Package prompt assembles the question and its supporting passages
// into the input consumed by generation.
package prompt

import (
	"fmt"
	"strings"

	"ragline/internal/domain"
)

// Context is the assembled generation input. Never persisted.
type Context struct {
	Question string
	Passages []domain.RerankedResult
	// Dropped counts passages excluded because they did not fit the
	// context budget, so callers can report reduced context.
	Dropped int
	// Size is the combined length of the included passage texts.
	Size int
}

// Assemble greedily includes passages in their given order until the
// next one would exceed maxContextSize. Passages are never truncated: a
// passage that alone exceeds the budget is dropped whole and counted.
func Assemble(question string, passages []domain.RerankedResult, maxContextSize int) Context {
	pc := Context{Question: question}
	for _, p := range passages {
		if pc.Size+len(p.Text) > maxContextSize {
			pc.Dropped++
			continue
		}
		pc.Passages = append(pc.Passages, p)
		pc.Size += len(p.Text)
	}
	return pc
}

// Render produces the user prompt sent to the model. The layout follows
// a plain context-then-question template.
func Render(pc Context) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	if len(pc.Passages) == 0 {
		b.WriteString("(no context found)\n")
	}
	for i, p := range pc.Passages {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, p.Text)
	}
	b.WriteString("\nUser Question: ")
	b.WriteString(pc.Question)
	return b.String()
}
