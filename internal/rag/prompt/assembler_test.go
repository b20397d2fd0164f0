package prompt

import (
	"strings"
	"testing"

	"ragline/internal/domain"
)

func passages(texts ...string) []domain.RerankedResult {
	out := make([]domain.RerankedResult, len(texts))
	for i, text := range texts {
		out[i] = domain.RerankedResult{RecordID: text, Text: text, Relevance: 1}
	}
	return out
}

func TestAssemble_GreedyBudget(t *testing.T) {
	tests := []struct {
		name        string
		texts       []string
		budget      int
		wantKept    int
		wantDropped int
	}{
		{
			name:     "All_Fit",
			texts:    []string{"aaaa", "bbbb"},
			budget:   100,
			wantKept: 2,
		},
		{
			name:        "Budget_Cuts_Tail",
			texts:       []string{"aaaa", "bbbb", "cccc"},
			budget:      9,
			wantKept:    2,
			wantDropped: 1,
		},
		{
			name:        "Oversized_Passage_Dropped_Whole_Not_Truncated",
			texts:       []string{strings.Repeat("x", 50), "tiny"},
			budget:      10,
			wantKept:    1,
			wantDropped: 1,
		},
		{
			name:   "No_Passages",
			texts:  nil,
			budget: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := Assemble("q", passages(tt.texts...), tt.budget)

			if len(pc.Passages) != tt.wantKept {
				t.Errorf("kept got %d, want %d", len(pc.Passages), tt.wantKept)
			}
			if pc.Dropped != tt.wantDropped {
				t.Errorf("dropped got %d, want %d", pc.Dropped, tt.wantDropped)
			}
			if pc.Size > tt.budget && tt.wantKept > 0 {
				t.Errorf("size %d exceeds budget %d", pc.Size, tt.budget)
			}
			for _, p := range pc.Passages {
				if p.Text != p.RecordID {
					t.Errorf("passage %q was altered", p.RecordID)
				}
			}
		})
	}
}

func TestAssemble_PreservesGivenOrder(t *testing.T) {
	pc := Assemble("q", passages("first", "second", "third"), 1000)

	want := []string{"first", "second", "third"}
	for i, w := range want {
		if pc.Passages[i].Text != w {
			t.Errorf("position %d got %q, want %q", i, pc.Passages[i].Text, w)
		}
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	in := passages("alpha", "beta", "gamma")
	first := Assemble("q", in, 11)
	for i := 0; i < 10; i++ {
		again := Assemble("q", in, 11)
		if len(again.Passages) != len(first.Passages) || again.Dropped != first.Dropped || again.Size != first.Size {
			t.Fatalf("assembly not deterministic: %+v vs %+v", again, first)
		}
	}
}

func TestRender(t *testing.T) {
	pc := Assemble("what is go?", passages("Go is a language."), 1000)
	rendered := Render(pc)

	if !strings.Contains(rendered, "Go is a language.") {
		t.Error("rendered prompt missing passage text")
	}
	if !strings.Contains(rendered, "what is go?") {
		t.Error("rendered prompt missing question")
	}

	empty := Render(Assemble("q", nil, 10))
	if !strings.Contains(empty, "(no context found)") {
		t.Error("empty context must carry the explicit no-context signal")
	}
}
