package chunker

import (
	"strings"
	"testing"
)

func TestSplit_SentenceBoundaries(t *testing.T) {
	// three short sentences, chunk budget fits one sentence at a time
	chunks := New(4, 0).Split("doc-1", "A. B. C.")

	if len(chunks) != 3 {
		t.Fatalf("chunk count got %d, want 3", len(chunks))
	}

	want := []string{"A.", "B.", "C."}
	for i, w := range want {
		if chunks[i].Text != w {
			t.Errorf("chunk %d text got %q, want %q", i, chunks[i].Text, w)
		}
	}
}

func TestSplit_Degenerate(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		count int
	}{
		{name: "Empty", text: "", count: 0},
		{name: "Whitespace_Only", text: "  \n\t ", count: 0},
		{name: "Shorter_Than_Chunk_Size", text: "tiny text", count: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := New(512, 50).Split("doc", tt.text)
			if len(chunks) != tt.count {
				t.Errorf("chunk count got %d, want %d", len(chunks), tt.count)
			}
			if tt.count == 1 {
				ch := chunks[0]
				if ch.StartOffset != 0 || ch.EndOffset != len(tt.text) {
					t.Errorf("span got [%d,%d), want [0,%d)", ch.StartOffset, ch.EndOffset, len(tt.text))
				}
			}
		})
	}
}

func TestSplit_CoverageAndOverlap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 120; i++ {
		b.WriteString("The quick brown fox jumps over the lazy dog. ")
	}
	text := strings.TrimRight(b.String(), " ")

	const size, overlap = 200, 40
	chunks := New(size, overlap).Split("doc", text)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// every offset covered, chunks in document order
	if chunks[0].StartOffset != 0 {
		t.Errorf("first chunk starts at %d, want 0", chunks[0].StartOffset)
	}
	if chunks[len(chunks)-1].EndOffset != len(text) {
		t.Errorf("last chunk ends at %d, want %d", chunks[len(chunks)-1].EndOffset, len(text))
	}
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		if cur.StartOffset > prev.EndOffset {
			t.Fatalf("gap between chunk %d and %d: [%d,%d) then [%d,%d)",
				i-1, i, prev.StartOffset, prev.EndOffset, cur.StartOffset, cur.EndOffset)
		}
		if cur.EndOffset <= cur.StartOffset {
			t.Fatalf("chunk %d has empty span [%d,%d)", i, cur.StartOffset, cur.EndOffset)
		}
		got := prev.EndOffset - cur.StartOffset
		if got != overlap {
			t.Errorf("overlap between chunk %d and %d got %d, want %d", i-1, i, got, overlap)
		}
	}
}

func TestSplit_SkipsWhitespaceOnlyWindows(t *testing.T) {
	// a tab run longer than the chunk size has no cut boundary, so the
	// middle windows are pure whitespace
	text := "abc" + strings.Repeat("\t", 300) + "xyz"
	chunks := New(100, 0).Split("doc", text)

	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, ch := range chunks {
		if ch.Text == "" {
			t.Errorf("chunk %d has empty text for span [%d,%d)", i, ch.StartOffset, ch.EndOffset)
		}
	}
	if last := chunks[len(chunks)-1]; last.Text != "xyz" {
		t.Errorf("last chunk text got %q, want %q", last.Text, "xyz")
	}
}

func TestSplit_HardCutWithoutBoundaries(t *testing.T) {
	text := strings.Repeat("x", 1000) // no separators at all
	chunks := New(100, 10).Split("doc", text)

	for i, ch := range chunks {
		if ch.EndOffset-ch.StartOffset > 100 {
			t.Errorf("chunk %d span length %d exceeds chunk size", i, ch.EndOffset-ch.StartOffset)
		}
	}
	if chunks[len(chunks)-1].EndOffset != len(text) {
		t.Errorf("input not fully covered, last end %d", chunks[len(chunks)-1].EndOffset)
	}
}

func TestSplit_UTF8SafeHardCut(t *testing.T) {
	text := strings.Repeat("界", 300) // 3-byte runes, no boundaries
	chunks := New(100, 0).Split("doc", text)

	for i, ch := range chunks {
		if !strings.HasPrefix(ch.Text, "界") && ch.Text != "" {
			t.Errorf("chunk %d starts mid-rune: %q", i, ch.Text[:3])
		}
		for _, r := range ch.Text {
			if r == '�' {
				t.Fatalf("chunk %d contains a broken rune", i)
			}
		}
	}
}

func TestSplit_ChunkIDsAndBackReference(t *testing.T) {
	chunks := New(10, 2).Split("report.pdf", "one two three four five six seven")

	seen := map[string]bool{}
	for i, ch := range chunks {
		if ch.DocumentID != "report.pdf" {
			t.Errorf("chunk %d document id got %q", i, ch.DocumentID)
		}
		if seen[ch.ChunkID] {
			t.Errorf("duplicate chunk id %q", ch.ChunkID)
		}
		seen[ch.ChunkID] = true
	}
}
