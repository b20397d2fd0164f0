package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults failed: %v", err)
	}

	if cfg.EmbeddingModel != "text-embedding-3-small" || cfg.EmbeddingDimension != 1536 {
		t.Errorf("embedding defaults: model=%s dim=%d", cfg.EmbeddingModel, cfg.EmbeddingDimension)
	}
	if cfg.ChunkSize != 512 || cfg.ChunkOverlap != 50 {
		t.Errorf("chunk defaults: size=%d overlap=%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.DefaultTopK != 5 {
		t.Errorf("top_k default = %d", cfg.DefaultTopK)
	}
	if cfg.CollectionName != "rag_documents" {
		t.Errorf("collection default = %s", cfg.CollectionName)
	}
	if cfg.EmptyRetrievalPolicy != EmptyRetrievalMarker {
		t.Errorf("empty policy default = %s", cfg.EmptyRetrievalPolicy)
	}
	if cfg.ListenAddr() != "0.0.0.0:8000" {
		t.Errorf("listen addr = %s", cfg.ListenAddr())
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
provider: gemini
chunk:
  size: 256
  overlap: 32
query:
  top_k: 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading config file failed: %v", err)
	}
	if cfg.Provider != "gemini" || cfg.ChunkSize != 256 || cfg.ChunkOverlap != 32 || cfg.DefaultTopK != 10 {
		t.Errorf("file values not applied: %+v", cfg)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"overlap >= size", "chunk:\n  size: 100\n  overlap: 100\n"},
		{"zero dimension", "embedding:\n  dimension: 0\n"},
		{"bad provider", "provider: anthropic\n"},
		{"bad store backend", "store:\n  backend: pinecone\n"},
		{"bad empty policy", "query:\n  empty_policy: panic\n"},
		{"rerank without url", "rerank:\n  enabled: true\n  url: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			if _, err := Load(path); err == nil {
				t.Fatalf("expected validation to reject:\n%s", tt.content)
			}
		})
	}
}
