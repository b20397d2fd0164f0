package rag_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ragline/internal/config"
	"ragline/internal/domain"
	"ragline/internal/rag"
	"ragline/internal/rag/prompt"
	"ragline/internal/rag/rerank"
)

func testOptions() rag.Options {
	return rag.Options{
		DefaultTopK:          5,
		MaxContextSize:       10000,
		EmptyRetrievalPolicy: config.EmptyRetrievalMarker,
		CallTimeout:          5 * time.Second,
	}
}

func hits(ids ...string) []domain.RetrievalResult {
	out := make([]domain.RetrievalResult, len(ids))
	for i, id := range ids {
		out[i] = domain.RetrievalResult{
			RecordID: id,
			Text:     "passage " + id,
			Score:    float32(len(ids)-i) / float32(len(ids)),
		}
	}
	return out
}

func TestQuery_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		question       string
		topK           int
		withReranker   bool
		emptyPolicy    string
		setupMocks     func(e *MockEmbedder, st *MockStore, l *MockLLM, r *MockReranker)
		expectedAnswer string
		expectedKind   string
		expectDegraded bool
		check          func(t *testing.T, e *MockEmbedder, st *MockStore, l *MockLLM, r *MockReranker)
	}{
		{
			name:     "success full flow",
			question: "what is the refund policy?",
			setupMocks: func(e *MockEmbedder, st *MockStore, l *MockLLM, r *MockReranker) {
				l.OnGenerate = func(ctx context.Context, pc prompt.Context) (string, error) {
					return "final answer", nil
				}
			},
			expectedAnswer: "final answer",
		},
		{
			name:         "empty question fails validation without calls",
			question:     "   ",
			expectedKind: "validation_error",
			check: func(t *testing.T, e *MockEmbedder, st *MockStore, l *MockLLM, r *MockReranker) {
				if e.EmbedQueryCalls != 0 || st.SearchCalls != 0 || l.GenerateCalls != 0 {
					t.Error("validation failure must not reach any dependency")
				}
			},
		},
		{
			name:         "negative top_k fails validation",
			question:     "q",
			topK:         -3,
			expectedKind: "validation_error",
		},
		{
			name:     "embedding failure is fatal",
			question: "q",
			setupMocks: func(e *MockEmbedder, st *MockStore, l *MockLLM, r *MockReranker) {
				e.OnEmbedQuery = func(ctx context.Context, text string) ([]float32, error) {
					return nil, &domain.EmbeddingError{From: 0, To: 1, Err: errors.New("quota")}
				}
			},
			expectedKind: "embedding_error",
			check: func(t *testing.T, e *MockEmbedder, st *MockStore, l *MockLLM, r *MockReranker) {
				if st.SearchCalls != 0 {
					t.Error("retrieval must not run after an embedding failure")
				}
			},
		},
		{
			name:     "store unavailable surfaces immediately",
			question: "q",
			setupMocks: func(e *MockEmbedder, st *MockStore, l *MockLLM, r *MockReranker) {
				st.OnSearch = func(ctx context.Context, v []float32, topK int) ([]domain.RetrievalResult, error) {
					return nil, &domain.StoreUnavailableError{Err: errors.New("connection refused")}
				}
			},
			expectedKind: "store_unavailable",
			check: func(t *testing.T, e *MockEmbedder, st *MockStore, l *MockLLM, r *MockReranker) {
				if st.SearchCalls != 1 {
					t.Errorf("search attempts = %d, queries must not retry the store", st.SearchCalls)
				}
				if l.GenerateCalls != 0 {
					t.Error("generation must not run after a store failure")
				}
			},
		},
		{
			name:     "empty store returns marker without generation",
			question: "anything about dinosaurs?",
			setupMocks: func(e *MockEmbedder, st *MockStore, l *MockLLM, r *MockReranker) {
				st.OnSearch = func(ctx context.Context, v []float32, topK int) ([]domain.RetrievalResult, error) {
					return nil, nil
				}
			},
			expectedAnswer: domain.NoRelevantInformation,
			check: func(t *testing.T, e *MockEmbedder, st *MockStore, l *MockLLM, r *MockReranker) {
				if l.GenerateCalls != 0 {
					t.Error("marker policy must skip generation")
				}
				if r.RerankCalls != 0 {
					t.Error("marker policy must skip reranking")
				}
			},
		},
		{
			name:        "empty store generates when policy allows",
			question:    "anything?",
			emptyPolicy: config.EmptyRetrievalGenerate,
			setupMocks: func(e *MockEmbedder, st *MockStore, l *MockLLM, r *MockReranker) {
				st.OnSearch = func(ctx context.Context, v []float32, topK int) ([]domain.RetrievalResult, error) {
					return nil, nil
				}
				l.OnGenerate = func(ctx context.Context, pc prompt.Context) (string, error) {
					if len(pc.Passages) != 0 {
						t.Errorf("expected empty context, got %d passages", len(pc.Passages))
					}
					return "I cannot answer from the provided context.", nil
				}
			},
			expectedAnswer: "I cannot answer from the provided context.",
		},
		{
			name:         "rerank failure degrades to retrieval order",
			question:     "q",
			topK:         2,
			withReranker: true,
			setupMocks: func(e *MockEmbedder, st *MockStore, l *MockLLM, r *MockReranker) {
				st.OnSearch = func(ctx context.Context, v []float32, topK int) ([]domain.RetrievalResult, error) {
					return hits("a", "b", "c", "d"), nil
				}
				r.OnRerank = func(ctx context.Context, q string, c []domain.RetrievalResult) ([]domain.RerankedResult, error) {
					return nil, &domain.RerankError{Err: context.DeadlineExceeded}
				}
				l.OnGenerate = func(ctx context.Context, pc prompt.Context) (string, error) {
					if len(pc.Passages) != 2 {
						t.Errorf("degraded context should carry top_k passages, got %d", len(pc.Passages))
					}
					if pc.Passages[0].RecordID != "a" || pc.Passages[1].RecordID != "b" {
						t.Errorf("degraded fallback must keep retrieval order, got %v", pc.Passages)
					}
					return "degraded answer", nil
				}
			},
			expectedAnswer: "degraded answer",
			expectDegraded: true,
		},
		{
			name:         "reranker reorders and truncates the over-fetched pool",
			question:     "q",
			topK:         2,
			withReranker: true,
			setupMocks: func(e *MockEmbedder, st *MockStore, l *MockLLM, r *MockReranker) {
				st.OnSearch = func(ctx context.Context, v []float32, topK int) ([]domain.RetrievalResult, error) {
					return hits("a", "b", "c", "d"), nil
				}
				r.OnRerank = func(ctx context.Context, q string, c []domain.RetrievalResult) ([]domain.RerankedResult, error) {
					// Reverse order: the last retrieval hit is most relevant.
					out := make([]domain.RerankedResult, 0, len(c))
					for i := len(c) - 1; i >= 0; i-- {
						out = append(out, domain.RerankedResult{
							RecordID:  c[i].RecordID,
							Text:      c[i].Text,
							Relevance: float32(len(c) - i),
						})
					}
					return out, nil
				}
			},
			expectedAnswer: "mocked answer",
			check: func(t *testing.T, e *MockEmbedder, st *MockStore, l *MockLLM, r *MockReranker) {
				if st.LastTopK != 4 {
					t.Errorf("retrieval should over-fetch 2x top_k, got %d", st.LastTopK)
				}
				got := l.LastContext.Passages
				if len(got) != 2 || got[0].RecordID != "d" || got[1].RecordID != "c" {
					t.Errorf("generation should see the reranked top 2, got %v", got)
				}
			},
		},
		{
			name:     "generation failure keeps sources",
			question: "q",
			setupMocks: func(e *MockEmbedder, st *MockStore, l *MockLLM, r *MockReranker) {
				st.OnSearch = func(ctx context.Context, v []float32, topK int) ([]domain.RetrievalResult, error) {
					return hits("a", "b"), nil
				}
				l.OnGenerate = func(ctx context.Context, pc prompt.Context) (string, error) {
					return "", &domain.GenerationError{Err: errors.New("provider down")}
				}
			},
			expectedKind: "generation_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mStore := &MockStore{}
			mLLM := &MockLLM{}
			mRerank := &MockReranker{}

			if tt.setupMocks != nil {
				tt.setupMocks(mEmbed, mStore, mLLM, mRerank)
			}

			opts := testOptions()
			if tt.emptyPolicy != "" {
				opts.EmptyRetrievalPolicy = tt.emptyPolicy
			}
			var rr rerank.Reranker
			if tt.withReranker {
				rr = mRerank
			}

			s := rag.NewService(mStore, mEmbed, mLLM, rr, nil, opts)

			ctx := context.WithValue(context.Background(), config.TraceIDKey, "test-trace")
			answer, err := s.Query(ctx, domain.Query{Question: tt.question, TopK: tt.topK})

			if tt.expectedKind != "" {
				if err == nil {
					t.Fatalf("expected %s, got nil error", tt.expectedKind)
				}
				if kind := domain.ErrorKind(err); kind != tt.expectedKind {
					t.Errorf("error kind = %s, want %s", kind, tt.expectedKind)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.expectedAnswer != "" && answer.Text != tt.expectedAnswer {
				t.Errorf("answer = %q, want %q", answer.Text, tt.expectedAnswer)
			}
			if answer.Degraded != tt.expectDegraded {
				t.Errorf("degraded = %v, want %v", answer.Degraded, tt.expectDegraded)
			}

			if tt.check != nil {
				tt.check(t, mEmbed, mStore, mLLM, mRerank)
			}
		})
	}
}

func TestQueryGenerationFailureAttachesSources(t *testing.T) {
	mStore := &MockStore{
		OnSearch: func(ctx context.Context, v []float32, topK int) ([]domain.RetrievalResult, error) {
			return hits("a", "b"), nil
		},
	}
	mLLM := &MockLLM{
		OnGenerate: func(ctx context.Context, pc prompt.Context) (string, error) {
			return "", &domain.GenerationError{Err: errors.New("timeout")}
		},
	}

	s := rag.NewService(mStore, &MockEmbedder{}, mLLM, nil, nil, testOptions())

	answer, err := s.Query(context.Background(), domain.Query{Question: "q"})
	if err == nil {
		t.Fatal("expected generation error")
	}
	if len(answer.Sources) != 2 {
		t.Fatalf("sources must survive a generation failure, got %d", len(answer.Sources))
	}
	if answer.Sources[0].Text != "passage a" {
		t.Errorf("unexpected first source: %+v", answer.Sources[0])
	}
}

func TestQueryUsesDefaultTopK(t *testing.T) {
	mStore := &MockStore{}
	s := rag.NewService(mStore, &MockEmbedder{}, &MockLLM{}, nil, nil, testOptions())

	if _, err := s.Query(context.Background(), domain.Query{Question: "q"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mStore.LastTopK != 5 {
		t.Errorf("top_k = %d, want configured default 5", mStore.LastTopK)
	}
}

func TestRetrieveSkipsRerankAndGeneration(t *testing.T) {
	mStore := &MockStore{
		OnSearch: func(ctx context.Context, v []float32, topK int) ([]domain.RetrievalResult, error) {
			return hits("a", "b", "c"), nil
		},
	}
	mLLM := &MockLLM{}
	mRerank := &MockReranker{}

	s := rag.NewService(mStore, &MockEmbedder{}, mLLM, mRerank, nil, testOptions())

	results, err := s.Retrieve(context.Background(), domain.Query{Question: "q", TopK: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if mStore.LastTopK != 3 {
		t.Errorf("retrieve must not over-fetch, asked for %d", mStore.LastTopK)
	}
	if mRerank.RerankCalls != 0 || mLLM.GenerateCalls != 0 {
		t.Error("retrieve must not rerank or generate")
	}
}

func TestRetrieveValidatesQuestion(t *testing.T) {
	s := rag.NewService(&MockStore{}, &MockEmbedder{}, &MockLLM{}, nil, nil, testOptions())

	_, err := s.Retrieve(context.Background(), domain.Query{Question: ""})
	if domain.ErrorKind(err) != "validation_error" {
		t.Fatalf("expected validation error, got %v", err)
	}
}
