package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"ragline/internal/domain"
)

type stubQueryService struct {
	onQuery func(ctx context.Context, q domain.Query) (domain.Answer, error)
}

func (s *stubQueryService) Query(ctx context.Context, q domain.Query) (domain.Answer, error) {
	return s.onQuery(ctx, q)
}

func (s *stubQueryService) Retrieve(ctx context.Context, q domain.Query) ([]domain.RetrievalResult, error) {
	return nil, nil
}

func TestAnswerBatch(t *testing.T) {
	svc := &stubQueryService{
		onQuery: func(ctx context.Context, q domain.Query) (domain.Answer, error) {
			if q.TopK != 3 {
				t.Errorf("top_k passed through got %d, want 3", q.TopK)
			}
			if q.Question == "bad" {
				return domain.Answer{}, &domain.GenerationError{Err: errors.New("provider down")}
			}
			return domain.Answer{
				Text:    "answer to " + q.Question,
				Sources: []domain.Source{{Text: "supporting passage", Score: 0.87}},
			}, nil
		},
	}

	answers := answerBatch(context.Background(), svc, []string{"first", "bad", "second"}, 3)

	if len(answers) != 3 {
		t.Fatalf("answers got %d, want one per question", len(answers))
	}
	for i, q := range []string{"first", "bad", "second"} {
		if answers[i].Question != q {
			t.Errorf("slot %d question got %q, want %q (input order must hold)", i, answers[i].Question, q)
		}
	}
	if answers[1].Error == "" || answers[1].Answer != "" {
		t.Errorf("failed slot got %+v, want error with empty answer", answers[1])
	}
	if answers[0].Answer != "answer to first" {
		t.Errorf("answer got %q", answers[0].Answer)
	}
}

func TestAnswerBatchOutputShape(t *testing.T) {
	svc := &stubQueryService{
		onQuery: func(ctx context.Context, q domain.Query) (domain.Answer, error) {
			return domain.Answer{
				Text:    "an answer",
				Sources: []domain.Source{{Text: "passage", Score: 0.42}},
			}, nil
		},
	}

	raw, err := json.Marshal(answerBatch(context.Background(), svc, []string{"q1"}, 0))
	if err != nil {
		t.Fatal(err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	entry := decoded[0]

	for _, field := range []string{"question", "answer", "sources", "processing_time"} {
		if _, ok := entry[field]; !ok {
			t.Errorf("entry missing %q field: %v", field, entry)
		}
	}
	sources, ok := entry["sources"].([]any)
	if !ok || len(sources) != 1 {
		t.Fatalf("sources got %v, want one object", entry["sources"])
	}
	src, ok := sources[0].(map[string]any)
	if !ok {
		t.Fatalf("source entry got %T, want object with text and score", sources[0])
	}
	if src["text"] != "passage" {
		t.Errorf("source text got %v", src["text"])
	}
	if score, ok := src["score"].(float64); !ok || score < 0.41 || score > 0.43 {
		t.Errorf("source score got %v, want 0.42", src["score"])
	}
	if _, ok := entry["processing_time"].(float64); !ok {
		t.Errorf("processing_time got %T, want a number", entry["processing_time"])
	}
}
