package embedding

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"ragline/internal/domain"
	"ragline/internal/retry"
)

// fakeProvider derives each vector from the text so reassembly order is
// checkable: text "t42" embeds to [42, batchLen].
type fakeProvider struct {
	mu        sync.Mutex
	calls     int
	failBatch func(call int, texts []string) error
}

func (f *fakeProvider) Dimension() int { return 2 }

func (f *fakeProvider) Transient(err error) bool {
	return strings.Contains(err.Error(), "transient")
}

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	if f.failBatch != nil {
		if err := f.failBatch(call, texts); err != nil {
			return nil, err
		}
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		n, _ := strconv.Atoi(strings.TrimPrefix(text, "t"))
		out[i] = []float32{float32(n), float32(len(texts))}
	}
	return out, nil
}

func inputs(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = "t" + strconv.Itoa(i)
	}
	return texts
}

func testPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

func TestEmbed_PreservesOrderAcrossBatches(t *testing.T) {
	prov := &fakeProvider{}
	b := NewBatcher(prov, 10, 4, testPolicy(), "embedding-test")

	texts := inputs(37)
	vectors, err := b.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(vectors) != len(texts) {
		t.Fatalf("vector count got %d, want %d", len(vectors), len(texts))
	}
	for i, vec := range vectors {
		if int(vec[0]) != i {
			t.Errorf("vector %d came from input %d; order not preserved", i, int(vec[0]))
		}
		if len(vec) != 2 {
			t.Errorf("vector %d dimension got %d, want 2", i, len(vec))
		}
	}
}

func TestEmbed_EmptyInput(t *testing.T) {
	b := NewBatcher(&fakeProvider{}, 10, 2, testPolicy(), "embedding-test")
	vectors, err := b.Embed(context.Background(), nil)
	if err != nil || vectors != nil {
		t.Fatalf("got (%v, %v), want (nil, nil)", vectors, err)
	}
}

func TestEmbed_TransientFailureRetriedThenSucceeds(t *testing.T) {
	failures := 2
	prov := &fakeProvider{}
	prov.failBatch = func(call int, texts []string) error {
		if call <= failures {
			return errors.New("transient rate limit")
		}
		return nil
	}
	b := NewBatcher(prov, 100, 1, testPolicy(), "embedding-test")

	vectors, err := b.Embed(context.Background(), inputs(5))
	if err != nil {
		t.Fatalf("Embed failed after retries: %v", err)
	}
	if len(vectors) != 5 {
		t.Fatalf("vector count got %d, want 5", len(vectors))
	}
}

func TestEmbed_FatalFailureNotRetried(t *testing.T) {
	prov := &fakeProvider{}
	prov.failBatch = func(call int, texts []string) error {
		return errors.New("invalid api key")
	}
	b := NewBatcher(prov, 100, 1, testPolicy(), "embedding-test")

	_, err := b.Embed(context.Background(), inputs(3))

	var embErr *domain.EmbeddingError
	if !errors.As(err, &embErr) {
		t.Fatalf("error type got %T, want *domain.EmbeddingError", err)
	}
	if prov.calls != 1 {
		t.Errorf("provider calls got %d, want 1 (fatal errors must not retry)", prov.calls)
	}
}

func TestEmbed_FailedBatchFailsWholeOperation(t *testing.T) {
	prov := &fakeProvider{}
	prov.failBatch = func(call int, texts []string) error {
		// fail only the batch containing input t25
		for _, text := range texts {
			if text == "t25" {
				return errors.New("boom")
			}
		}
		return nil
	}
	b := NewBatcher(prov, 10, 4, testPolicy(), "embedding-test")

	vectors, err := b.Embed(context.Background(), inputs(40))
	if vectors != nil {
		t.Error("partial vectors returned alongside an error")
	}

	var embErr *domain.EmbeddingError
	if !errors.As(err, &embErr) {
		t.Fatalf("error type got %T, want *domain.EmbeddingError", err)
	}
	if embErr.From != 20 || embErr.To != 30 {
		t.Errorf("failing range got [%d:%d), want [20:30)", embErr.From, embErr.To)
	}
}

func TestEmbed_ShortProviderResponseIsError(t *testing.T) {
	prov := &shortProvider{}
	b := NewBatcher(prov, 10, 1, testPolicy(), "embedding-test")

	_, err := b.Embed(context.Background(), inputs(4))
	var embErr *domain.EmbeddingError
	if !errors.As(err, &embErr) {
		t.Fatalf("error type got %T, want *domain.EmbeddingError", err)
	}
}

type shortProvider struct{}

func (s *shortProvider) Dimension() int           { return 2 }
func (s *shortProvider) Transient(err error) bool { return false }
func (s *shortProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) < 2 {
		return nil, fmt.Errorf("need at least 2")
	}
	return make([][]float32, len(texts)-1), nil
}
