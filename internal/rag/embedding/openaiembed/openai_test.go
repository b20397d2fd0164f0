package openaiembed

import (
	"strings"
	"testing"

	"github.com/openai/openai-go"
)

func TestVectorsFromData_ReordersByIndex(t *testing.T) {
	data := []openai.Embedding{
		{Index: 1, Embedding: []float64{0.2, 0.2}},
		{Index: 0, Embedding: []float64{0.1, 0.1}},
	}

	vectors, err := vectorsFromData(2, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vectors[0][0] != 0.1 || vectors[1][0] != 0.2 {
		t.Errorf("vectors not in input order: %v", vectors)
	}
}

func TestVectorsFromData_ShortResponseFails(t *testing.T) {
	data := []openai.Embedding{
		{Index: 0, Embedding: []float64{0.1}},
		{Index: 2, Embedding: []float64{0.3}},
	}

	_, err := vectorsFromData(3, data)
	if err == nil {
		t.Fatal("expected an error when the response misses an input")
	}
	if !strings.Contains(err.Error(), "missing 1 of 3") {
		t.Errorf("error should name the missing count, got %q", err.Error())
	}
}

func TestVectorsFromData_OutOfRangeIndexFails(t *testing.T) {
	data := []openai.Embedding{
		{Index: 0, Embedding: []float64{0.1}},
		{Index: 7, Embedding: []float64{0.9}},
	}

	if _, err := vectorsFromData(2, data); err == nil {
		t.Fatal("a datum with an out-of-range index must not satisfy an input slot")
	}
}
