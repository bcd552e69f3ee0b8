package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/qa-forge/internal/core"
)

// fakeEmbedder returns canned vectors keyed by text.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = f.vectors[text]
	}
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func record(q string) core.QARecord {
	return core.QARecord{Question: q, Answer: "a", File: "f.go", Repo: "r"}
}

func TestDeduperFilter(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"what does it do":      {1, 0, 0},
		"what is it doing":     {0.99, 0.14, 0}, // near-duplicate of the first
		"when does it fail":    {0, 1, 0},
		"how is it configured": {0, 0, 1},
	}}

	d := NewDeduper(embedder, 0.9, discardLogger())
	records := []core.QARecord{
		record("what does it do"),
		record("what is it doing"),
		record("when does it fail"),
		record("how is it configured"),
	}

	kept, dropped := d.Filter(context.Background(), records)
	assert.Equal(t, 1, dropped)
	assert.Len(t, kept, 3)
	assert.Equal(t, "what does it do", kept[0].Question)
	assert.Equal(t, "when does it fail", kept[1].Question)
}

func TestDeduperFilterEmbedderFailure(t *testing.T) {
	d := NewDeduper(&fakeEmbedder{err: fmt.Errorf("ollama down")}, 0.9, discardLogger())
	records := []core.QARecord{record("a"), record("b")}

	kept, dropped := d.Filter(context.Background(), records)
	assert.Equal(t, 0, dropped)
	assert.Len(t, kept, 2)
}

func TestDeduperFilterSingleRecord(t *testing.T) {
	d := NewDeduper(&fakeEmbedder{}, 0.9, discardLogger())
	records := []core.QARecord{record("only one")}

	kept, dropped := d.Filter(context.Background(), records)
	assert.Equal(t, 0, dropped)
	assert.Len(t, kept, 1)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}
