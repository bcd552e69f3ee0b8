package llm

import (
	"context"
	"log/slog"
	"math"

	"github.com/sevigo/qa-forge/internal/core"
)

// QuestionEmbedder is the slice of the embedding client the deduper needs.
// Satisfied by goframe's embeddings.Embedder.
type QuestionEmbedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Deduper drops records whose question is a near-duplicate of an earlier one,
// measured by cosine similarity of their embeddings.
type Deduper struct {
	embedder  QuestionEmbedder
	threshold float64
	logger    *slog.Logger
}

// NewDeduper creates a Deduper. Questions with similarity above threshold to
// any already-kept question are dropped.
func NewDeduper(embedder QuestionEmbedder, threshold float64, logger *slog.Logger) *Deduper {
	return &Deduper{
		embedder:  embedder,
		threshold: threshold,
		logger:    logger,
	}
}

// Filter returns the records whose questions survived deduplication, together
// with the number of dropped records. On embedding failure the input is
// returned unchanged; dedupe is an enhancement, not a gate.
func (d *Deduper) Filter(ctx context.Context, records []core.QARecord) ([]core.QARecord, int) {
	if len(records) < 2 {
		return records, 0
	}

	questions := make([]string, len(records))
	for i, rec := range records {
		questions[i] = rec.Question
	}

	vectors, err := d.embedder.EmbedDocuments(ctx, questions)
	if err != nil || len(vectors) != len(records) {
		d.logger.Warn("failed to embed questions, skipping dedupe", "error", err)
		return records, 0
	}

	kept := make([]core.QARecord, 0, len(records))
	var keptVectors [][]float32

	for i, rec := range records {
		duplicate := false
		for _, kv := range keptVectors {
			if CosineSimilarity(vectors[i], kv) >= d.threshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			d.logger.Debug("dropping near-duplicate question", "question", rec.Question)
			continue
		}
		kept = append(kept, rec)
		keptVectors = append(keptVectors, vectors[i])
	}

	dropped := len(records) - len(kept)
	if dropped > 0 {
		d.logger.Info("deduplicated generated questions", "dropped", dropped, "kept", len(kept))
	}
	return kept, dropped
}

// CosineSimilarity computes the cosine similarity of two vectors. Vectors of
// different or zero length yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
