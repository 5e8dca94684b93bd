package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
)

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
	Close() error
}

// SimilarityScorer scores two texts in [0,1].
type SimilarityScorer interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// SimilarityStrategy prepares a scorer for one batch. The corpus holds the job
// description and every extracted resume text of that batch.
type SimilarityStrategy interface {
	Name() string
	ForBatch(ctx context.Context, corpus []string) (SimilarityScorer, error)
}

// VectorSource is implemented by scorers that can hand out the vector they
// scored a text with.
type VectorSource interface {
	Vector(ctx context.Context, text string) ([]float32, error)
}

// clamp maps a raw similarity onto [0,1]. Negative and NaN values become 0.
func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimension mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

type embeddingStrategy struct {
	embedder Embedder
}

// NewEmbeddingStrategy scores texts by the cosine of their embeddings.
func NewEmbeddingStrategy(embedder Embedder) SimilarityStrategy {
	return &embeddingStrategy{embedder: embedder}
}

func (s *embeddingStrategy) Name() string {
	return "embedding"
}

// ForBatch implements SimilarityStrategy. Embeddings do not depend on the
// corpus, so the scorer only memoizes vectors for the batch.
func (s *embeddingStrategy) ForBatch(_ context.Context, _ []string) (SimilarityScorer, error) {
	return &embeddingScorer{embedder: s.embedder}, nil
}

type embeddingScorer struct {
	embedder Embedder
	vectors  sync.Map
}

// Similarity implements SimilarityScorer.
func (s *embeddingScorer) Similarity(ctx context.Context, a, b string) (float64, error) {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0, nil
	}

	va, err := s.Vector(ctx, a)
	if err != nil {
		return 0, err
	}
	vb, err := s.Vector(ctx, b)
	if err != nil {
		return 0, err
	}

	sim, err := cosine(va, vb)
	if err != nil {
		return 0, err
	}
	return clamp(sim), nil
}

// Vector implements VectorSource.
func (s *embeddingScorer) Vector(ctx context.Context, text string) ([]float32, error) {
	if v, ok := s.vectors.Load(text); ok {
		return v.([]float32), nil
	}

	v, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}
	s.vectors.Store(text, v)
	return v, nil
}
