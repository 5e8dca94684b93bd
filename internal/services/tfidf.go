package services

import (
	"context"
	"math"

	"alfredoptarigan/resume-matcher/internal/tokenizer"
)

type tfidfStrategy struct{}

// NewTFIDFStrategy scores texts by the cosine of TF-IDF vectors fitted on
// each batch. Scores are only comparable within the batch they came from.
func NewTFIDFStrategy() SimilarityStrategy {
	return &tfidfStrategy{}
}

func (s *tfidfStrategy) Name() string {
	return "tfidf"
}

// ForBatch implements SimilarityStrategy.
func (s *tfidfStrategy) ForBatch(_ context.Context, corpus []string) (SimilarityScorer, error) {
	return fitTFIDF(corpus), nil
}

type tfidfScorer struct {
	idf     map[string]float64
	vectors map[string]map[string]float64
}

// fitTFIDF computes smoothed idf weights, ln((1+n)/(1+df))+1, over corpus.
func fitTFIDF(corpus []string) *tfidfScorer {
	n := float64(len(corpus))
	df := make(map[string]int)
	freqs := make([]map[string]int, len(corpus))
	for i, doc := range corpus {
		freqs[i] = tokenizer.Frequencies(doc)
		for term := range freqs[i] {
			df[term]++
		}
	}

	scorer := &tfidfScorer{
		idf:     make(map[string]float64, len(df)),
		vectors: make(map[string]map[string]float64, len(corpus)),
	}
	for term, count := range df {
		scorer.idf[term] = math.Log((1+n)/(1+float64(count))) + 1
	}
	for i, doc := range corpus {
		scorer.vectors[doc] = scorer.weigh(freqs[i])
	}
	return scorer
}

// Similarity implements SimilarityScorer. Texts outside the fitted corpus are
// vectorized on the fly; their unseen terms carry no weight.
func (s *tfidfScorer) Similarity(_ context.Context, a, b string) (float64, error) {
	va := s.vector(a)
	vb := s.vector(b)

	if len(vb) < len(va) {
		va, vb = vb, va
	}
	var dot float64
	for term, w := range va {
		dot += w * vb[term]
	}
	return clamp(dot), nil
}

func (s *tfidfScorer) vector(text string) map[string]float64 {
	if v, ok := s.vectors[text]; ok {
		return v
	}
	return s.weigh(tokenizer.Frequencies(text))
}

// weigh returns the L2-normalised tf-idf vector of the given term counts.
func (s *tfidfScorer) weigh(freq map[string]int) map[string]float64 {
	vec := make(map[string]float64, len(freq))
	var norm float64
	for term, count := range freq {
		idf, ok := s.idf[term]
		if !ok {
			continue
		}
		w := float64(count) * idf
		vec[term] = w
		norm += w * w
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for term := range vec {
		vec[term] /= norm
	}
	return vec
}
