package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/resume-matcher/internal/config"
)

type geminiEmbedder struct {
	client  *genai.Client
	model   string
	chunker *TextChunker
	logger  *zap.Logger
}

// NewGeminiEmbedder creates the Gemini client once; callers share it across
// batches and release it with Close.
func NewGeminiEmbedder(ctx context.Context, cfg config.GeminiConfig, logger *zap.Logger) (Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiEmbedder{
		client:  client,
		model:   cfg.EmbedModel,
		chunker: NewTextChunker(cfg.MaxChunkSize, cfg.ChunkOverlap),
		logger:  logger,
	}, nil
}

// Embed implements Embedder. Text longer than one chunk is embedded chunk by
// chunk in a single request and the chunk vectors are averaged.
func (g *geminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	chunks := g.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, errors.New("nothing to embed: text is blank")
	}

	contents := make([]*genai.Content, 0, len(chunks))
	for _, chunk := range chunks {
		contents = append(contents, genai.NewContentFromText(chunk, genai.RoleUser))
	}

	result, err := g.client.Models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{
		TaskType: "SEMANTIC_SIMILARITY",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	if len(result.Embeddings) != len(chunks) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(chunks), len(result.Embeddings))
	}

	vectors := make([][]float32, 0, len(result.Embeddings))
	for _, e := range result.Embeddings {
		vectors = append(vectors, e.Values)
	}

	if len(chunks) > 1 {
		g.logger.Debug("embedded chunked text",
			zap.Int("chunks", len(chunks)),
			zap.Int("chars", len(text)))
	}

	return meanPool(vectors)
}

func (g *geminiEmbedder) Model() string {
	return g.model
}

// Close implements Embedder. The genai client holds no resources of its own.
func (g *geminiEmbedder) Close() error {
	return nil
}

// meanPool averages equally sized vectors component-wise.
func meanPool(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, errors.New("no vectors to pool")
	}
	if len(vectors) == 1 {
		return vectors[0], nil
	}

	dim := len(vectors[0])
	out := make([]float32, dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
		for j, x := range v {
			out[j] += x
		}
	}

	n := float32(len(vectors))
	for j := range out {
		out[j] /= n
	}
	return out, nil
}
