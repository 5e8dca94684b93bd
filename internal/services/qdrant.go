package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/config"
	"alfredoptarigan/resume-matcher/internal/models"
)

// CandidateIndex keeps analysed resumes searchable by embedding across batches.
type CandidateIndex interface {
	InitCollection(ctx context.Context) error
	IndexCandidate(ctx context.Context, batchID uuid.UUID, result models.AnalysisResult, embedding []float32) error
	SearchCandidates(ctx context.Context, queryEmbedding []float32, limit int) ([]models.CandidateMatch, error)
	DeleteBatch(ctx context.Context, batchID uuid.UUID) error
	Close() error
}

type qdrantCandidateIndex struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
	logger         *zap.Logger
}

func NewQdrantCandidateIndex(cfg config.QdrantConfig, logger *zap.Logger) (CandidateIndex, error) {
	host, port, useTLS, err := parseQdrantURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantCandidateIndex{
		client:         client,
		collectionName: cfg.Collection,
		vectorSize:     cfg.VectorSize,
		logger:         logger,
	}, nil
}

// parseQdrantURL extracts host, port and TLS usage. The gRPC port 6334 is the
// default when the URL names none.
func parseQdrantURL(urlStr string) (string, int, bool, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid Qdrant URL: %w", err)
	}
	if parsed.Hostname() == "" {
		return "", 0, false, fmt.Errorf("invalid Qdrant URL %q: missing host", urlStr)
	}

	port := 6334
	if p := parsed.Port(); p != "" {
		v, err := strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid Qdrant port %q: %w", p, err)
		}
		port = v
	}

	return parsed.Hostname(), port, parsed.Scheme == "https", nil
}

// InitCollection implements CandidateIndex.
func (q *qdrantCandidateIndex) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		q.logger.Info("qdrant collection already exists", zap.String("collection", q.collectionName))
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	q.logger.Info("qdrant collection created", zap.String("collection", q.collectionName))
	return nil
}

// IndexCandidate implements CandidateIndex. The resume id doubles as point id,
// so re-indexing a resume overwrites it.
func (q *qdrantCandidateIndex) IndexCandidate(ctx context.Context, batchID uuid.UUID, result models.AnalysisResult, embedding []float32) error {
	if uint64(len(embedding)) != q.vectorSize {
		return fmt.Errorf("embedding has %d dimensions, collection expects %d", len(embedding), q.vectorSize)
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(result.ResumeID.String()),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: candidatePayload(batchID, result),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	return nil
}

// SearchCandidates implements CandidateIndex.
func (q *qdrantCandidateIndex) SearchCandidates(ctx context.Context, queryEmbedding []float32, limit int) ([]models.CandidateMatch, error) {
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	matches := make([]models.CandidateMatch, 0, len(points))
	for _, point := range points {
		matches = append(matches, candidateFromPayload(point.Score, point.Payload))
	}
	return matches, nil
}

// DeleteBatch implements CandidateIndex.
func (q *qdrantCandidateIndex) DeleteBatch(ctx context.Context, batchID uuid.UUID) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("batch_id", batchID.String()),
		},
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		return fmt.Errorf("failed to delete batch candidates: %w", err)
	}

	return nil
}

func (q *qdrantCandidateIndex) Close() error {
	return q.client.Close()
}

func candidatePayload(batchID uuid.UUID, result models.AnalysisResult) map[string]*qdrant.Value {
	return qdrant.NewValueMap(map[string]any{
		"resume_id":      result.ResumeID.String(),
		"batch_id":       batchID.String(),
		"display_name":   result.DisplayName,
		"combined_score": result.CombinedScore,
		"preview":        result.ContentPreview,
	})
}

func candidateFromPayload(score float32, payload map[string]*qdrant.Value) models.CandidateMatch {
	return models.CandidateMatch{
		ResumeID:      payload["resume_id"].GetStringValue(),
		BatchID:       payload["batch_id"].GetStringValue(),
		DisplayName:   payload["display_name"].GetStringValue(),
		CombinedScore: payload["combined_score"].GetDoubleValue(),
		Similarity:    score,
		Preview:       payload["preview"].GetStringValue(),
	}
}
