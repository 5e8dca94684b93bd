package services

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/config"
	"alfredoptarigan/resume-matcher/internal/metrics"
	"alfredoptarigan/resume-matcher/internal/models"
)

// NewSkillExtractorFromConfig builds the configured skill strategy. The
// vocabulary strategy is extended with SKILLS_VOCABULARY_FILE when set.
func NewSkillExtractorFromConfig(cfg config.ScoringConfig, logger *zap.Logger) (SkillExtractor, error) {
	switch cfg.SkillStrategy {
	case config.SkillsVocabulary:
		vocabulary := DefaultVocabulary()
		if cfg.VocabularyFile != "" {
			if err := vocabulary.LoadFile(cfg.VocabularyFile); err != nil {
				return nil, err
			}
			logger.Info("skill vocabulary extended",
				zap.String("file", cfg.VocabularyFile),
				zap.Int("terms", vocabulary.Len()))
		}
		return NewVocabularySkillExtractor(vocabulary), nil
	case config.SkillsLexical:
		return NewLexicalSkillExtractor(logger), nil
	default:
		return nil, fmt.Errorf("unknown skill strategy %q", cfg.SkillStrategy)
	}
}

// NewEmbedderFromConfig builds the Gemini embedder behind the circuit breaker
// and, when Redis is enabled, the embedding cache. The returned client is nil
// without Redis and must be closed by the caller otherwise.
func NewEmbedderFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (Embedder, *redis.Client, error) {
	embedder, err := NewGeminiEmbedder(ctx, cfg.Gemini, logger)
	if err != nil {
		return nil, nil, err
	}
	embedder = NewBreakerEmbedder(embedder, cfg.CircuitBreaker, logger)

	if !cfg.Redis.Enabled {
		return embedder, nil, nil
	}

	rdb, err := NewRedisClient(cfg.Redis)
	if err != nil {
		embedder.Close()
		return nil, nil, err
	}
	return NewCachedEmbedder(embedder, NewRedisVectorCache(rdb, cfg.Redis.TTL), logger, m), rdb, nil
}

// NewSimilarityStrategyFromConfig selects the similarity strategy by name.
// embedder is only required for the embedding strategy.
func NewSimilarityStrategyFromConfig(name string, embedder Embedder) (SimilarityStrategy, error) {
	switch name {
	case config.SimilarityTFIDF:
		return NewTFIDFStrategy(), nil
	case config.SimilarityEmbedding:
		if embedder == nil {
			return nil, fmt.Errorf("the %s similarity strategy needs an embedder", name)
		}
		return NewEmbeddingStrategy(embedder), nil
	default:
		return nil, fmt.Errorf("unknown similarity strategy %q", name)
	}
}

// NewAnalyzerFromConfig builds the analyzer with the configured weights.
func NewAnalyzerFromConfig(cfg config.ScoringConfig, skills SkillExtractor) (AnalyzerService, error) {
	return NewAnalyzerService(skills, models.Weights{
		Semantic: cfg.SemanticWeight,
		Skill:    cfg.SkillWeight,
	}, cfg.PreviewLength)
}
