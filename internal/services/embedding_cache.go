package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/config"
	"alfredoptarigan/resume-matcher/internal/metrics"
)

// VectorCache stores embeddings by key. Get reports a miss with ok == false.
type VectorCache interface {
	Get(ctx context.Context, key string) (vec []float32, ok bool, err error)
	Set(ctx context.Context, key string, vec []float32) error
}

type redisVectorCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisClient connects to Redis and verifies the connection with a PING.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

func NewRedisVectorCache(rdb *redis.Client, ttl time.Duration) VectorCache {
	return &redisVectorCache{rdb: rdb, ttl: ttl}
}

func (c *redisVectorCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, false, fmt.Errorf("corrupt cached vector: %w", err)
	}
	return vec, true, nil
}

func (c *redisVectorCache) Set(ctx context.Context, key string, vec []float32) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}

type cachedEmbedder struct {
	next    Embedder
	cache   VectorCache
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewCachedEmbedder serves repeated texts from cache. Cache errors are logged
// and fall through to next.
func NewCachedEmbedder(next Embedder, cache VectorCache, logger *zap.Logger, m *metrics.Metrics) Embedder {
	return &cachedEmbedder{
		next:    next,
		cache:   cache,
		logger:  logger,
		metrics: m,
	}
}

// Embed implements Embedder.
func (c *cachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := embeddingCacheKey(c.next.Model(), text)

	vec, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.metrics.ObserveCache("error")
		c.logger.Warn("embedding cache read failed", zap.Error(err))
	case ok:
		c.metrics.ObserveCache("hit")
		return vec, nil
	default:
		c.metrics.ObserveCache("miss")
	}

	vec, err = c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, vec); err != nil {
		c.logger.Warn("embedding cache write failed", zap.Error(err))
	}
	return vec, nil
}

func (c *cachedEmbedder) Model() string {
	return c.next.Model()
}

func (c *cachedEmbedder) Close() error {
	return c.next.Close()
}

func embeddingCacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return "embedding:" + hex.EncodeToString(sum[:])
}
