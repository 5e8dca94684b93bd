package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/config"
	"alfredoptarigan/resume-matcher/internal/metrics"
)

func testBreakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}
}

func TestBreakerEmbedder_TripsAfterFailures(t *testing.T) {
	ctx := context.Background()
	stub := &stubEmbedder{err: errors.New("503 from model")}
	embedder := NewBreakerEmbedder(stub, testBreakerConfig(), zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := embedder.Embed(ctx, "text")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503 from model")
	}

	_, err := embedder.Embed(ctx, "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), stub.calls.Load(), "open breaker must not reach the model")
}

func TestBreakerEmbedder_IgnoresCancellation(t *testing.T) {
	stub := &stubEmbedder{err: context.Canceled}
	embedder := NewBreakerEmbedder(stub, testBreakerConfig(), zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := embedder.Embed(context.Background(), "text")
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, int32(3), stub.calls.Load())
}

func TestBreakerEmbedder_Disabled(t *testing.T) {
	stub := &stubEmbedder{}
	cfg := testBreakerConfig()
	cfg.Enabled = false

	embedder := NewBreakerEmbedder(stub, cfg, zap.NewNop())
	assert.Same(t, Embedder(stub), embedder)
}

type mapVectorCache struct {
	mu      sync.Mutex
	entries map[string][]float32
	getErr  error
}

func (m *mapVectorCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *mapVectorCache) Set(_ context.Context, key string, vec []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string][]float32)
	}
	m.entries[key] = vec
	return nil
}

func TestCachedEmbedder_HitAndMiss(t *testing.T) {
	ctx := context.Background()
	stub := &stubEmbedder{vectors: map[string][]float32{"resume": {0.1, 0.2}}}
	m := metrics.New(prometheus.NewRegistry())
	embedder := NewCachedEmbedder(stub, &mapVectorCache{}, zap.NewNop(), m)

	first, err := embedder.Embed(ctx, "resume")
	require.NoError(t, err)
	second, err := embedder.Embed(ctx, "resume")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), stub.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmbeddingCache.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmbeddingCache.WithLabelValues("hit")))
	assert.Equal(t, "stub-model", embedder.Model())
}

func TestCachedEmbedder_CacheErrorFallsThrough(t *testing.T) {
	stub := &stubEmbedder{}
	cache := &mapVectorCache{getErr: errors.New("connection refused")}
	embedder := NewCachedEmbedder(stub, cache, zap.NewNop(), nil)

	v, err := embedder.Embed(context.Background(), "resume")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 1}, v)
	assert.Equal(t, int32(1), stub.calls.Load())
}

func TestCachedEmbedder_ModelErrorIsNotCached(t *testing.T) {
	stub := &stubEmbedder{err: errors.New("boom")}
	cache := &mapVectorCache{}
	embedder := NewCachedEmbedder(stub, cache, zap.NewNop(), nil)

	_, err := embedder.Embed(context.Background(), "resume")
	require.Error(t, err)
	assert.Empty(t, cache.entries)
}

func TestEmbeddingCacheKey(t *testing.T) {
	a := embeddingCacheKey("text-embedding-004", "resume")
	assert.Equal(t, a, embeddingCacheKey("text-embedding-004", "resume"))
	assert.NotEqual(t, a, embeddingCacheKey("other-model", "resume"))
	assert.NotEqual(t, a, embeddingCacheKey("text-embedding-004", "resume "))
	assert.Regexp(t, `^embedding:[0-9a-f]{64}$`, a)
}

func TestMeanPool(t *testing.T) {
	v, err := meanPool([][]float32{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3}, v)

	v, err = meanPool([][]float32{{5, 6}})
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 6}, v)

	_, err = meanPool(nil)
	assert.Error(t, err)

	_, err = meanPool([][]float32{{1, 2}, {3}})
	assert.Error(t, err)
}
