package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/config"
)

type breakerEmbedder struct {
	next Embedder
	cb   *gobreaker.CircuitBreaker[[]float32]
}

// NewBreakerEmbedder stops calling next once its failure ratio crosses the
// configured threshold. A disabled breaker returns next unchanged.
func NewBreakerEmbedder(next Embedder, cfg config.CircuitBreakerConfig, logger *zap.Logger) Embedder {
	if !cfg.Enabled {
		return next
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("embed-%s", next.Model()),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// a cancelled request says nothing about the model's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &breakerEmbedder{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[[]float32](settings),
	}
}

// Embed implements Embedder.
func (b *breakerEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := b.cb.Execute(func() ([]float32, error) {
		return b.next.Embed(ctx, text)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("embedding model unavailable: %w", err)
	}
	return v, err
}

func (b *breakerEmbedder) Model() string {
	return b.next.Model()
}

func (b *breakerEmbedder) Close() error {
	return b.next.Close()
}
