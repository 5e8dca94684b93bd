package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/config"
	"alfredoptarigan/resume-matcher/internal/handlers"
	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/metrics"
	"alfredoptarigan/resume-matcher/internal/repositories"
	"alfredoptarigan/resume-matcher/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ %v", err)
	}

	zlog, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()
	zlog.Info("✅ Config loaded successfully",
		zap.String("env", cfg.Server.Env),
		zap.String("similarity", cfg.Scoring.SimilarityStrategy),
		zap.String("skills", cfg.Scoring.SkillStrategy))

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Initialize database
	db, err := config.InitDatabase(cfg, zlog)
	if err != nil {
		zlog.Fatal("❌ Failed to initialize database", zap.Error(err))
	}
	batchRepo := repositories.NewBatchRepository(db)
	zlog.Info("✅ Repositories initialized successfully")

	ctx := context.Background()

	// Scoring strategies
	skills, err := services.NewSkillExtractorFromConfig(cfg.Scoring, zlog)
	if err != nil {
		zlog.Fatal("❌ Failed to initialize skill extractor", zap.Error(err))
	}

	analyzer, err := services.NewAnalyzerFromConfig(cfg.Scoring, skills)
	if err != nil {
		zlog.Fatal("❌ Failed to initialize analyzer", zap.Error(err))
	}

	var (
		embedder services.Embedder
		rdb      *redis.Client
	)
	if cfg.Scoring.SimilarityStrategy == config.SimilarityEmbedding {
		embedder, rdb, err = services.NewEmbedderFromConfig(ctx, cfg, zlog, m)
		if err != nil {
			zlog.Fatal("❌ Failed to initialize Gemini embeddings", zap.Error(err))
		}
		zlog.Info("✅ Gemini embeddings initialized",
			zap.String("model", embedder.Model()),
			zap.Bool("cache", rdb != nil))
	}

	similarity, err := services.NewSimilarityStrategyFromConfig(cfg.Scoring.SimilarityStrategy, embedder)
	if err != nil {
		zlog.Fatal("❌ Failed to initialize similarity strategy", zap.Error(err))
	}

	// Candidate index
	var (
		index       services.CandidateIndex
		indexWorker services.IndexWorker
	)
	switch {
	case cfg.Qdrant.Enabled && embedder == nil:
		zlog.Warn("⚠️  Qdrant candidate index needs the embedding similarity strategy, index disabled")
	case cfg.Qdrant.Enabled:
		index, err = services.NewQdrantCandidateIndex(cfg.Qdrant, zlog)
		if err != nil {
			zlog.Fatal("❌ Failed to initialize Qdrant", zap.Error(err))
		}
		if err := index.InitCollection(ctx); err != nil {
			zlog.Fatal("❌ Failed to initialize Qdrant collection", zap.Error(err))
		}
		indexWorker = services.NewIndexWorker(index, cfg.Pipeline.Concurrency, 256, zlog)
		indexWorker.Start(ctx)
		zlog.Info("✅ Qdrant initialized successfully", zap.String("collection", cfg.Qdrant.Collection))
	}

	parser := services.NewDocumentParserService(cfg.Storage.MaxFileSize, cfg.Pipeline.ExtractionTimeout, zlog, m)
	pipeline := services.NewPipelineService(
		parser,
		analyzer,
		similarity,
		indexWorker,
		cfg.Pipeline.Concurrency,
		zlog,
		m,
	)
	zlog.Info("✅ Services initialized successfully")

	// Initialize Handlers
	rankHandler := handlers.NewRankHandler(
		pipeline,
		services.NewUploadService(cfg.Storage.MaxFileSize),
		batchRepo,
		zlog,
	)
	batchHandler := handlers.NewBatchHandler(batchRepo, index, zlog)
	searchHandler := handlers.NewSearchHandler(embedder, index, zlog)
	zlog.Info("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Resume Matcher API",
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":     "healthy",
			"time":       time.Now(),
			"similarity": similarity.Name(),
			"skills":     skills.Name(),
		})
	})

	handlers.RegisterRoutes(api, rankHandler, batchHandler, searchHandler)
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Resume Matcher API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/rank",
				"GET /api/v1/batches/:id",
				"DELETE /api/v1/batches/:id",
				"GET /api/v1/candidates/search",
				"GET /metrics",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zlog.Info("🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			zlog.Error("❌ Server forced to shutdown", zap.Error(err))
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zlog.Info("🚀 Server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		zlog.Error("❌ Failed to start server", zap.Error(err))
	}

	if indexWorker != nil {
		indexWorker.Stop()
	}
	if index != nil {
		index.Close()
	}
	if embedder != nil {
		embedder.Close()
	}
	if rdb != nil {
		rdb.Close()
	}
	zlog.Info("✅ Shutdown complete")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
