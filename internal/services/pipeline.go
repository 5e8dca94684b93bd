package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/resume-matcher/internal/metrics"
	"alfredoptarigan/resume-matcher/internal/models"
)

// PipelineService ranks one batch of resumes against a job description.
type PipelineService interface {
	// Process returns the populated batch. When no resume survives intake,
	// extraction and scoring it returns ErrEmptyBatch together with the batch,
	// whose Rejected field explains why.
	Process(ctx context.Context, job models.JobPosting, docs []models.ResumeDocument) (*models.BatchContext, error)

	// Index hands the ranked resumes of a processed batch to the candidate
	// index and reports how many were queued. Callers that persist batches
	// call it only after the batch is stored.
	Index(batch *models.BatchContext) int
}

type pipelineService struct {
	parser      DocumentParserService
	analyzer    AnalyzerService
	similarity  SimilarityStrategy
	indexer     IndexWorker
	concurrency int
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewPipelineService wires the batch stages. indexer may be nil.
func NewPipelineService(
	parser DocumentParserService,
	analyzer AnalyzerService,
	similarity SimilarityStrategy,
	indexer IndexWorker,
	concurrency int,
	logger *zap.Logger,
	m *metrics.Metrics,
) PipelineService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &pipelineService{
		parser:      parser,
		analyzer:    analyzer,
		similarity:  similarity,
		indexer:     indexer,
		concurrency: concurrency,
		logger:      logger,
		metrics:     m,
	}
}

// fileOutcome is the per-upload state, stored by upload index.
type fileOutcome struct {
	text   string
	result models.AnalysisResult
	err    error
}

// Process implements PipelineService.
func (p *pipelineService) Process(ctx context.Context, job models.JobPosting, docs []models.ResumeDocument) (*models.BatchContext, error) {
	start := time.Now()
	skills := p.analyzer.SkillExtractor()

	batch := &models.BatchContext{
		ID:                 uuid.New(),
		Job:                job,
		JobSkills:          skills.Extract(job.Description),
		SkillStrategy:      skills.Name(),
		SimilarityStrategy: p.similarity.Name(),
		Weights:            p.analyzer.Weights(),
		CreatedAt:          start.UTC(),
	}

	outcomes := make([]fileOutcome, len(docs))
	for i, doc := range docs {
		outcomes[i].err = p.parser.Validate(doc)
	}

	if err := p.extract(ctx, docs, outcomes); err != nil {
		return nil, err
	}

	corpus := []string{job.Description}
	for i := range outcomes {
		if outcomes[i].err == nil {
			corpus = append(corpus, outcomes[i].text)
		}
	}

	scorer, err := p.similarity.ForBatch(ctx, corpus)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare %s similarity: %w", p.similarity.Name(), err)
	}

	if err := p.analyze(ctx, scorer, batch, docs, outcomes); err != nil {
		return nil, err
	}

	results := make([]models.AnalysisResult, 0, len(docs))
	for i, out := range outcomes {
		if out.err != nil {
			reason := rejectionReason(out.err)
			batch.Rejected = append(batch.Rejected, models.FileRejection{
				DisplayName: docs[i].DisplayName,
				Reason:      reason,
				Message:     out.err.Error(),
			})
			p.metrics.ObserveRejection(string(reason))
			p.logger.Warn("resume excluded from batch",
				zap.String("batch_id", batch.ID.String()),
				zap.String("file", docs[i].DisplayName),
				zap.String("reason", string(reason)),
				zap.Error(out.err))
			continue
		}
		results = append(results, out.result)
		p.metrics.ObserveResult(out.result.CombinedScore)
	}

	batch.Results = RankResults(results)

	if len(batch.Results) == 0 {
		p.metrics.ObserveBatch("empty")
		p.logger.Warn("no valid resumes in batch",
			zap.String("batch_id", batch.ID.String()),
			zap.Int("rejected", len(batch.Rejected)))
		return batch, ErrEmptyBatch
	}

	p.metrics.ObserveBatch("ranked")
	p.collectEmbeddings(ctx, scorer, batch, outcomes)

	p.logger.Info("batch ranked",
		zap.String("batch_id", batch.ID.String()),
		zap.Int("results", len(batch.Results)),
		zap.Int("rejected", len(batch.Rejected)),
		zap.String("similarity", batch.SimilarityStrategy),
		zap.Duration("elapsed", time.Since(start)))

	return batch, nil
}

// extract fills in the text of every document that passed intake. Per-file
// failures are recorded in outcomes; only cancellation aborts the batch.
func (p *pipelineService) extract(ctx context.Context, docs []models.ResumeDocument, outcomes []fileOutcome) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i := range docs {
		if outcomes[i].err != nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i].text, outcomes[i].err = p.parser.ExtractText(gctx, docs[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("extraction aborted: %w", err)
	}
	return ctx.Err()
}

func (p *pipelineService) analyze(ctx context.Context, scorer SimilarityScorer, batch *models.BatchContext,
	docs []models.ResumeDocument, outcomes []fileOutcome) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i := range docs {
		if outcomes[i].err != nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := p.analyzer.Analyze(gctx, scorer, batch.Job, batch.JobSkills,
				outcomes[i].text, docs[i].DisplayName, docs[i].ID)
			if err != nil {
				outcomes[i].err = fmt.Errorf("%s: %w: %v", docs[i].DisplayName, ErrScoringFailure, err)
				return nil
			}
			outcomes[i].result = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("analysis aborted: %w", err)
	}
	return ctx.Err()
}

// collectEmbeddings keeps the vector of every ranked resume for Index.
// Scorers without vectors, such as TF-IDF, are skipped.
func (p *pipelineService) collectEmbeddings(ctx context.Context, scorer SimilarityScorer, batch *models.BatchContext, outcomes []fileOutcome) {
	if p.indexer == nil {
		return
	}
	source, ok := scorer.(VectorSource)
	if !ok {
		return
	}

	for _, out := range outcomes {
		if out.err != nil || strings.TrimSpace(out.text) == "" {
			continue
		}
		vec, err := source.Vector(ctx, out.text)
		if err != nil {
			p.logger.Warn("no embedding for candidate index",
				zap.String("resume_id", out.result.ResumeID.String()),
				zap.Error(err))
			continue
		}
		if batch.Embeddings == nil {
			batch.Embeddings = make(map[uuid.UUID][]float32)
		}
		batch.Embeddings[out.result.ResumeID] = vec
	}
}

// Index implements PipelineService.
func (p *pipelineService) Index(batch *models.BatchContext) int {
	if p.indexer == nil || batch == nil {
		return 0
	}

	queued := 0
	for _, result := range batch.Results {
		vec, ok := batch.Embeddings[result.ResumeID]
		if !ok {
			continue
		}
		if p.indexer.Enqueue(IndexJob{BatchID: batch.ID, Result: result, Embedding: vec}) {
			queued++
		}
	}
	return queued
}
