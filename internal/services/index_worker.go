package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/models"
)

// IndexJob is one analysed resume waiting to be written to the candidate index.
type IndexJob struct {
	BatchID   uuid.UUID
	Result    models.AnalysisResult
	Embedding []float32
}

// IndexWorker writes candidates to the index in the background so ranking never
// waits on, or fails because of, the index.
type IndexWorker interface {
	Start(ctx context.Context)
	Stop()
	// Enqueue reports false when the job was dropped because the queue is
	// full or the worker has stopped.
	Enqueue(job IndexJob) bool
}

type indexWorker struct {
	index       CandidateIndex
	jobQueue    chan IndexJob
	concurrency int
	wg          sync.WaitGroup
	stopChan    chan struct{}
	stopOnce    sync.Once
	logger      *zap.Logger
}

func NewIndexWorker(index CandidateIndex, concurrency, queueSize int, logger *zap.Logger) IndexWorker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &indexWorker{
		index:       index,
		jobQueue:    make(chan IndexJob, queueSize),
		concurrency: concurrency,
		stopChan:    make(chan struct{}),
		logger:      logger,
	}
}

// Start implements IndexWorker.
func (w *indexWorker) Start(ctx context.Context) {
	w.logger.Info("starting index worker", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}
}

// Stop implements IndexWorker. Jobs still queued are written before it returns.
func (w *indexWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})
	w.wg.Wait()
	w.logger.Info("index worker stopped")
}

// Enqueue implements IndexWorker.
func (w *indexWorker) Enqueue(job IndexJob) bool {
	select {
	case <-w.stopChan:
		w.logger.Warn("index worker stopped, dropping candidate",
			zap.String("resume_id", job.Result.ResumeID.String()))
		return false
	default:
	}

	select {
	case w.jobQueue <- job:
		return true
	default:
		w.logger.Warn("index queue full, dropping candidate",
			zap.String("resume_id", job.Result.ResumeID.String()))
		return false
	}
}

func (w *indexWorker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case job := <-w.jobQueue:
			w.process(ctx, workerID, job)
		case <-w.stopChan:
			w.drain(ctx, workerID)
			return
		}
	}
}

func (w *indexWorker) drain(ctx context.Context, workerID int) {
	for {
		select {
		case job := <-w.jobQueue:
			w.process(ctx, workerID, job)
		default:
			return
		}
	}
}

func (w *indexWorker) process(ctx context.Context, workerID int, job IndexJob) {
	if err := w.index.IndexCandidate(ctx, job.BatchID, job.Result, job.Embedding); err != nil {
		w.logger.Warn("failed to index candidate",
			zap.Int("worker", workerID),
			zap.String("batch_id", job.BatchID.String()),
			zap.String("resume_id", job.Result.ResumeID.String()),
			zap.Error(err))
		return
	}
	w.logger.Debug("candidate indexed",
		zap.Int("worker", workerID),
		zap.String("resume_id", job.Result.ResumeID.String()))
}
