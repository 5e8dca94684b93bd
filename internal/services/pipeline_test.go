package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/metrics"
	"alfredoptarigan/resume-matcher/internal/models"
)

const testJob = "Python developer with SQL and Docker experience"

type recordingIndexWorker struct {
	mu   sync.Mutex
	jobs []IndexJob
}

func (r *recordingIndexWorker) Start(context.Context) {}
func (r *recordingIndexWorker) Stop()                 {}

func (r *recordingIndexWorker) Enqueue(job IndexJob) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return true
}

func newTestPipeline(t *testing.T, similarity SimilarityStrategy, indexer IndexWorker, m *metrics.Metrics) PipelineService {
	t.Helper()
	parser := NewDocumentParserService(1<<20, 5*time.Second, zap.NewNop(), m)
	return NewPipelineService(parser, newTestAnalyzer(t), similarity, indexer, 2, zap.NewNop(), m)
}

func oversizeDoc(name string) models.ResumeDocument {
	doc := models.NewResumeDocument(name, nil)
	doc.Size = 2 << 20
	return doc
}

func TestPipelineService_MixedBatch(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	pipeline := newTestPipeline(t, NewTFIDFStrategy(), nil, m)

	docs := []models.ResumeDocument{
		docxResume(t, "alice.docx", "Python developer", "Strong SQL"),
		models.NewResumeDocument("notes.txt", []byte("Python SQL Docker")),
		docxResume(t, "carol.docx", "Python developer", "SQL and Docker"),
		models.NewResumeDocument("broken.pdf", []byte("not a pdf at all")),
		oversizeDoc("huge.docx"),
	}

	batch, err := pipeline.Process(context.Background(), models.JobPosting{Description: testJob}, docs)
	require.NoError(t, err)
	require.NotNil(t, batch)

	assert.Equal(t, []string{"python", "sql", "docker"}, batch.JobSkills.Terms())
	assert.Equal(t, []string{"carol.docx", "alice.docx"}, names(batch.Results))
	assert.Equal(t, 1.0, batch.Results[0].SkillMatchRatio)
	assert.InDelta(t, 2.0/3.0, batch.Results[1].SkillMatchRatio, 1e-9)
	assert.Equal(t, docs[2].ID, batch.Results[0].ResumeID)

	require.Len(t, batch.Rejected, 3)
	assert.Equal(t, "notes.txt", batch.Rejected[0].DisplayName)
	assert.Equal(t, models.ReasonUnsupportedFormat, batch.Rejected[0].Reason)
	assert.Equal(t, "broken.pdf", batch.Rejected[1].DisplayName)
	assert.Equal(t, models.ReasonExtractionFailure, batch.Rejected[1].Reason)
	assert.Equal(t, "huge.docx", batch.Rejected[2].DisplayName)
	assert.Equal(t, models.ReasonOversizeFile, batch.Rejected[2].Reason)

	assert.Equal(t, "vocabulary", batch.SkillStrategy)
	assert.Equal(t, "tfidf", batch.SimilarityStrategy)
	assert.Equal(t, defaultWeights, batch.Weights)
	assert.False(t, batch.CreatedAt.IsZero())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesTotal.WithLabelValues("ranked")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ResumesAnalyzed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesRejectedTotal.WithLabelValues("unsupported_format")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesRejectedTotal.WithLabelValues("extraction_failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesRejectedTotal.WithLabelValues("oversize_file")))
}

func TestPipelineService_EmptyBatch(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	pipeline := newTestPipeline(t, NewTFIDFStrategy(), nil, m)

	docs := []models.ResumeDocument{
		models.NewResumeDocument("resume.txt", []byte("Python")),
		models.NewResumeDocument("scan.pdf", []byte("%PDF-garbage")),
	}

	batch, err := pipeline.Process(context.Background(), models.JobPosting{Description: testJob}, docs)
	require.ErrorIs(t, err, ErrEmptyBatch)
	require.NotNil(t, batch)
	assert.Empty(t, batch.Results)
	require.Len(t, batch.Rejected, 2)
	assert.Equal(t, models.ReasonUnsupportedFormat, batch.Rejected[0].Reason)
	assert.Equal(t, models.ReasonExtractionFailure, batch.Rejected[1].Reason)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesTotal.WithLabelValues("empty")))
}

func TestPipelineService_NoDocuments(t *testing.T) {
	pipeline := newTestPipeline(t, NewTFIDFStrategy(), nil, nil)

	batch, err := pipeline.Process(context.Background(), models.JobPosting{Description: testJob}, nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)
	require.NotNil(t, batch)
	assert.Empty(t, batch.Rejected)
}

func TestPipelineService_SlowDocumentRejected(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	parser := newSlowParser(t, 50*time.Millisecond, "slow.docx")
	pipeline := NewPipelineService(parser, newTestAnalyzer(t), NewTFIDFStrategy(), nil, 2, zap.NewNop(), m)

	docs := []models.ResumeDocument{
		docxResume(t, "alice.docx", "Python developer", "Strong SQL"),
		docxResume(t, "slow.docx", "Python SQL Docker"),
		docxResume(t, "carol.docx", "Python developer", "SQL and Docker"),
	}

	batch, err := pipeline.Process(context.Background(), models.JobPosting{Description: testJob}, docs)
	require.NoError(t, err)

	assert.Equal(t, []string{"carol.docx", "alice.docx"}, names(batch.Results))
	require.Len(t, batch.Rejected, 1)
	assert.Equal(t, "slow.docx", batch.Rejected[0].DisplayName)
	assert.Equal(t, models.ReasonExtractionFailure, batch.Rejected[0].Reason)
	assert.Contains(t, batch.Rejected[0].Message, "deadline exceeded")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesRejectedTotal.WithLabelValues("extraction_failure")))
}

func TestPipelineService_EmptyDocumentStillRanked(t *testing.T) {
	pipeline := newTestPipeline(t, NewTFIDFStrategy(), nil, nil)

	docs := []models.ResumeDocument{
		models.NewResumeDocument("blank.docx", buildDOCX(t)),
		docxResume(t, "bob.docx", "Python"),
	}

	batch, err := pipeline.Process(context.Background(), models.JobPosting{Description: testJob}, docs)
	require.NoError(t, err)
	require.Len(t, batch.Results, 2)
	assert.Empty(t, batch.Rejected)

	assert.Equal(t, "bob.docx", batch.Results[0].DisplayName)
	assert.Equal(t, "blank.docx", batch.Results[1].DisplayName)
	assert.Equal(t, 0.0, batch.Results[1].CombinedScore)
}

func TestPipelineService_ScoringFailure(t *testing.T) {
	embedder := &stubEmbedder{err: errors.New("model unavailable")}
	pipeline := newTestPipeline(t, NewEmbeddingStrategy(embedder), nil, nil)

	docs := []models.ResumeDocument{docxResume(t, "alice.docx", "Python")}

	batch, err := pipeline.Process(context.Background(), models.JobPosting{Description: testJob}, docs)
	require.ErrorIs(t, err, ErrEmptyBatch)
	require.Len(t, batch.Rejected, 1)
	assert.Equal(t, models.ReasonScoringFailure, batch.Rejected[0].Reason)
	assert.Contains(t, batch.Rejected[0].Message, "model unavailable")
}

func TestPipelineService_IndexesEmbeddedResumes(t *testing.T) {
	embedder := &stubEmbedder{}
	indexer := &recordingIndexWorker{}
	pipeline := newTestPipeline(t, NewEmbeddingStrategy(embedder), indexer, nil)

	docs := []models.ResumeDocument{
		docxResume(t, "alice.docx", "Python"),
		models.NewResumeDocument("blank.docx", buildDOCX(t)),
	}

	batch, err := pipeline.Process(context.Background(), models.JobPosting{Description: testJob}, docs)
	require.NoError(t, err)

	// nothing is indexed until the caller asks for it
	assert.Empty(t, indexer.jobs)
	require.Len(t, batch.Embeddings, 1)

	assert.Equal(t, 1, pipeline.Index(batch))
	require.Len(t, indexer.jobs, 1)
	assert.Equal(t, batch.ID, indexer.jobs[0].BatchID)
	assert.Equal(t, docs[0].ID, indexer.jobs[0].Result.ResumeID)
	assert.Equal(t, []float32{0, 0, 1}, indexer.jobs[0].Embedding)

	// job and alice are embedded once each; the blank resume never reaches the model
	assert.Equal(t, int32(2), embedder.calls.Load())
}

func TestPipelineService_TFIDFIsNotIndexed(t *testing.T) {
	indexer := &recordingIndexWorker{}
	pipeline := newTestPipeline(t, NewTFIDFStrategy(), indexer, nil)

	batch, err := pipeline.Process(context.Background(), models.JobPosting{Description: testJob},
		[]models.ResumeDocument{docxResume(t, "alice.docx", "Python")})
	require.NoError(t, err)
	assert.Equal(t, 0, pipeline.Index(batch))
	assert.Empty(t, indexer.jobs)
}

func TestPipelineService_IndexWithoutIndexer(t *testing.T) {
	pipeline := newTestPipeline(t, NewEmbeddingStrategy(&stubEmbedder{}), nil, nil)

	batch, err := pipeline.Process(context.Background(), models.JobPosting{Description: testJob},
		[]models.ResumeDocument{docxResume(t, "alice.docx", "Python")})
	require.NoError(t, err)
	assert.Empty(t, batch.Embeddings)
	assert.Equal(t, 0, pipeline.Index(batch))
}

func TestPipelineService_Cancelled(t *testing.T) {
	pipeline := newTestPipeline(t, NewTFIDFStrategy(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch, err := pipeline.Process(ctx, models.JobPosting{Description: testJob},
		[]models.ResumeDocument{docxResume(t, "alice.docx", "Python")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, batch)
}

func TestPipelineService_DeterministicOrder(t *testing.T) {
	pipeline := newTestPipeline(t, NewTFIDFStrategy(), nil, nil)

	docs := make([]models.ResumeDocument, 0, 8)
	for _, name := range []string{"a.docx", "b.docx", "c.docx", "d.docx", "e.docx", "f.docx", "g.docx", "h.docx"} {
		docs = append(docs, docxResume(t, name, "Python and SQL"))
	}

	batch, err := pipeline.Process(context.Background(), models.JobPosting{Description: testJob}, docs)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.docx", "b.docx", "c.docx", "d.docx", "e.docx", "f.docx", "g.docx", "h.docx"}, names(batch.Results))
}
