package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-matcher/internal/models"
)

type fixedScorer struct {
	score float64
	err   error
}

func (f fixedScorer) Similarity(context.Context, string, string) (float64, error) {
	return f.score, f.err
}

var defaultWeights = models.Weights{Semantic: 0.6, Skill: 0.4}

func newTestAnalyzer(t *testing.T) AnalyzerService {
	t.Helper()
	analyzer, err := NewAnalyzerService(NewVocabularySkillExtractor(DefaultVocabulary()), defaultWeights, 500)
	require.NoError(t, err)
	return analyzer
}

func analyze(t *testing.T, analyzer AnalyzerService, scorer SimilarityScorer, jobText, resumeText string) models.AnalysisResult {
	t.Helper()
	job := models.JobPosting{Description: jobText}
	jobSkills := analyzer.SkillExtractor().Extract(jobText)
	result, err := analyzer.Analyze(context.Background(), scorer, job, jobSkills, resumeText, "resume.pdf", uuid.New())
	require.NoError(t, err)
	return result
}

func TestAnalyzerService_Scenario(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	result := analyze(t, analyzer, fixedScorer{score: 0.5},
		"Python developer with SQL and Docker experience",
		"Experienced Python engineer, strong SQL")

	assert.Equal(t, []string{"python", "sql"}, result.MatchingSkills.Terms())
	assert.Equal(t, []string{"docker"}, result.MissingSkills.Terms())
	assert.InDelta(t, 2.0/3.0, result.SkillMatchRatio, 1e-9)
	assert.Equal(t, 0.5, result.SemanticScore)
	assert.Equal(t, 56.67, result.CombinedScore)
	assert.Equal(t, "resume.pdf", result.DisplayName)
	assert.Equal(t, "Experienced Python engineer, strong SQL", result.ContentPreview)
}

func TestAnalyzerService_EmptyResume(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	result := analyze(t, analyzer, fixedScorer{score: 0},
		"Python developer with SQL and Docker experience", "")

	assert.Equal(t, 0.0, result.SkillMatchRatio)
	assert.Equal(t, 0.0, result.CombinedScore)
	assert.Equal(t, []string{}, result.MatchingSkills.Terms())
	assert.Equal(t, []string{"python", "sql", "docker"}, result.MissingSkills.Terms())
	assert.Equal(t, "", result.ContentPreview)
}

func TestAnalyzerService_NoJobSkills(t *testing.T) {
	analyzer := newTestAnalyzer(t)

	result := analyze(t, analyzer, fixedScorer{score: 0.8}, "Friendly team player", "Python and SQL")

	assert.Equal(t, 0.0, result.SkillMatchRatio)
	assert.Equal(t, 48.0, result.CombinedScore)
	assert.Equal(t, 0, result.MatchingSkills.Len())
	assert.Equal(t, 0, result.MissingSkills.Len())
}

func TestAnalyzerService_Bounds(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	jobText := "Go, Kubernetes, Kafka, Redis and PostgreSQL"

	tests := []struct {
		name   string
		score  float64
		resume string
	}{
		{"negative similarity", -0.7, "Go and Kafka"},
		{"overshooting similarity", 1.3, "Go, Kubernetes, Kafka, Redis, PostgreSQL"},
		{"nothing in common", 0, "Pastry chef"},
		{"partial", 0.33, "Redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := analyze(t, analyzer, fixedScorer{score: tt.score}, jobText, tt.resume)

			assert.GreaterOrEqual(t, result.CombinedScore, 0.0)
			assert.LessOrEqual(t, result.CombinedScore, 100.0)
			assert.GreaterOrEqual(t, result.SemanticScore, 0.0)
			assert.LessOrEqual(t, result.SemanticScore, 1.0)

			jobSkills := analyzer.SkillExtractor().Extract(jobText)
			assert.Equal(t, 0, result.MatchingSkills.Intersect(result.MissingSkills).Len())
			assert.Equal(t, jobSkills.Len(), result.MatchingSkills.Len()+result.MissingSkills.Len())
			for _, term := range jobSkills.Terms() {
				assert.True(t, result.MatchingSkills.Contains(term) || result.MissingSkills.Contains(term), term)
			}
		})
	}
}

func TestAnalyzerService_Idempotent(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	job := models.JobPosting{Description: "Python developer with SQL and Docker experience"}
	jobSkills := analyzer.SkillExtractor().Extract(job.Description)
	id := uuid.New()

	scorer, err := NewTFIDFStrategy().ForBatch(context.Background(), []string{job.Description, "Python and Docker"})
	require.NoError(t, err)

	first, err := analyzer.Analyze(context.Background(), scorer, job, jobSkills, "Python and Docker", "a.docx", id)
	require.NoError(t, err)
	second, err := analyzer.Analyze(context.Background(), scorer, job, jobSkills, "Python and Docker", "a.docx", id)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalyzerService_Preview(t *testing.T) {
	analyzer, err := NewAnalyzerService(NewVocabularySkillExtractor(DefaultVocabulary()), defaultWeights, 5)
	require.NoError(t, err)

	result := analyze(t, analyzer, fixedScorer{}, "Go", "Résumé of a Go developer")
	assert.Equal(t, "Résum...", result.ContentPreview)

	exact := analyze(t, analyzer, fixedScorer{}, "Go", "12345")
	assert.Equal(t, "12345", exact.ContentPreview)

	long := analyze(t, newTestAnalyzer(t), fixedScorer{}, "Go", strings.Repeat("x", 600))
	assert.Len(t, long.ContentPreview, 503)
}

func TestAnalyzerService_ScorerError(t *testing.T) {
	analyzer := newTestAnalyzer(t)
	job := models.JobPosting{Description: "Go"}

	_, err := analyzer.Analyze(context.Background(), fixedScorer{err: errors.New("model down")}, job,
		models.NewSkillSet("go"), "Go", "a.pdf", uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.pdf")
	assert.Contains(t, err.Error(), "model down")
}

func TestNewAnalyzerService_InvalidWeights(t *testing.T) {
	skills := NewVocabularySkillExtractor(DefaultVocabulary())

	_, err := NewAnalyzerService(skills, models.Weights{Semantic: 0.7, Skill: 0.4}, 500)
	assert.Error(t, err)

	_, err = NewAnalyzerService(skills, models.Weights{Semantic: 1.5, Skill: -0.5}, 500)
	assert.Error(t, err)

	a, err := NewAnalyzerService(skills, models.Weights{Semantic: 1, Skill: 0}, 500)
	require.NoError(t, err)
	assert.Equal(t, models.Weights{Semantic: 1, Skill: 0}, a.Weights())
}

func TestCombinedScore(t *testing.T) {
	assert.Equal(t, 100.0, combinedScore(1, 1, defaultWeights))
	assert.Equal(t, 0.0, combinedScore(0, 0, defaultWeights))
	assert.Equal(t, 56.67, combinedScore(0.5, 2.0/3.0, defaultWeights))
	assert.Equal(t, 12.35, combinedScore(0.20583, 0, models.Weights{Semantic: 0.6, Skill: 0.4}))
}
