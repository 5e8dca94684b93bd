package services

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"alfredoptarigan/resume-matcher/internal/models"
)

// AnalyzerService scores one resume against a job description.
type AnalyzerService interface {
	SkillExtractor() SkillExtractor
	Weights() models.Weights
	// Analyze builds the result for one resume. jobSkills is extracted once
	// per batch by the caller with the same SkillExtractor.
	Analyze(ctx context.Context, scorer SimilarityScorer, job models.JobPosting, jobSkills models.SkillSet,
		resumeText, displayName string, resumeID uuid.UUID) (models.AnalysisResult, error)
}

type analyzerService struct {
	skills        SkillExtractor
	weights       models.Weights
	previewLength int
}

func NewAnalyzerService(skills SkillExtractor, weights models.Weights, previewLength int) (AnalyzerService, error) {
	if weights.Semantic < 0 || weights.Semantic > 1 || weights.Skill < 0 || weights.Skill > 1 {
		return nil, fmt.Errorf("weights must be within [0,1], got %+v", weights)
	}
	if math.Abs(weights.Semantic+weights.Skill-1) > 1e-6 {
		return nil, fmt.Errorf("weights must sum to 1, got %v", weights.Semantic+weights.Skill)
	}
	if previewLength <= 0 {
		previewLength = 500
	}

	return &analyzerService{
		skills:        skills,
		weights:       weights,
		previewLength: previewLength,
	}, nil
}

func (a *analyzerService) SkillExtractor() SkillExtractor {
	return a.skills
}

func (a *analyzerService) Weights() models.Weights {
	return a.weights
}

// Analyze implements AnalyzerService.
func (a *analyzerService) Analyze(
	ctx context.Context,
	scorer SimilarityScorer,
	job models.JobPosting,
	jobSkills models.SkillSet,
	resumeText, displayName string,
	resumeID uuid.UUID,
) (models.AnalysisResult, error) {
	resumeSkills := a.skills.Extract(resumeText)
	matching := jobSkills.Intersect(resumeSkills)
	missing := jobSkills.Difference(resumeSkills)

	ratio := 0.0
	if jobSkills.Len() > 0 {
		ratio = float64(matching.Len()) / float64(jobSkills.Len())
	}

	semantic, err := scorer.Similarity(ctx, job.Description, resumeText)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("failed to score %s: %w", displayName, err)
	}
	semantic = clamp(semantic)

	return models.AnalysisResult{
		ResumeID:        resumeID,
		DisplayName:     displayName,
		SemanticScore:   semantic,
		SkillMatchRatio: ratio,
		MatchingSkills:  matching,
		MissingSkills:   missing,
		CombinedScore:   combinedScore(semantic, ratio, a.weights),
		ContentPreview:  preview(resumeText, a.previewLength),
	}, nil
}

// combinedScore blends both signals onto a 0-100 scale with two decimals.
func combinedScore(semantic, ratio float64, w models.Weights) float64 {
	raw := (semantic*w.Semantic + ratio*w.Skill) * 100
	return math.Round(raw*100) / 100
}

// preview keeps the first n runes and marks truncation with "...".
func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
