package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisResult is the per-resume outcome of one batch. It is never mutated
// after the analyzer returns it.
type AnalysisResult struct {
	ResumeID        uuid.UUID `json:"resume_id"`
	DisplayName     string    `json:"display_name"`
	SemanticScore   float64   `json:"semantic_score"`
	SkillMatchRatio float64   `json:"skill_match_ratio"`
	MatchingSkills  SkillSet  `json:"matching_skills"`
	MissingSkills   SkillSet  `json:"missing_skills"`
	CombinedScore   float64   `json:"combined_score"`
	ContentPreview  string    `json:"content_preview"`
}

// RankedBatch is ordered by CombinedScore descending; equal scores keep upload order.
type RankedBatch []AnalysisResult

type RejectionReason string

const (
	ReasonUnsupportedFormat RejectionReason = "unsupported_format"
	ReasonOversizeFile      RejectionReason = "oversize_file"
	ReasonExtractionFailure RejectionReason = "extraction_failure"
	ReasonScoringFailure    RejectionReason = "scoring_failure"
)

// FileRejection reports an uploaded file that was excluded from a batch.
type FileRejection struct {
	DisplayName string          `json:"display_name"`
	Reason      RejectionReason `json:"reason"`
	Message     string          `json:"message"`
}

type Weights struct {
	Semantic float64 `json:"semantic"`
	Skill    float64 `json:"skill"`
}

// BatchContext carries everything produced for one job description and its
// resumes. It is returned to the caller instead of being kept in any session.
type BatchContext struct {
	ID                 uuid.UUID       `json:"batch_id"`
	Job                JobPosting      `json:"job"`
	JobSkills          SkillSet        `json:"job_skills"`
	Results            RankedBatch     `json:"results"`
	Rejected           []FileRejection `json:"rejected"`
	SkillStrategy      string          `json:"skill_strategy"`
	SimilarityStrategy string          `json:"similarity_strategy"`
	Weights            Weights         `json:"weights"`
	CreatedAt          time.Time       `json:"created_at"`

	// Embeddings holds resume vectors for the candidate index, keyed by
	// ResumeID. It stays in memory and is never returned or stored.
	Embeddings map[uuid.UUID][]float32 `json:"-"`
}
