package models

import (
	"time"

	"github.com/google/uuid"
)

// Batch is the stored form of a BatchContext.
type Batch struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	JobDescription     string          `gorm:"type:text" json:"job_description"`
	JobSkills          []string        `gorm:"type:jsonb;serializer:json" json:"job_skills"`
	SkillStrategy      string          `gorm:"type:text" json:"skill_strategy"`
	SimilarityStrategy string          `gorm:"type:text" json:"similarity_strategy"`
	SemanticWeight     float64         `json:"semantic_weight"`
	SkillWeight        float64         `json:"skill_weight"`
	Rejected           []FileRejection `gorm:"type:jsonb;serializer:json" json:"rejected"`
	ResultsCount       int             `json:"results_count"`
	CreatedAt          time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	Results []BatchResult `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE" json:"results"`
}

func (Batch) TableName() string {
	return "batches"
}

// BatchResult is one ranked AnalysisResult; Position is its 0-based rank.
type BatchResult struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"resume_id"`
	BatchID         uuid.UUID `gorm:"type:uuid;not null;index" json:"batch_id"`
	Position        int       `gorm:"not null" json:"position"`
	DisplayName     string    `gorm:"type:text" json:"display_name"`
	SemanticScore   float64   `json:"semantic_score"`
	SkillMatchRatio float64   `json:"skill_match_ratio"`
	MatchingSkills  []string  `gorm:"type:jsonb;serializer:json" json:"matching_skills"`
	MissingSkills   []string  `gorm:"type:jsonb;serializer:json" json:"missing_skills"`
	CombinedScore   float64   `json:"combined_score"`
	ContentPreview  string    `gorm:"type:text" json:"content_preview"`
}

func (BatchResult) TableName() string {
	return "batch_results"
}

// NewBatchRecord converts a finished BatchContext into its stored form.
func NewBatchRecord(bc *BatchContext) *Batch {
	batch := &Batch{
		ID:                 bc.ID,
		JobDescription:     bc.Job.Description,
		JobSkills:          bc.JobSkills.Terms(),
		SkillStrategy:      bc.SkillStrategy,
		SimilarityStrategy: bc.SimilarityStrategy,
		SemanticWeight:     bc.Weights.Semantic,
		SkillWeight:        bc.Weights.Skill,
		Rejected:           bc.Rejected,
		ResultsCount:       len(bc.Results),
		CreatedAt:          bc.CreatedAt,
		UpdatedAt:          bc.CreatedAt,
	}

	for i, r := range bc.Results {
		batch.Results = append(batch.Results, BatchResult{
			ID:              r.ResumeID,
			BatchID:         bc.ID,
			Position:        i,
			DisplayName:     r.DisplayName,
			SemanticScore:   r.SemanticScore,
			SkillMatchRatio: r.SkillMatchRatio,
			MatchingSkills:  r.MatchingSkills.Terms(),
			MissingSkills:   r.MissingSkills.Terms(),
			CombinedScore:   r.CombinedScore,
			ContentPreview:  r.ContentPreview,
		})
	}

	return batch
}

// ToContext rebuilds the BatchContext. Results must already be ordered by Position.
func (b *Batch) ToContext() *BatchContext {
	bc := &BatchContext{
		ID:                 b.ID,
		Job:                JobPosting{Description: b.JobDescription},
		JobSkills:          NewSkillSet(b.JobSkills...),
		Rejected:           b.Rejected,
		SkillStrategy:      b.SkillStrategy,
		SimilarityStrategy: b.SimilarityStrategy,
		Weights:            Weights{Semantic: b.SemanticWeight, Skill: b.SkillWeight},
		CreatedAt:          b.CreatedAt,
		Results:            make(RankedBatch, 0, len(b.Results)),
	}

	for _, r := range b.Results {
		bc.Results = append(bc.Results, AnalysisResult{
			ResumeID:        r.ID,
			DisplayName:     r.DisplayName,
			SemanticScore:   r.SemanticScore,
			SkillMatchRatio: r.SkillMatchRatio,
			MatchingSkills:  NewSkillSet(r.MatchingSkills...),
			MissingSkills:   NewSkillSet(r.MissingSkills...),
			CombinedScore:   r.CombinedScore,
			ContentPreview:  r.ContentPreview,
		})
	}

	return bc
}
