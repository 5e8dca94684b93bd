package models

import "time"

type BatchResponse struct {
	BatchID            string          `json:"batch_id"`
	JobSkills          []string        `json:"job_skills"`
	ResultsCount       int             `json:"results_count"`
	Results            RankedBatch     `json:"results"`
	Rejected           []FileRejection `json:"rejected"`
	SkillStrategy      string          `json:"skill_strategy"`
	SimilarityStrategy string          `json:"similarity_strategy"`
	Weights            Weights         `json:"weights"`
	CreatedAt          time.Time       `json:"created_at"`
}

func NewBatchResponse(bc *BatchContext) BatchResponse {
	rejected := bc.Rejected
	if rejected == nil {
		rejected = []FileRejection{}
	}
	results := bc.Results
	if results == nil {
		results = RankedBatch{}
	}

	return BatchResponse{
		BatchID:            bc.ID.String(),
		JobSkills:          bc.JobSkills.Terms(),
		ResultsCount:       len(results),
		Results:            results,
		Rejected:           rejected,
		SkillStrategy:      bc.SkillStrategy,
		SimilarityStrategy: bc.SimilarityStrategy,
		Weights:            bc.Weights,
		CreatedAt:          bc.CreatedAt,
	}
}

type EmptyBatchResponse struct {
	Error    string          `json:"error"`
	Code     int             `json:"code"`
	Rejected []FileRejection `json:"rejected"`
}

type CandidateMatch struct {
	ResumeID      string  `json:"resume_id"`
	BatchID       string  `json:"batch_id"`
	DisplayName   string  `json:"display_name"`
	CombinedScore float64 `json:"combined_score"`
	Similarity    float32 `json:"similarity"`
	Preview       string  `json:"preview"`
}

type CandidateSearchResponse struct {
	Query   string           `json:"query"`
	Matches []CandidateMatch `json:"matches"`
}
