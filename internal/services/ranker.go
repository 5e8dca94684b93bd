package services

import (
	"sort"

	"alfredoptarigan/resume-matcher/internal/models"
)

// RankResults orders results by combined score, highest first. Equal scores
// keep their input order. The input slice is not modified.
func RankResults(results []models.AnalysisResult) models.RankedBatch {
	ranked := make(models.RankedBatch, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CombinedScore > ranked[j].CombinedScore
	})
	return ranked
}
