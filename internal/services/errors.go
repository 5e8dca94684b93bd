package services

import (
	"errors"

	"alfredoptarigan/resume-matcher/internal/models"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrExtractionFailure = errors.New("extraction failure")
	ErrEmptyBatch        = errors.New("no valid resumes were processed")
	ErrOversizeFile      = errors.New("file exceeds size limit")
	ErrScoringFailure    = errors.New("scoring failure")
)

// rejectionReason maps a per-file error onto the reason reported to callers.
func rejectionReason(err error) models.RejectionReason {
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return models.ReasonUnsupportedFormat
	case errors.Is(err, ErrOversizeFile):
		return models.ReasonOversizeFile
	case errors.Is(err, ErrScoringFailure):
		return models.ReasonScoringFailure
	default:
		return models.ReasonExtractionFailure
	}
}
