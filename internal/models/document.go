package models

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type DocumentFormat string

const (
	FormatPDF         DocumentFormat = "pdf"
	FormatDOCX        DocumentFormat = "docx"
	FormatUnsupported DocumentFormat = "unsupported"
)

// DetectFormat maps a file name to a DocumentFormat using its extension only.
func DetectFormat(filename string) DocumentFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	default:
		return FormatUnsupported
	}
}

// JobPosting is the job description a batch is ranked against.
type JobPosting struct {
	Description string `json:"description"`
}

// ResumeDocument is an uploaded resume before extraction. Raw bytes are held in
// memory only for the lifetime of a batch. Size is the declared upload size and
// may be set without Data when the file was too large to read.
type ResumeDocument struct {
	ID          uuid.UUID      `json:"id"`
	DisplayName string         `json:"display_name"`
	Data        []byte         `json:"-"`
	Size        int64          `json:"size"`
	Format      DocumentFormat `json:"format"`
}

func NewResumeDocument(displayName string, data []byte) ResumeDocument {
	return ResumeDocument{
		ID:          uuid.New(),
		DisplayName: displayName,
		Data:        data,
		Size:        int64(len(data)),
		Format:      DetectFormat(displayName),
	}
}
