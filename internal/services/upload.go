package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"alfredoptarigan/resume-matcher/internal/models"
)

// UploadService reads incoming files into ResumeDocuments. Files over the size
// limit are not read; they come back with Size set and no Data so intake can
// reject them.
type UploadService interface {
	FromMultipart(file *multipart.FileHeader) (models.ResumeDocument, error)
	FromFile(path string) (models.ResumeDocument, error)
}

type uploadService struct {
	maxFileSize int64
}

func NewUploadService(maxFileSize int64) UploadService {
	return &uploadService{
		maxFileSize: maxFileSize,
	}
}

// FromMultipart implements UploadService.
func (s *uploadService) FromMultipart(file *multipart.FileHeader) (models.ResumeDocument, error) {
	name := displayName(file.Filename)
	if s.tooLarge(file.Size) {
		return oversizeDocument(name, file.Size), nil
	}

	src, err := file.Open()
	if err != nil {
		return models.ResumeDocument{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	return s.read(name, src)
}

// FromFile implements UploadService.
func (s *uploadService) FromFile(path string) (models.ResumeDocument, error) {
	name := displayName(path)

	info, err := os.Stat(path)
	if err != nil {
		return models.ResumeDocument{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return models.ResumeDocument{}, fmt.Errorf("%s is a directory", path)
	}
	if s.tooLarge(info.Size()) {
		return oversizeDocument(name, info.Size()), nil
	}

	src, err := os.Open(path)
	if err != nil {
		return models.ResumeDocument{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	return s.read(name, src)
}

// read copies at most one byte past the limit so a lying size header is still
// caught.
func (s *uploadService) read(name string, r io.Reader) (models.ResumeDocument, error) {
	if s.maxFileSize > 0 {
		r = io.LimitReader(r, s.maxFileSize+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return models.ResumeDocument{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if s.tooLarge(int64(len(data))) {
		return oversizeDocument(name, int64(len(data))), nil
	}

	return models.NewResumeDocument(name, data), nil
}

func (s *uploadService) tooLarge(size int64) bool {
	return s.maxFileSize > 0 && size > s.maxFileSize
}

func oversizeDocument(name string, size int64) models.ResumeDocument {
	doc := models.NewResumeDocument(name, nil)
	doc.Size = size
	return doc
}

// displayName drops any client-supplied directories from a file name.
func displayName(filename string) string {
	return filepath.Base(filepath.Clean("/" + filepath.ToSlash(filename)))
}
