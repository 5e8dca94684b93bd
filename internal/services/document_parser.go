package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/metrics"
	"alfredoptarigan/resume-matcher/internal/models"
)

// DocumentParserService turns uploaded resumes into plain text.
type DocumentParserService interface {
	// Validate applies the format allow-list and size limit. It never reads the content.
	Validate(doc models.ResumeDocument) error
	// ExtractText returns the document text, possibly empty. Decode failures
	// are reported as ErrExtractionFailure.
	ExtractText(ctx context.Context, doc models.ResumeDocument) (string, error)
}

type documentParserService struct {
	maxFileSize int64
	timeout     time.Duration
	logger      *zap.Logger
	metrics     *metrics.Metrics
	extract     func(doc models.ResumeDocument) (string, error)
}

func NewDocumentParserService(maxFileSize int64, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) DocumentParserService {
	return &documentParserService{
		maxFileSize: maxFileSize,
		timeout:     timeout,
		logger:      logger,
		metrics:     m,
		extract:     extractText,
	}
}

// Validate implements DocumentParserService.
func (p *documentParserService) Validate(doc models.ResumeDocument) error {
	if doc.Format == models.FormatUnsupported {
		return fmt.Errorf("%s: %w: only pdf and docx are allowed", doc.DisplayName, ErrUnsupportedFormat)
	}

	size := max(doc.Size, int64(len(doc.Data)))
	if p.maxFileSize > 0 && size > p.maxFileSize {
		return fmt.Errorf("%s: %w: %d bytes (max %d)", doc.DisplayName, ErrOversizeFile, size, p.maxFileSize)
	}

	return nil
}

// ExtractText implements DocumentParserService.
func (p *documentParserService) ExtractText(ctx context.Context, doc models.ResumeDocument) (string, error) {
	if err := p.Validate(doc); err != nil {
		return "", err
	}

	start := time.Now()
	text, err := withTimeout(ctx, p.timeout, "extract "+doc.DisplayName, func() (string, error) {
		return p.extract(doc)
	})
	p.metrics.ObserveExtraction(string(doc.Format), time.Since(start))

	if err != nil {
		p.logger.Warn("text extraction failed",
			zap.String("file", doc.DisplayName),
			zap.String("format", string(doc.Format)),
			zap.Error(err))
		return "", fmt.Errorf("%s: %w: %v", doc.DisplayName, ErrExtractionFailure, err)
	}

	p.logger.Debug("text extracted",
		zap.String("file", doc.DisplayName),
		zap.Int("chars", len(text)),
		zap.Duration("elapsed", time.Since(start)))

	return text, nil
}

func extractText(doc models.ResumeDocument) (string, error) {
	switch doc.Format {
	case models.FormatPDF:
		return extractPDFText(doc.Data)
	default:
		return extractDOCXText(doc.Data)
	}
}

// extractPDFText concatenates page text in page order, one line break per page.
// The pdf package panics on some malformed inputs, so both the document and
// every page are guarded.
func extractPDFText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		textBuilder.WriteString(pageText(r.Page(pageIndex)))
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}

func pageText(page pdf.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	if page.V.IsNull() {
		return ""
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}

// extractDOCXText reads word/document.xml and emits every paragraph followed by
// a newline. Runs inside a paragraph are joined; tabs and breaks are kept.
func extractDOCXText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX archive: %w", err)
	}

	var documentXML *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			documentXML = f
			break
		}
	}
	if documentXML == nil {
		return "", errors.New("no word/document.xml found in DOCX")
	}

	rc, err := documentXML.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer rc.Close()

	var (
		out       strings.Builder
		paragraph strings.Builder
		depth     int
		runs      int
		inText    bool
	)

	decoder := xml.NewDecoder(rc)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse document.xml: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					paragraph.Reset()
				}
				depth++
			case "r":
				runs++
			case "t":
				inText = true
			case "tab":
				// tab stops under <w:pPr><w:tabs> share the name; only run tabs are text
				if depth > 0 && runs > 0 {
					paragraph.WriteByte('\t')
				}
			case "br", "cr":
				if depth > 0 && runs > 0 {
					paragraph.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "r":
				if runs > 0 {
					runs--
				}
			case "t":
				inText = false
			case "p":
				if depth == 0 {
					continue
				}
				depth--
				if depth == 0 {
					out.WriteString(paragraph.String())
					out.WriteString("\n")
				}
			}
		case xml.CharData:
			if inText && depth > 0 {
				paragraph.Write(t)
			}
		}
	}

	return out.String(), nil
}
