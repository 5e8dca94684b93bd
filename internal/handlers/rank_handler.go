package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/logger"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
	"alfredoptarigan/resume-matcher/internal/services"
)

type RankHandler struct {
	pipeline  services.PipelineService
	uploads   services.UploadService
	batchRepo repositories.BatchRepository
	logger    *zap.Logger
}

func NewRankHandler(
	pipeline services.PipelineService,
	uploads services.UploadService,
	batchRepo repositories.BatchRepository,
	logger *zap.Logger,
) *RankHandler {
	return &RankHandler{
		pipeline:  pipeline,
		uploads:   uploads,
		batchRepo: batchRepo,
		logger:    logger,
	}
}

// HandleRank handles POST /rank. The form carries a job_description field
// and one or more resumes files.
func (h *RankHandler) HandleRank(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "failed to parse multipart form")
	}

	var description string
	if values := form.Value["job_description"]; len(values) > 0 {
		description = values[0]
	}
	if strings.TrimSpace(description) == "" {
		return errorResponse(c, fiber.StatusBadRequest, "job_description is required")
	}

	files := form.File["resumes"]
	if len(files) == 0 {
		return errorResponse(c, fiber.StatusBadRequest, "at least one file in 'resumes' is required")
	}

	docs := make([]models.ResumeDocument, 0, len(files))
	for _, file := range files {
		doc, err := h.uploads.FromMultipart(file)
		if err != nil {
			return errorResponse(c, fiber.StatusBadRequest, fmt.Sprintf("failed to read %s", file.Filename))
		}
		docs = append(docs, doc)
	}

	h.logger.Debug("rank request",
		zap.String("job", logger.TruncateForLog(description, 80)),
		zap.Int("files", len(docs)))

	batch, err := h.pipeline.Process(c.UserContext(), models.JobPosting{Description: description}, docs)
	if errors.Is(err, services.ErrEmptyBatch) {
		rejected := batch.Rejected
		if rejected == nil {
			rejected = []models.FileRejection{}
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.EmptyBatchResponse{
			Error:    err.Error(),
			Code:     fiber.StatusUnprocessableEntity,
			Rejected: rejected,
		})
	}
	if err != nil {
		h.logger.Error("ranking failed", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "failed to rank resumes")
	}

	if err := h.batchRepo.Create(models.NewBatchRecord(batch)); err != nil {
		h.logger.Error("failed to store batch",
			zap.String("batch_id", batch.ID.String()),
			zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "failed to store batch")
	}

	if queued := h.pipeline.Index(batch); queued > 0 {
		h.logger.Debug("candidates queued for indexing",
			zap.String("batch_id", batch.ID.String()),
			zap.Int("queued", queued))
	}

	return c.Status(fiber.StatusCreated).JSON(models.NewBatchResponse(batch))
}
