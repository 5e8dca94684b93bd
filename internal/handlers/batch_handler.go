package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
	"alfredoptarigan/resume-matcher/internal/services"
)

type BatchHandler struct {
	batchRepo repositories.BatchRepository
	index     services.CandidateIndex
	logger    *zap.Logger
}

// NewBatchHandler serves stored batches. index may be nil.
func NewBatchHandler(batchRepo repositories.BatchRepository, index services.CandidateIndex, logger *zap.Logger) *BatchHandler {
	return &BatchHandler{
		batchRepo: batchRepo,
		index:     index,
		logger:    logger,
	}
}

// HandleGetBatch handles GET /batches/:id
func (h *BatchHandler) HandleGetBatch(c *fiber.Ctx) error {
	batchID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid batch ID format")
	}

	batch, err := h.batchRepo.FindByID(batchID)
	if errors.Is(err, repositories.ErrBatchNotFound) {
		return errorResponse(c, fiber.StatusNotFound, "Batch not found")
	}
	if err != nil {
		h.logger.Error("failed to load batch", zap.String("batch_id", batchID.String()), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "failed to load batch")
	}

	return c.JSON(models.NewBatchResponse(batch.ToContext()))
}

// HandleDeleteBatch handles DELETE /batches/:id. Indexed candidates of the
// batch are removed as well.
func (h *BatchHandler) HandleDeleteBatch(c *fiber.Ctx) error {
	batchID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid batch ID format")
	}

	err = h.batchRepo.Delete(batchID)
	if errors.Is(err, repositories.ErrBatchNotFound) {
		return errorResponse(c, fiber.StatusNotFound, "Batch not found")
	}
	if err != nil {
		h.logger.Error("failed to delete batch", zap.String("batch_id", batchID.String()), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "failed to delete batch")
	}

	if h.index != nil {
		if err := h.index.DeleteBatch(context.WithoutCancel(c.UserContext()), batchID); err != nil {
			h.logger.Warn("failed to remove batch from candidate index",
				zap.String("batch_id", batchID.String()),
				zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{
		"message":  "Batch deleted",
		"batch_id": batchID.String(),
	})
}
