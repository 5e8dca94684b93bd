package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/resume-matcher/internal/models"
)

var ErrBatchNotFound = errors.New("batch not found")

type BatchRepository interface {
	Create(batch *models.Batch) error
	FindByID(id uuid.UUID) (*models.Batch, error)
	Delete(id uuid.UUID) error
}

type batchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepository{db: db}
}

// Create stores the batch and its results in one transaction.
func (r *batchRepository) Create(batch *models.Batch) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(batch).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}
	return nil
}

// FindByID loads the batch with its results in rank order.
func (r *batchRepository) FindByID(id uuid.UUID) (*models.Batch, error) {
	var batch models.Batch
	err := r.db.
		Preload("Results", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&batch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to find batch: %w", err)
	}
	return &batch, nil
}

func (r *batchRepository) Delete(id uuid.UUID) error {
	var rows int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("batch_id = ?", id).Delete(&models.BatchResult{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Batch{})
		rows = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}

	if rows == 0 {
		return ErrBatchNotFound
	}
	return nil
}
