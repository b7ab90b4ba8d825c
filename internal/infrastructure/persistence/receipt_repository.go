package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fiscalflow/backend/internal/domain/fiscal"
	"github.com/fiscalflow/backend/internal/domain/shared"
	"github.com/fiscalflow/backend/internal/infrastructure/persistence/models"
)

// GormReceiptRepository implements the read-only ReceiptRepository using GORM.
// Receipt rows are owned by the capture pipeline; this repository never
// writes them.
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// FindByID loads one receipt
func (r *GormReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*fiscal.Receipt, error) {
	var model models.ReceiptModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindWithAccessKeyForLocation returns receipts in a location whose captured
// image yielded an extracted access key
func (r *GormReceiptRepository) FindWithAccessKeyForLocation(ctx context.Context, locationID uuid.UUID) ([]fiscal.Receipt, error) {
	var receiptModels []models.ReceiptModel
	if err := r.db.WithContext(ctx).
		Where("location_id = ? AND extracted_access_key IS NOT NULL AND extracted_access_key <> ''", locationID).
		Find(&receiptModels).Error; err != nil {
		return nil, err
	}

	receipts := make([]fiscal.Receipt, len(receiptModels))
	for i, model := range receiptModels {
		receipts[i] = *model.ToDomain()
	}
	return receipts, nil
}
