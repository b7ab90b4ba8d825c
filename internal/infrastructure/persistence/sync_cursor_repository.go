package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fiscalflow/backend/internal/domain/fiscal"
	"github.com/fiscalflow/backend/internal/domain/shared"
	"github.com/fiscalflow/backend/internal/infrastructure/persistence/models"
)

// GormSyncCursorRepository implements SyncCursorRepository using GORM
type GormSyncCursorRepository struct {
	db *gorm.DB
}

// NewGormSyncCursorRepository creates a new GormSyncCursorRepository
func NewGormSyncCursorRepository(db *gorm.DB) *GormSyncCursorRepository {
	return &GormSyncCursorRepository{db: db}
}

// FindByLocation returns the cursor for a location, or shared.ErrNotFound
// when the location has never synced
func (r *GormSyncCursorRepository) FindByLocation(ctx context.Context, locationID uuid.UUID) (*fiscal.SyncCursor, error) {
	var model models.SyncCursorModel
	if err := r.db.WithContext(ctx).
		Where("location_id = ?", locationID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates the cursor. One row per location.
func (r *GormSyncCursorRepository) Save(ctx context.Context, cursor *fiscal.SyncCursor) error {
	var model models.SyncCursorModel
	model.FromDomain(cursor)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "location_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_nsu", "max_nsu", "updated_at"}),
		}).
		Create(&model).Error
}
