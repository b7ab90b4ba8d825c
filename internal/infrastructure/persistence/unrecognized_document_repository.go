package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fiscalflow/backend/internal/domain/fiscal"
	"github.com/fiscalflow/backend/internal/infrastructure/persistence/models"
)

// GormUnrecognizedDocumentRepository implements UnrecognizedDocumentRepository
// using GORM
type GormUnrecognizedDocumentRepository struct {
	db *gorm.DB
}

// NewGormUnrecognizedDocumentRepository creates a new GormUnrecognizedDocumentRepository
func NewGormUnrecognizedDocumentRepository(db *gorm.DB) *GormUnrecognizedDocumentRepository {
	return &GormUnrecognizedDocumentRepository{db: db}
}

// Upsert stores the stub. Re-delivery of the same (location, NSU) replaces
// the stored payload in place.
func (r *GormUnrecognizedDocumentRepository) Upsert(ctx context.Context, doc *fiscal.UnrecognizedDocument) error {
	var model models.UnrecognizedDocumentModel
	model.FromDomain(doc)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "location_id"}, {Name: "nsu"}},
			DoUpdates: clause.AssignmentColumns([]string{"schema_hint", "payload", "status", "received_at"}),
		}).
		Create(&model).Error
}

// FindAllForLocation lists the stubs stored for a location, newest first
func (r *GormUnrecognizedDocumentRepository) FindAllForLocation(ctx context.Context, locationID uuid.UUID) ([]fiscal.UnrecognizedDocument, error) {
	var stubModels []models.UnrecognizedDocumentModel
	if err := r.db.WithContext(ctx).
		Where("location_id = ?", locationID).
		Order("received_at DESC").
		Find(&stubModels).Error; err != nil {
		return nil, err
	}

	stubs := make([]fiscal.UnrecognizedDocument, len(stubModels))
	for i, model := range stubModels {
		stubs[i] = *model.ToDomain()
	}
	return stubs, nil
}
