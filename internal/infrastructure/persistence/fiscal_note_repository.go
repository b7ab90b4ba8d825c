package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fiscalflow/backend/internal/domain/fiscal"
	"github.com/fiscalflow/backend/internal/domain/shared"
	"github.com/fiscalflow/backend/internal/infrastructure/persistence/models"
)

// GormFiscalNoteRepository implements FiscalNoteRepository using GORM
type GormFiscalNoteRepository struct {
	db *gorm.DB
}

// NewGormFiscalNoteRepository creates a new GormFiscalNoteRepository
func NewGormFiscalNoteRepository(db *gorm.DB) *GormFiscalNoteRepository {
	return &GormFiscalNoteRepository{db: db}
}

// Upsert stores the note, merging into an existing record with the same
// (location, access key). A note without a valid access key is rejected
// before any write reaches the database.
func (r *GormFiscalNoteRepository) Upsert(ctx context.Context, note *fiscal.FiscalNote) error {
	if !fiscal.IsValidAccessKey(note.AccessKey) {
		return fiscal.ErrInvalidAccessKey
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.FiscalNoteModel
		err := tx.Where("location_id = ? AND access_key = ?", note.LocationID, note.AccessKey).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			var model models.FiscalNoteModel
			model.FromDomain(note)
			return tx.Create(&model).Error
		}
		if err != nil {
			return err
		}

		current := existing.ToDomain()
		if err := current.Merge(note); err != nil {
			return err
		}
		var model models.FiscalNoteModel
		model.FromDomain(current)
		return tx.Save(&model).Error
	})
}

// Save writes an already-loaded note back (link and category updates)
func (r *GormFiscalNoteRepository) Save(ctx context.Context, note *fiscal.FiscalNote) error {
	var model models.FiscalNoteModel
	model.FromDomain(note)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByAccessKey finds a note by its access key within a location
func (r *GormFiscalNoteRepository) FindByAccessKey(ctx context.Context, locationID uuid.UUID, accessKey string) (*fiscal.FiscalNote, error) {
	key, ok := fiscal.NormalizeAccessKey(accessKey)
	if !ok {
		return nil, fiscal.ErrInvalidAccessKey
	}
	var model models.FiscalNoteModel
	if err := r.db.WithContext(ctx).
		Where("location_id = ? AND access_key = ?", locationID, key).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForLocation lists notes for a location with filtering and pagination
func (r *GormFiscalNoteRepository) FindAllForLocation(ctx context.Context, locationID uuid.UUID, filter fiscal.FiscalNoteFilter) ([]fiscal.FiscalNote, error) {
	var noteModels []models.FiscalNoteModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.FiscalNoteModel{}).Where("location_id = ?", locationID), filter)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	query = query.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize)

	if err := query.Find(&noteModels).Error; err != nil {
		return nil, err
	}

	notes := make([]fiscal.FiscalNote, len(noteModels))
	for i, model := range noteModels {
		notes[i] = *model.ToDomain()
	}
	return notes, nil
}

// CountForLocation counts notes for a location with filtering
func (r *GormFiscalNoteRepository) CountForLocation(ctx context.Context, locationID uuid.UUID, filter fiscal.FiscalNoteFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.FiscalNoteModel{}).Where("location_id = ?", locationID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindUnlinkedByAccessKeys returns the unlinked notes among the given keys
// for a location
func (r *GormFiscalNoteRepository) FindUnlinkedByAccessKeys(ctx context.Context, locationID uuid.UUID, accessKeys []string) ([]fiscal.FiscalNote, error) {
	if len(accessKeys) == 0 {
		return []fiscal.FiscalNote{}, nil
	}
	var noteModels []models.FiscalNoteModel
	if err := r.db.WithContext(ctx).
		Where("location_id = ? AND access_key IN ? AND linked_receipt_id IS NULL", locationID, accessKeys).
		Find(&noteModels).Error; err != nil {
		return nil, err
	}

	notes := make([]fiscal.FiscalNote, len(noteModels))
	for i, model := range noteModels {
		notes[i] = *model.ToDomain()
	}
	return notes, nil
}

// FindByLinkedReceipt finds notes referencing a receipt
func (r *GormFiscalNoteRepository) FindByLinkedReceipt(ctx context.Context, receiptID uuid.UUID) ([]fiscal.FiscalNote, error) {
	var noteModels []models.FiscalNoteModel
	if err := r.db.WithContext(ctx).
		Where("linked_receipt_id = ?", receiptID).
		Find(&noteModels).Error; err != nil {
		return nil, err
	}

	notes := make([]fiscal.FiscalNote, len(noteModels))
	for i, model := range noteModels {
		notes[i] = *model.ToDomain()
	}
	return notes, nil
}

// categorySumRow is the scan target for the per-category aggregate query
type categorySumRow struct {
	CategoryID string
	Count      int64
	Total      decimal.Decimal
}

// SumByCategory totals active note values per category for a location within
// a date range. Uncategorized notes are excluded.
func (r *GormFiscalNoteRepository) SumByCategory(ctx context.Context, locationID uuid.UUID, from, to time.Time) (map[fiscal.CategoryID]fiscal.CategorySum, error) {
	query := r.db.WithContext(ctx).
		Model(&models.FiscalNoteModel{}).
		Select("category_id, COUNT(*) as count, COALESCE(SUM(total_value), 0) as total").
		Where("location_id = ? AND category_id IS NOT NULL AND status = ?", locationID, string(fiscal.NoteStatusActive)).
		Group("category_id")

	if !from.IsZero() {
		query = query.Where("issue_date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("issue_date <= ?", to)
	}

	var rows []categorySumRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	sums := make(map[fiscal.CategoryID]fiscal.CategorySum, len(rows))
	for _, row := range rows {
		sums[fiscal.CategoryID(row.CategoryID)] = fiscal.CategorySum{
			Count: row.Count,
			Total: row.Total.StringFixed(2),
		}
	}
	return sums, nil
}

// applyFilter applies the list filter criteria to a query
func (r *GormFiscalNoteRepository) applyFilter(query *gorm.DB, filter fiscal.FiscalNoteFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Category != nil {
		query = query.Where("category_id = ?", string(*filter.Category))
	}
	if filter.Linked != nil {
		if *filter.Linked {
			query = query.Where("linked_receipt_id IS NOT NULL")
		} else {
			query = query.Where("linked_receipt_id IS NULL")
		}
	}
	if filter.FromDate != nil {
		query = query.Where("issue_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("issue_date <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(issuer_name) LIKE ? OR access_key LIKE ?", pattern, "%"+filter.Search+"%")
	}
	return query
}
