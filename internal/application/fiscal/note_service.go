package fiscal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fiscalflow/backend/internal/domain/fiscal"
	"github.com/fiscalflow/backend/internal/domain/shared"
)

// CategorySummary is one row of the per-category spend aggregation.
type CategorySummary struct {
	Category    fiscal.CategoryID `json:"category"`
	DisplayName string            `json:"display_name"`
	Count       int64             `json:"count"`
	Total       string            `json:"total"`
}

// NoteService is the query side of the stored fiscal notes: listing,
// point lookup by access key, per-category spend summaries and the stubs of
// documents the classifier could not place.
type NoteService struct {
	notes        fiscal.FiscalNoteRepository
	unrecognized fiscal.UnrecognizedDocumentRepository
	logger       *zap.Logger
}

// NewNoteService creates a new NoteService
func NewNoteService(notes fiscal.FiscalNoteRepository, unrecognized fiscal.UnrecognizedDocumentRepository, logger *zap.Logger) *NoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoteService{
		notes:        notes,
		unrecognized: unrecognized,
		logger:       logger,
	}
}

// List returns a filtered page of notes for a location with the total count.
func (s *NoteService) List(ctx context.Context, locationID uuid.UUID, filter fiscal.FiscalNoteFilter) ([]fiscal.FiscalNote, int64, error) {
	if locationID == uuid.Nil {
		return nil, 0, shared.ErrInvalidInput
	}

	notes, err := s.notes.FindAllForLocation(ctx, locationID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.notes.CountForLocation(ctx, locationID, filter)
	if err != nil {
		return nil, 0, err
	}
	return notes, total, nil
}

// GetByAccessKey loads one note by its access key within a location.
func (s *NoteService) GetByAccessKey(ctx context.Context, locationID uuid.UUID, accessKey string) (*fiscal.FiscalNote, error) {
	if locationID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	return s.notes.FindByAccessKey(ctx, locationID, accessKey)
}

// UnrecognizedDocuments lists the stubs stored for documents that matched no
// known schema, newest first.
func (s *NoteService) UnrecognizedDocuments(ctx context.Context, locationID uuid.UUID) ([]fiscal.UnrecognizedDocument, error) {
	if locationID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	return s.unrecognized.FindAllForLocation(ctx, locationID)
}

// CategorySummary aggregates note count and total value per category for a
// location within a date range. Uncategorized and cancelled notes are not
// counted. Categories without notes are omitted.
func (s *NoteService) CategorySummary(ctx context.Context, locationID uuid.UUID, from, to time.Time) ([]CategorySummary, error) {
	if locationID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}

	sums, err := s.notes.SumByCategory(ctx, locationID, from, to)
	if err != nil {
		return nil, err
	}

	// Stable output order follows the category declaration order.
	ordered := []fiscal.CategoryID{
		fiscal.CategorySupermarket, fiscal.CategoryRestaurant, fiscal.CategoryFuel,
		fiscal.CategoryPharmacy, fiscal.CategoryClothing, fiscal.CategoryHome,
		fiscal.CategoryElectronics, fiscal.CategoryTransport, fiscal.CategoryPet,
		fiscal.CategoryServices,
	}

	summaries := make([]CategorySummary, 0, len(sums))
	for _, category := range ordered {
		sum, ok := sums[category]
		if !ok {
			continue
		}
		summaries = append(summaries, CategorySummary{
			Category:    category,
			DisplayName: category.DisplayName(),
			Count:       sum.Count,
			Total:       sum.Total,
		})
	}
	return summaries, nil
}
