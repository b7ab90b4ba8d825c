package fiscal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FiscalNoteFilter defines filter criteria for fiscal note list queries
type FiscalNoteFilter struct {
	Status   *NoteStatus
	Category *CategoryID
	Linked   *bool
	FromDate *time.Time
	ToDate   *time.Time
	Search   string
	Page     int
	PageSize int
}

// FiscalNoteRepository persists fiscal notes. Upsert is keyed by
// (location, accessKey) and must be idempotent: re-upserting merges fields
// without creating a second record.
type FiscalNoteRepository interface {
	// Upsert stores the note, merging into an existing record with the same
	// (location, accessKey). Notes without a valid access key are rejected
	// before any write.
	Upsert(ctx context.Context, note *FiscalNote) error

	// Save writes an already-loaded note back (link/category updates).
	Save(ctx context.Context, note *FiscalNote) error

	// FindByAccessKey finds a note by its access key within a location.
	FindByAccessKey(ctx context.Context, locationID uuid.UUID, accessKey string) (*FiscalNote, error)

	// FindAllForLocation lists notes for a location with filtering.
	FindAllForLocation(ctx context.Context, locationID uuid.UUID, filter FiscalNoteFilter) ([]FiscalNote, error)

	// CountForLocation counts notes for a location with filtering.
	CountForLocation(ctx context.Context, locationID uuid.UUID, filter FiscalNoteFilter) (int64, error)

	// FindUnlinkedByAccessKeys returns the unlinked notes among the given
	// keys for a location, used by batch reconciliation.
	FindUnlinkedByAccessKeys(ctx context.Context, locationID uuid.UUID, accessKeys []string) ([]FiscalNote, error)

	// FindByLinkedReceipt finds notes referencing a receipt, used by the
	// unlink hook when a receipt is deleted upstream.
	FindByLinkedReceipt(ctx context.Context, receiptID uuid.UUID) ([]FiscalNote, error)

	// SumByCategory totals note values per category for a location within a
	// date range.
	SumByCategory(ctx context.Context, locationID uuid.UUID, from, to time.Time) (map[CategoryID]CategorySum, error)
}

// CategorySum aggregates note count and total value for one category.
type CategorySum struct {
	Count int64
	Total string
}

// UnrecognizedDocumentRepository persists the stubs of documents that matched
// no known schema, keyed by (location, NSU).
type UnrecognizedDocumentRepository interface {
	// Upsert stores the stub. Re-delivery of the same NSU replaces the stored
	// payload instead of creating a second row.
	Upsert(ctx context.Context, doc *UnrecognizedDocument) error

	// FindAllForLocation lists the stubs stored for a location, newest first.
	FindAllForLocation(ctx context.Context, locationID uuid.UUID) ([]UnrecognizedDocument, error)
}

// SyncCursorRepository persists per-location sync cursors.
type SyncCursorRepository interface {
	// FindByLocation returns the cursor for a location, or shared.ErrNotFound
	// when the location has never synced.
	FindByLocation(ctx context.Context, locationID uuid.UUID) (*SyncCursor, error)

	// Save creates or updates a cursor. One row per location.
	Save(ctx context.Context, cursor *SyncCursor) error
}

// ReceiptRepository reads the externally-owned receipt records. The sync
// engine only consumes receipts; creation and deletion belong to the
// capture pipeline.
type ReceiptRepository interface {
	// FindByID loads one receipt.
	FindByID(ctx context.Context, id uuid.UUID) (*Receipt, error)

	// FindWithAccessKeyForLocation returns receipts in a location whose
	// captured image yielded an extracted access key.
	FindWithAccessKeyForLocation(ctx context.Context, locationID uuid.UUID) ([]Receipt, error)
}
