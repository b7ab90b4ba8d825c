package fiscal

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fiscalflow/backend/internal/domain/fiscal"
	"github.com/fiscalflow/backend/internal/domain/shared"
)

// EnrichmentResult is the outcome of single-shot reconciliation for one
// freshly captured receipt. Failures of this path are advisory only: they
// surface in Warning and never roll back the receipt.
type EnrichmentResult struct {
	ReceiptID uuid.UUID  `json:"receipt_id"`
	Linked    bool       `json:"linked"`
	AccessKey string     `json:"access_key,omitempty"`
	NoteID    *uuid.UUID `json:"note_id,omitempty"`
	Warning   string     `json:"warning,omitempty"`
}

// ReconciliationService matches fiscal notes to captured receipts by access
// key and records the link on the note. Receipts themselves belong to the
// capture pipeline; only the weak reference on the note is written here.
type ReconciliationService struct {
	notes    fiscal.FiscalNoteRepository
	receipts fiscal.ReceiptRepository
	client   fiscal.DistributionClient
	keywords fiscal.KeywordTable
	logger   *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	notes fiscal.FiscalNoteRepository,
	receipts fiscal.ReceiptRepository,
	client fiscal.DistributionClient,
	keywords fiscal.KeywordTable,
	logger *zap.Logger,
) *ReconciliationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{
		notes:    notes,
		receipts: receipts,
		client:   client,
		keywords: keywords,
		logger:   logger,
	}
}

// ReconcileLocation links every unlinked fiscal note in a location whose
// access key matches a captured receipt's extracted key. Returns the number
// of newly linked pairs. Running it twice links nothing the second time.
func (s *ReconciliationService) ReconcileLocation(ctx context.Context, locationID uuid.UUID) (int, error) {
	if locationID == uuid.Nil {
		return 0, shared.ErrInvalidInput
	}

	receipts, err := s.receipts.FindWithAccessKeyForLocation(ctx, locationID)
	if err != nil {
		return 0, err
	}
	if len(receipts) == 0 {
		return 0, nil
	}

	byKey := make(map[string]fiscal.Receipt, len(receipts))
	keys := make([]string, 0, len(receipts))
	for _, r := range receipts {
		key := r.AccessKey()
		if key == "" {
			continue
		}
		if _, seen := byKey[key]; seen {
			continue
		}
		byKey[key] = r
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	notes, err := s.notes.FindUnlinkedByAccessKeys(ctx, locationID, keys)
	if err != nil {
		return 0, err
	}

	linked := 0
	for i := range notes {
		note := &notes[i]
		receipt, ok := byKey[note.AccessKey]
		if !ok {
			continue
		}
		if err := note.LinkReceipt(receipt.ID); err != nil {
			continue
		}
		if err := s.notes.Save(ctx, note); err != nil {
			s.logger.Error("failed to persist receipt link",
				zap.String("access_key", note.AccessKey),
				zap.String("receipt_id", receipt.ID.String()),
				zap.Error(err))
			continue
		}
		linked++
	}

	if linked > 0 {
		s.logger.Info("batch reconciliation linked pairs",
			zap.String("location_id", locationID.String()),
			zap.Int("linked", linked))
	}
	return linked, nil
}

// EnrichReceipt performs single-shot reconciliation for a just-captured
// receipt: find the matching note locally, fetch it by access key from the
// distribution service when unknown, persist it, and link. Service
// unreachability or a missing document degrade to a warning on the result,
// never an error; the receipt's own creation already succeeded upstream.
func (s *ReconciliationService) EnrichReceipt(ctx context.Context, receiptID uuid.UUID) (*EnrichmentResult, error) {
	if receiptID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}

	receipt, err := s.receipts.FindByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}

	result := &EnrichmentResult{ReceiptID: receiptID}
	if !receipt.HasAccessKey() {
		result.Warning = "receipt has no extracted access key"
		return result, nil
	}
	key := receipt.AccessKey()
	result.AccessKey = key

	note, err := s.notes.FindByAccessKey(ctx, receipt.LocationID, key)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		note, err = s.fetchAndPersist(ctx, receipt.LocationID, key)
		if err != nil {
			s.logger.Warn("single-shot lookup failed",
				zap.String("receipt_id", receiptID.String()),
				zap.String("access_key", key),
				zap.Error(err))
			result.Warning = "fiscal note lookup failed: " + err.Error()
			return result, nil
		}
	}

	if err := note.LinkReceipt(receipt.ID); err != nil {
		result.Warning = "fiscal note could not be linked: " + err.Error()
		return result, nil
	}
	if err := s.notes.Save(ctx, note); err != nil {
		result.Warning = "failed to persist link: " + err.Error()
		return result, nil
	}

	noteID := note.GetID()
	result.Linked = true
	result.NoteID = &noteID
	return result, nil
}

// fetchAndPersist looks a single document up by access key, classifies and
// stores it.
func (s *ReconciliationService) fetchAndPersist(ctx context.Context, locationID uuid.UUID, accessKey string) (*fiscal.FiscalNote, error) {
	batch, err := s.client.FetchByAccessKey(ctx, locationID, accessKey)
	if err != nil {
		return nil, err
	}
	if !batch.HasDocuments() {
		return nil, shared.ErrNotFound
	}

	for _, raw := range batch.Documents {
		classified := fiscal.ClassifyDocument(raw)
		note, err := classified.ToNote(locationID)
		if err != nil {
			continue
		}
		if note.AccessKey != accessKey {
			continue
		}
		if category := fiscal.Categorize(note.IssuerName, s.keywords); category != nil {
			note.CategoryID = category
		}
		if err := s.notes.Upsert(ctx, note); err != nil {
			return nil, err
		}
		return s.notes.FindByAccessKey(ctx, locationID, accessKey)
	}
	return nil, shared.ErrNotFound
}

// UnlinkReceipt clears the weak reference on every note pointing at a
// receipt the capture pipeline deleted. Returns the number of notes
// unlinked.
func (s *ReconciliationService) UnlinkReceipt(ctx context.Context, receiptID uuid.UUID) (int, error) {
	if receiptID == uuid.Nil {
		return 0, shared.ErrInvalidInput
	}

	notes, err := s.notes.FindByLinkedReceipt(ctx, receiptID)
	if err != nil {
		return 0, err
	}

	unlinked := 0
	for i := range notes {
		note := &notes[i]
		note.UnlinkReceipt()
		if err := s.notes.Save(ctx, note); err != nil {
			s.logger.Error("failed to clear receipt link",
				zap.String("access_key", note.AccessKey),
				zap.String("receipt_id", receiptID.String()),
				zap.Error(err))
			continue
		}
		unlinked++
	}
	return unlinked, nil
}
