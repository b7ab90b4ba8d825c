package fiscal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fiscalflow/backend/internal/domain/fiscal"
	"github.com/fiscalflow/backend/internal/domain/shared"
)

// SyncLocker provides per-location mutual exclusion. At most one sync may be
// in flight per location; different locations run independently.
type SyncLocker interface {
	// Acquire takes the lock for a location. Returns false when another sync
	// already holds it.
	Acquire(ctx context.Context, locationID uuid.UUID) (bool, error)
	// Release frees the lock for a location.
	Release(ctx context.Context, locationID uuid.UUID) error
}

// SyncOutcome summarizes how a sync attempt ended
type SyncOutcome string

const (
	// SyncOutcomeProcessed means documents were fetched and persisted.
	SyncOutcomeProcessed SyncOutcome = "PROCESSED"
	// SyncOutcomeNoNewDocuments means the stream is drained.
	SyncOutcomeNoNewDocuments SyncOutcome = "NO_NEW_DOCUMENTS"
)

// RecordError reports the persistence or parse failure of a single document
// inside a batch. Failures are isolated: siblings still reach a terminal
// outcome.
type RecordError struct {
	NSU    string `json:"nsu"`
	Reason string `json:"reason"`
}

// SyncReport is the terminal result of one sync attempt. A sync always ends
// with either no-new-documents, counts of processed/linked documents, or an
// explicit rejection error; never a silent no-op.
type SyncReport struct {
	LocationID uuid.UUID     `json:"location_id"`
	Outcome    SyncOutcome   `json:"outcome"`
	Processed  int           `json:"processed"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Linked     int           `json:"linked"`
	LastNSU    string        `json:"last_nsu"`
	MaxNSU     string        `json:"max_nsu"`
	Errors     []RecordError `json:"errors,omitempty"`
	Warning    string        `json:"warning,omitempty"`
	Duration   time.Duration `json:"-"`
}

// SyncService drives the incremental cursor protocol against the
// distribution service: fetch since the cursor, classify and categorize each
// document in delivery order, upsert with per-record isolation, advance the
// cursor only after the whole batch reached a terminal outcome, then
// reconcile against captured receipts.
type SyncService struct {
	client         fiscal.DistributionClient
	cursors        fiscal.SyncCursorRepository
	notes          fiscal.FiscalNoteRepository
	unrecognized   fiscal.UnrecognizedDocumentRepository
	reconciliation *ReconciliationService
	locker         SyncLocker
	keywords       fiscal.KeywordTable
	logger         *zap.Logger
}

// NewSyncService creates a new SyncService
func NewSyncService(
	client fiscal.DistributionClient,
	cursors fiscal.SyncCursorRepository,
	notes fiscal.FiscalNoteRepository,
	unrecognized fiscal.UnrecognizedDocumentRepository,
	reconciliation *ReconciliationService,
	locker SyncLocker,
	keywords fiscal.KeywordTable,
	logger *zap.Logger,
) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		client:         client,
		cursors:        cursors,
		notes:          notes,
		unrecognized:   unrecognized,
		reconciliation: reconciliation,
		locker:         locker,
		keywords:       keywords,
		logger:         logger,
	}
}

// SyncLocation runs one incremental sync for a location. A concurrent call
// for the same location fails with fiscal.ErrSyncInFlight. Transport
// failures and service rejections leave the cursor untouched.
func (s *SyncService) SyncLocation(ctx context.Context, locationID uuid.UUID) (*SyncReport, error) {
	if locationID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}

	ok, err := s.locker.Acquire(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fiscal.ErrSyncInFlight
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), locationID); err != nil {
			s.logger.Warn("failed to release sync lock",
				zap.String("location_id", locationID.String()),
				zap.Error(err))
		}
	}()

	started := time.Now()

	cursor, err := s.loadOrCreateCursor(ctx, locationID)
	if err != nil {
		return nil, err
	}

	batch, err := s.client.FetchSince(ctx, locationID, cursor.LastNSU)
	if err != nil {
		// Cursor untouched on every failure path.
		return nil, err
	}

	report := &SyncReport{
		LocationID: locationID,
		LastNSU:    cursor.LastNSU,
		MaxNSU:     cursor.MaxNSU,
	}

	if batch.Outcome == fiscal.OutcomeNoNewDocuments {
		report.Outcome = SyncOutcomeNoNewDocuments
		report.Duration = time.Since(started)
		return report, nil
	}

	s.processBatch(ctx, locationID, batch, report)

	// Every record reached a terminal outcome (stored, failed, or skipped);
	// only now may the cursor move. Re-fetching the same range after a crash
	// is safe because upserts are idempotent.
	if err := cursor.Advance(batch.UltNSU, batch.MaxNSU); err != nil {
		return nil, err
	}
	if err := s.cursors.Save(ctx, cursor); err != nil {
		return nil, err
	}
	report.LastNSU = cursor.LastNSU
	report.MaxNSU = cursor.MaxNSU
	report.Outcome = SyncOutcomeProcessed

	linked, err := s.reconciliation.ReconcileLocation(ctx, locationID)
	if err != nil {
		// Reconciliation is best-effort after a stored batch; the sync
		// itself already succeeded.
		s.logger.Warn("batch reconciliation failed",
			zap.String("location_id", locationID.String()),
			zap.Error(err))
		report.Warning = "reconciliation failed: " + err.Error()
	}
	report.Linked = linked
	report.Duration = time.Since(started)

	s.logger.Info("sync completed",
		zap.String("location_id", locationID.String()),
		zap.Int("processed", report.Processed),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
		zap.Int("linked", report.Linked),
		zap.String("last_nsu", report.LastNSU),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// processBatch classifies, categorizes and upserts every document of one
// batch in delivery order. Per-record failures are collected, never fatal.
func (s *SyncService) processBatch(ctx context.Context, locationID uuid.UUID, batch *fiscal.BatchResult, report *SyncReport) {
	for _, raw := range batch.Documents {
		classified := fiscal.ClassifyDocument(raw)

		switch classified.Kind {
		case fiscal.DocumentKindEvent:
			report.Skipped++
			continue
		case fiscal.DocumentKindUnrecognized:
			report.Failed++
			report.Errors = append(report.Errors, RecordError{NSU: raw.NSU, Reason: fiscal.ErrDocumentUnrecognized.Error()})
			// The raw payload is kept as a stub keyed by its NSU; a parse
			// failure must never discard what the stream delivered.
			if err := s.unrecognized.Upsert(ctx, fiscal.NewUnrecognizedDocument(locationID, raw)); err != nil {
				s.logger.Error("failed to persist unrecognized document stub",
					zap.String("location_id", locationID.String()),
					zap.String("nsu", raw.NSU),
					zap.Error(err))
				continue
			}
			s.logger.Warn("unrecognized distribution document stored as stub",
				zap.String("location_id", locationID.String()),
				zap.String("nsu", raw.NSU),
				zap.String("schema", raw.Schema))
			continue
		}

		note, err := classified.ToNote(locationID)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, RecordError{NSU: raw.NSU, Reason: err.Error()})
			continue
		}

		if category := fiscal.Categorize(note.IssuerName, s.keywords); category != nil {
			note.CategoryID = category
		}

		if err := s.notes.Upsert(ctx, note); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, RecordError{NSU: raw.NSU, Reason: err.Error()})
			s.logger.Error("failed to persist fiscal note",
				zap.String("location_id", locationID.String()),
				zap.String("nsu", raw.NSU),
				zap.String("access_key", note.AccessKey),
				zap.Error(err))
			continue
		}
		report.Processed++
	}
}

// GetCursor returns the current cursor for a location, or a start-of-stream
// view for a location that has never synced.
func (s *SyncService) GetCursor(ctx context.Context, locationID uuid.UUID) (*fiscal.SyncCursor, error) {
	if locationID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	cursor, err := s.cursors.FindByLocation(ctx, locationID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fiscal.NewSyncCursor(locationID)
		}
		return nil, err
	}
	return cursor, nil
}

func (s *SyncService) loadOrCreateCursor(ctx context.Context, locationID uuid.UUID) (*fiscal.SyncCursor, error) {
	cursor, err := s.cursors.FindByLocation(ctx, locationID)
	if err == nil {
		return cursor, nil
	}
	if errors.Is(err, shared.ErrNotFound) {
		// Created lazily on first sync.
		return fiscal.NewSyncCursor(locationID)
	}
	return nil, err
}
