package handler

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fiscalflow/backend/internal/domain/fiscal"
	"github.com/fiscalflow/backend/internal/domain/shared"
)

// Map-backed fakes for the fiscal repositories and ports

type mockNoteRepository struct {
	notes     map[uuid.UUID]*fiscal.FiscalNote
	returnErr error
}

func newMockNoteRepository() *mockNoteRepository {
	return &mockNoteRepository{notes: make(map[uuid.UUID]*fiscal.FiscalNote)}
}

func (m *mockNoteRepository) add(note *fiscal.FiscalNote) {
	m.notes[note.GetID()] = note
}

func (m *mockNoteRepository) Upsert(ctx context.Context, note *fiscal.FiscalNote) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	for _, existing := range m.notes {
		if existing.LocationID == note.LocationID && existing.AccessKey == note.AccessKey {
			return existing.Merge(note)
		}
	}
	m.notes[note.GetID()] = note
	return nil
}

func (m *mockNoteRepository) Save(ctx context.Context, note *fiscal.FiscalNote) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.notes[note.GetID()] = note
	return nil
}

func (m *mockNoteRepository) FindByAccessKey(ctx context.Context, locationID uuid.UUID, accessKey string) (*fiscal.FiscalNote, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	key, ok := fiscal.NormalizeAccessKey(accessKey)
	if !ok {
		return nil, fiscal.ErrInvalidAccessKey
	}
	for _, note := range m.notes {
		if note.LocationID == locationID && note.AccessKey == key {
			return note, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockNoteRepository) FindAllForLocation(ctx context.Context, locationID uuid.UUID, filter fiscal.FiscalNoteFilter) ([]fiscal.FiscalNote, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []fiscal.FiscalNote
	for _, note := range m.notes {
		if note.LocationID != locationID {
			continue
		}
		if filter.Status != nil && note.Status != *filter.Status {
			continue
		}
		if filter.Linked != nil && note.IsLinked() != *filter.Linked {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(note.IssuerName), strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, *note)
	}
	return result, nil
}

func (m *mockNoteRepository) CountForLocation(ctx context.Context, locationID uuid.UUID, filter fiscal.FiscalNoteFilter) (int64, error) {
	notes, err := m.FindAllForLocation(ctx, locationID, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(notes)), nil
}

func (m *mockNoteRepository) FindUnlinkedByAccessKeys(ctx context.Context, locationID uuid.UUID, accessKeys []string) ([]fiscal.FiscalNote, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	wanted := make(map[string]bool, len(accessKeys))
	for _, key := range accessKeys {
		wanted[key] = true
	}
	var result []fiscal.FiscalNote
	for _, note := range m.notes {
		if note.LocationID == locationID && !note.IsLinked() && wanted[note.AccessKey] {
			result = append(result, *note)
		}
	}
	return result, nil
}

func (m *mockNoteRepository) FindByLinkedReceipt(ctx context.Context, receiptID uuid.UUID) ([]fiscal.FiscalNote, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []fiscal.FiscalNote
	for _, note := range m.notes {
		if note.LinkedReceiptID != nil && *note.LinkedReceiptID == receiptID {
			result = append(result, *note)
		}
	}
	return result, nil
}

func (m *mockNoteRepository) SumByCategory(ctx context.Context, locationID uuid.UUID, from, to time.Time) (map[fiscal.CategoryID]fiscal.CategorySum, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	sums := make(map[fiscal.CategoryID]fiscal.CategorySum)
	for _, note := range m.notes {
		if note.LocationID != locationID || note.CategoryID == nil || note.Status != fiscal.NoteStatusActive {
			continue
		}
		sum := sums[*note.CategoryID]
		sum.Count++
		if note.TotalValue != nil {
			sum.Total = note.TotalValue.StringFixed(2)
		}
		sums[*note.CategoryID] = sum
	}
	return sums, nil
}

type mockUnrecognizedRepository struct {
	stubs     map[string]*fiscal.UnrecognizedDocument
	returnErr error
}

func newMockUnrecognizedRepository() *mockUnrecognizedRepository {
	return &mockUnrecognizedRepository{stubs: make(map[string]*fiscal.UnrecognizedDocument)}
}

func (m *mockUnrecognizedRepository) Upsert(ctx context.Context, doc *fiscal.UnrecognizedDocument) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.stubs[doc.LocationID.String()+doc.NSU] = doc
	return nil
}

func (m *mockUnrecognizedRepository) FindAllForLocation(ctx context.Context, locationID uuid.UUID) ([]fiscal.UnrecognizedDocument, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []fiscal.UnrecognizedDocument
	for _, doc := range m.stubs {
		if doc.LocationID == locationID {
			result = append(result, *doc)
		}
	}
	return result, nil
}

type mockCursorRepository struct {
	cursors   map[uuid.UUID]*fiscal.SyncCursor
	returnErr error
}

func newMockCursorRepository() *mockCursorRepository {
	return &mockCursorRepository{cursors: make(map[uuid.UUID]*fiscal.SyncCursor)}
}

func (m *mockCursorRepository) FindByLocation(ctx context.Context, locationID uuid.UUID) (*fiscal.SyncCursor, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if cursor, ok := m.cursors[locationID]; ok {
		return cursor, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockCursorRepository) Save(ctx context.Context, cursor *fiscal.SyncCursor) error {
	if m.returnErr != nil {
		return m.returnErr
	}
	m.cursors[cursor.LocationID] = cursor
	return nil
}

type mockReceiptRepository struct {
	receipts  map[uuid.UUID]*fiscal.Receipt
	returnErr error
}

func newMockReceiptRepository() *mockReceiptRepository {
	return &mockReceiptRepository{receipts: make(map[uuid.UUID]*fiscal.Receipt)}
}

func (m *mockReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*fiscal.Receipt, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	if receipt, ok := m.receipts[id]; ok {
		return receipt, nil
	}
	return nil, shared.ErrNotFound
}

func (m *mockReceiptRepository) FindWithAccessKeyForLocation(ctx context.Context, locationID uuid.UUID) ([]fiscal.Receipt, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	var result []fiscal.Receipt
	for _, receipt := range m.receipts {
		if receipt.LocationID == locationID && receipt.ExtractedAccessKey != "" {
			result = append(result, *receipt)
		}
	}
	return result, nil
}

type mockDistributionClient struct {
	batch     *fiscal.BatchResult
	returnErr error
}

func (m *mockDistributionClient) FetchSince(ctx context.Context, locationID uuid.UUID, lastNSU string) (*fiscal.BatchResult, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	return m.batch, nil
}

func (m *mockDistributionClient) FetchByNSU(ctx context.Context, locationID uuid.UUID, nsu string) (*fiscal.BatchResult, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	return m.batch, nil
}

func (m *mockDistributionClient) FetchByAccessKey(ctx context.Context, locationID uuid.UUID, accessKey string) (*fiscal.BatchResult, error) {
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	return m.batch, nil
}

type mockSyncLocker struct {
	held map[uuid.UUID]bool
}

func newMockSyncLocker() *mockSyncLocker {
	return &mockSyncLocker{held: make(map[uuid.UUID]bool)}
}

func (m *mockSyncLocker) Acquire(ctx context.Context, locationID uuid.UUID) (bool, error) {
	if m.held[locationID] {
		return false, nil
	}
	m.held[locationID] = true
	return true, nil
}

func (m *mockSyncLocker) Release(ctx context.Context, locationID uuid.UUID) error {
	delete(m.held, locationID)
	return nil
}
