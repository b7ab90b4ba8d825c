package fiscal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/fiscalflow/backend/internal/domain/fiscal"
)

// MockDistributionClient is a mock implementation of fiscal.DistributionClient
type MockDistributionClient struct {
	mock.Mock
}

func (m *MockDistributionClient) FetchSince(ctx context.Context, locationID uuid.UUID, lastNSU string) (*fiscal.BatchResult, error) {
	args := m.Called(ctx, locationID, lastNSU)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.BatchResult), args.Error(1)
}

func (m *MockDistributionClient) FetchByNSU(ctx context.Context, locationID uuid.UUID, nsu string) (*fiscal.BatchResult, error) {
	args := m.Called(ctx, locationID, nsu)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.BatchResult), args.Error(1)
}

func (m *MockDistributionClient) FetchByAccessKey(ctx context.Context, locationID uuid.UUID, accessKey string) (*fiscal.BatchResult, error) {
	args := m.Called(ctx, locationID, accessKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.BatchResult), args.Error(1)
}

// MockFiscalNoteRepository is a mock implementation of fiscal.FiscalNoteRepository
type MockFiscalNoteRepository struct {
	mock.Mock
}

func (m *MockFiscalNoteRepository) Upsert(ctx context.Context, note *fiscal.FiscalNote) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockFiscalNoteRepository) Save(ctx context.Context, note *fiscal.FiscalNote) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockFiscalNoteRepository) FindByAccessKey(ctx context.Context, locationID uuid.UUID, accessKey string) (*fiscal.FiscalNote, error) {
	args := m.Called(ctx, locationID, accessKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.FiscalNote), args.Error(1)
}

func (m *MockFiscalNoteRepository) FindAllForLocation(ctx context.Context, locationID uuid.UUID, filter fiscal.FiscalNoteFilter) ([]fiscal.FiscalNote, error) {
	args := m.Called(ctx, locationID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fiscal.FiscalNote), args.Error(1)
}

func (m *MockFiscalNoteRepository) CountForLocation(ctx context.Context, locationID uuid.UUID, filter fiscal.FiscalNoteFilter) (int64, error) {
	args := m.Called(ctx, locationID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFiscalNoteRepository) FindUnlinkedByAccessKeys(ctx context.Context, locationID uuid.UUID, accessKeys []string) ([]fiscal.FiscalNote, error) {
	args := m.Called(ctx, locationID, accessKeys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fiscal.FiscalNote), args.Error(1)
}

func (m *MockFiscalNoteRepository) FindByLinkedReceipt(ctx context.Context, receiptID uuid.UUID) ([]fiscal.FiscalNote, error) {
	args := m.Called(ctx, receiptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fiscal.FiscalNote), args.Error(1)
}

func (m *MockFiscalNoteRepository) SumByCategory(ctx context.Context, locationID uuid.UUID, from, to time.Time) (map[fiscal.CategoryID]fiscal.CategorySum, error) {
	args := m.Called(ctx, locationID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[fiscal.CategoryID]fiscal.CategorySum), args.Error(1)
}

// MockUnrecognizedDocumentRepository is a mock implementation of fiscal.UnrecognizedDocumentRepository
type MockUnrecognizedDocumentRepository struct {
	mock.Mock
}

func (m *MockUnrecognizedDocumentRepository) Upsert(ctx context.Context, doc *fiscal.UnrecognizedDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockUnrecognizedDocumentRepository) FindAllForLocation(ctx context.Context, locationID uuid.UUID) ([]fiscal.UnrecognizedDocument, error) {
	args := m.Called(ctx, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fiscal.UnrecognizedDocument), args.Error(1)
}

// MockSyncCursorRepository is a mock implementation of fiscal.SyncCursorRepository
type MockSyncCursorRepository struct {
	mock.Mock
}

func (m *MockSyncCursorRepository) FindByLocation(ctx context.Context, locationID uuid.UUID) (*fiscal.SyncCursor, error) {
	args := m.Called(ctx, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.SyncCursor), args.Error(1)
}

func (m *MockSyncCursorRepository) Save(ctx context.Context, cursor *fiscal.SyncCursor) error {
	args := m.Called(ctx, cursor)
	return args.Error(0)
}

// MockReceiptRepository is a mock implementation of fiscal.ReceiptRepository
type MockReceiptRepository struct {
	mock.Mock
}

func (m *MockReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*fiscal.Receipt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscal.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) FindWithAccessKeyForLocation(ctx context.Context, locationID uuid.UUID) ([]fiscal.Receipt, error) {
	args := m.Called(ctx, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fiscal.Receipt), args.Error(1)
}

// MockSyncLocker is a mock implementation of SyncLocker
type MockSyncLocker struct {
	mock.Mock
}

func (m *MockSyncLocker) Acquire(ctx context.Context, locationID uuid.UUID) (bool, error) {
	args := m.Called(ctx, locationID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSyncLocker) Release(ctx context.Context, locationID uuid.UUID) error {
	args := m.Called(ctx, locationID)
	return args.Error(0)
}
