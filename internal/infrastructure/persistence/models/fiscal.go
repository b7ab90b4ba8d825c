package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fiscalflow/backend/internal/domain/fiscal"
)

// FiscalNoteModel is the persistence model for the FiscalNote domain entity.
// The (location_id, access_key) pair carries a unique index so the idempotent
// upsert can never produce a second row for the same document.
type FiscalNoteModel struct {
	BaseModel
	LocationID      uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_fiscal_notes_location_key,priority:1;index:idx_fiscal_notes_location,priority:1"`
	AccessKey       string           `gorm:"type:char(44);not null;uniqueIndex:idx_fiscal_notes_location_key,priority:2"`
	IssuerName      string           `gorm:"type:varchar(255)"`
	IssuerCNPJ      string           `gorm:"type:varchar(14);column:issuer_cnpj"`
	DestinationCNPJ string           `gorm:"type:varchar(14);column:destination_cnpj"`
	IssueDate       *time.Time       `gorm:"index"`
	NoteNumber      string           `gorm:"type:varchar(20)"`
	Series          string           `gorm:"type:varchar(10)"`
	TotalValue      *decimal.Decimal `gorm:"type:decimal(15,2)"`
	Status          string           `gorm:"type:varchar(20);not null;default:'UNKNOWN'"`
	NSU             string           `gorm:"type:varchar(15);column:nsu"`
	RawDocument     []byte           `gorm:"type:bytea"`
	CategoryID      *string          `gorm:"type:varchar(30);index"`
	LinkedReceiptID *uuid.UUID       `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (FiscalNoteModel) TableName() string {
	return "fiscal_notes"
}

// ToDomain converts the persistence model to a domain FiscalNote entity.
func (m *FiscalNoteModel) ToDomain() *fiscal.FiscalNote {
	note := &fiscal.FiscalNote{
		BaseEntity:      m.BaseModel.ToDomain(),
		LocationID:      m.LocationID,
		AccessKey:       m.AccessKey,
		IssuerName:      m.IssuerName,
		IssuerCNPJ:      m.IssuerCNPJ,
		DestinationCNPJ: m.DestinationCNPJ,
		IssueDate:       m.IssueDate,
		NoteNumber:      m.NoteNumber,
		Series:          m.Series,
		TotalValue:      m.TotalValue,
		Status:          fiscal.NoteStatus(m.Status),
		NSU:             m.NSU,
		RawDocument:     m.RawDocument,
		LinkedReceiptID: m.LinkedReceiptID,
	}
	if m.CategoryID != nil {
		category := fiscal.CategoryID(*m.CategoryID)
		note.CategoryID = &category
	}
	return note
}

// FromDomain populates the persistence model from a domain FiscalNote entity.
func (m *FiscalNoteModel) FromDomain(note *fiscal.FiscalNote) {
	m.FromDomainBaseEntity(note.BaseEntity)
	m.LocationID = note.LocationID
	m.AccessKey = note.AccessKey
	m.IssuerName = note.IssuerName
	m.IssuerCNPJ = note.IssuerCNPJ
	m.DestinationCNPJ = note.DestinationCNPJ
	m.IssueDate = note.IssueDate
	m.NoteNumber = note.NoteNumber
	m.Series = note.Series
	m.TotalValue = note.TotalValue
	m.Status = string(note.Status)
	m.NSU = note.NSU
	m.RawDocument = note.RawDocument
	m.LinkedReceiptID = note.LinkedReceiptID
	if note.CategoryID != nil {
		category := string(*note.CategoryID)
		m.CategoryID = &category
	} else {
		m.CategoryID = nil
	}
}

// SyncCursorModel is the persistence model for the SyncCursor domain entity.
// One row per location.
type SyncCursorModel struct {
	BaseModel
	LocationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sync_cursors_location"`
	LastNSU    string    `gorm:"type:char(15);not null;column:last_nsu"`
	MaxNSU     string    `gorm:"type:char(15);not null;column:max_nsu"`
}

// TableName returns the table name for GORM
func (SyncCursorModel) TableName() string {
	return "sync_cursors"
}

// ToDomain converts the persistence model to a domain SyncCursor entity.
func (m *SyncCursorModel) ToDomain() *fiscal.SyncCursor {
	return &fiscal.SyncCursor{
		BaseEntity: m.BaseModel.ToDomain(),
		LocationID: m.LocationID,
		LastNSU:    m.LastNSU,
		MaxNSU:     m.MaxNSU,
	}
}

// FromDomain populates the persistence model from a domain SyncCursor entity.
func (m *SyncCursorModel) FromDomain(cursor *fiscal.SyncCursor) {
	m.FromDomainBaseEntity(cursor.BaseEntity)
	m.LocationID = cursor.LocationID
	m.LastNSU = cursor.LastNSU
	m.MaxNSU = cursor.MaxNSU
}

// UnrecognizedDocumentModel is the persistence model for stubs of documents
// the classifier could not place. (location_id, nsu) is unique so re-delivery
// replaces the stored payload in place.
type UnrecognizedDocumentModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	LocationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_unrecognized_documents_location_nsu,priority:1"`
	NSU        string    `gorm:"type:char(15);not null;column:nsu;uniqueIndex:idx_unrecognized_documents_location_nsu,priority:2"`
	SchemaHint string    `gorm:"type:varchar(100)"`
	Payload    []byte    `gorm:"type:bytea"`
	Status     string    `gorm:"type:varchar(20);not null;default:'UNKNOWN'"`
	ReceivedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (UnrecognizedDocumentModel) TableName() string {
	return "unrecognized_documents"
}

// ToDomain converts the persistence model to a domain stub.
func (m *UnrecognizedDocumentModel) ToDomain() *fiscal.UnrecognizedDocument {
	return &fiscal.UnrecognizedDocument{
		ID:         m.ID,
		LocationID: m.LocationID,
		NSU:        m.NSU,
		Schema:     m.SchemaHint,
		Payload:    m.Payload,
		Status:     fiscal.NoteStatus(m.Status),
		ReceivedAt: m.ReceivedAt,
	}
}

// FromDomain populates the persistence model from a domain stub.
func (m *UnrecognizedDocumentModel) FromDomain(doc *fiscal.UnrecognizedDocument) {
	m.ID = doc.ID
	m.LocationID = doc.LocationID
	m.NSU = doc.NSU
	m.SchemaHint = doc.Schema
	m.Payload = doc.Payload
	m.Status = string(doc.Status)
	m.ReceivedAt = doc.ReceivedAt
}

// ReceiptModel is the read-only persistence model for receipts owned by the
// capture pipeline. This service never inserts or deletes rows here.
type ReceiptModel struct {
	ID                 uuid.UUID        `gorm:"type:uuid;primary_key"`
	LocationID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	ExtractedAccessKey string           `gorm:"type:varchar(64);index"`
	Establishment      string           `gorm:"type:varchar(255)"`
	Amount             *decimal.Decimal `gorm:"type:decimal(15,2)"`
	PurchaseDate       *time.Time
	CreatedAt          time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReceiptModel) TableName() string {
	return "receipts"
}

// ToDomain converts the persistence model to a domain Receipt read model.
func (m *ReceiptModel) ToDomain() *fiscal.Receipt {
	return &fiscal.Receipt{
		ID:                 m.ID,
		LocationID:         m.LocationID,
		ExtractedAccessKey: m.ExtractedAccessKey,
		Establishment:      m.Establishment,
		Amount:             m.Amount,
		PurchaseDate:       m.PurchaseDate,
		CreatedAt:          m.CreatedAt,
	}
}
