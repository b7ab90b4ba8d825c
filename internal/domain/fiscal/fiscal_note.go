package fiscal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fiscalflow/backend/internal/domain/shared"
)

// NoteStatus represents the lifecycle status of a fiscal note
type NoteStatus string

const (
	NoteStatusActive    NoteStatus = "ACTIVE"
	NoteStatusCancelled NoteStatus = "CANCELLED"
	NoteStatusDenied    NoteStatus = "DENIED"
	NoteStatusUnknown   NoteStatus = "UNKNOWN"
)

// IsValid checks if the status is a valid NoteStatus
func (s NoteStatus) IsValid() bool {
	switch s {
	case NoteStatusActive, NoteStatusCancelled, NoteStatusDenied, NoteStatusUnknown:
		return true
	}
	return false
}

// String returns the string representation of NoteStatus
func (s NoteStatus) String() string {
	return string(s)
}

// FiscalNote is the stored, normalized form of a government-confirmed
// electronic invoice. (LocationID, AccessKey) uniquely identifies a note;
// re-ingesting the same key merges fields instead of duplicating.
type FiscalNote struct {
	shared.BaseEntity
	LocationID      uuid.UUID
	AccessKey       string
	IssuerName      string
	IssuerCNPJ      string
	DestinationCNPJ string
	IssueDate       *time.Time
	NoteNumber      string
	Series          string
	TotalValue      *decimal.Decimal
	Status          NoteStatus
	NSU             string
	RawDocument     []byte
	CategoryID      *CategoryID
	LinkedReceiptID *uuid.UUID
}

// NewFiscalNote creates a fiscal note from a classified document. The access
// key must be a valid 44-digit key; documents without one never become notes.
func NewFiscalNote(locationID uuid.UUID, accessKey string) (*FiscalNote, error) {
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Location ID cannot be empty")
	}
	key, ok := NormalizeAccessKey(accessKey)
	if !ok {
		return nil, ErrInvalidAccessKey
	}
	return &FiscalNote{
		BaseEntity: shared.NewBaseEntity(),
		LocationID: locationID,
		AccessKey:  key,
		Status:     NoteStatusUnknown,
	}, nil
}

// Merge folds a re-delivered version of the same document into the stored
// note. Later fields win, except the receipt link and category, which
// survive redelivery so reconciliation work is never lost.
func (n *FiscalNote) Merge(incoming *FiscalNote) error {
	if incoming.AccessKey != n.AccessKey || incoming.LocationID != n.LocationID {
		return shared.NewDomainError("KEY_MISMATCH", "Cannot merge notes with different identities")
	}
	if incoming.IssuerName != "" {
		n.IssuerName = incoming.IssuerName
	}
	if incoming.IssuerCNPJ != "" {
		n.IssuerCNPJ = incoming.IssuerCNPJ
	}
	if incoming.DestinationCNPJ != "" {
		n.DestinationCNPJ = incoming.DestinationCNPJ
	}
	if incoming.IssueDate != nil {
		n.IssueDate = incoming.IssueDate
	}
	if incoming.NoteNumber != "" {
		n.NoteNumber = incoming.NoteNumber
	}
	if incoming.Series != "" {
		n.Series = incoming.Series
	}
	if incoming.TotalValue != nil {
		n.TotalValue = incoming.TotalValue
	}
	if incoming.Status != "" && incoming.Status != NoteStatusUnknown {
		n.Status = incoming.Status
	}
	if incoming.NSU != "" {
		n.NSU = incoming.NSU
	}
	if len(incoming.RawDocument) > 0 {
		n.RawDocument = incoming.RawDocument
	}
	if incoming.CategoryID != nil {
		n.CategoryID = incoming.CategoryID
	}
	n.UpdatedAt = time.Now()
	return nil
}

// SetCategory assigns an inferred expense category.
func (n *FiscalNote) SetCategory(id CategoryID) error {
	if !id.IsValid() {
		return shared.NewDomainError("INVALID_CATEGORY", "Category is not valid")
	}
	n.CategoryID = &id
	n.UpdatedAt = time.Now()
	return nil
}

// LinkReceipt records the receipt this note reconciles against. Linking an
// already linked note to a different receipt is rejected; re-linking the
// same receipt is a no-op so reconciliation stays idempotent.
func (n *FiscalNote) LinkReceipt(receiptID uuid.UUID) error {
	if receiptID == uuid.Nil {
		return shared.NewDomainError("INVALID_RECEIPT", "Receipt ID cannot be empty")
	}
	if n.LinkedReceiptID != nil {
		if *n.LinkedReceiptID == receiptID {
			return nil
		}
		return shared.NewDomainError("ALREADY_LINKED", "Fiscal note is already linked to another receipt")
	}
	n.LinkedReceiptID = &receiptID
	n.UpdatedAt = time.Now()
	return nil
}

// UnlinkReceipt clears the weak reference to a deleted receipt.
func (n *FiscalNote) UnlinkReceipt() {
	n.LinkedReceiptID = nil
	n.UpdatedAt = time.Now()
}

// IsLinked reports whether the note is reconciled against a receipt.
func (n *FiscalNote) IsLinked() bool {
	return n.LinkedReceiptID != nil
}
