package handler

import (
	"time"

	"github.com/fiscalflow/backend/internal/application/fiscal"
	domainfiscal "github.com/fiscalflow/backend/internal/domain/fiscal"
)

// FiscalNoteResponse represents a fiscal note in API responses
// @Description Stored fiscal note with reconciliation state
type FiscalNoteResponse struct {
	ID              string     `json:"id"`
	LocationID      string     `json:"location_id"`
	AccessKey       string     `json:"access_key"`
	IssuerName      string     `json:"issuer_name,omitempty"`
	IssuerCNPJ      string     `json:"issuer_cnpj,omitempty"`
	DestinationCNPJ string     `json:"destination_cnpj,omitempty"`
	IssueDate       *time.Time `json:"issue_date,omitempty"`
	NoteNumber      string     `json:"note_number,omitempty"`
	Series          string     `json:"series,omitempty"`
	TotalValue      *string    `json:"total_value,omitempty"`
	Status          string     `json:"status"`
	NSU             string     `json:"nsu,omitempty"`
	Category        *string    `json:"category,omitempty"`
	LinkedReceiptID *string    `json:"linked_receipt_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ToFiscalNoteResponse converts a domain fiscal note to its API shape
func ToFiscalNoteResponse(note *domainfiscal.FiscalNote) FiscalNoteResponse {
	resp := FiscalNoteResponse{
		ID:              note.GetID().String(),
		LocationID:      note.LocationID.String(),
		AccessKey:       note.AccessKey,
		IssuerName:      note.IssuerName,
		IssuerCNPJ:      note.IssuerCNPJ,
		DestinationCNPJ: note.DestinationCNPJ,
		IssueDate:       note.IssueDate,
		NoteNumber:      note.NoteNumber,
		Series:          note.Series,
		Status:          note.Status.String(),
		NSU:             note.NSU,
		CreatedAt:       note.CreatedAt,
		UpdatedAt:       note.UpdatedAt,
	}
	if note.TotalValue != nil {
		v := note.TotalValue.StringFixed(2)
		resp.TotalValue = &v
	}
	if note.CategoryID != nil {
		c := note.CategoryID.String()
		resp.Category = &c
	}
	if note.LinkedReceiptID != nil {
		r := note.LinkedReceiptID.String()
		resp.LinkedReceiptID = &r
	}
	return resp
}

// ToFiscalNoteResponses converts a slice of domain notes
func ToFiscalNoteResponses(notes []domainfiscal.FiscalNote) []FiscalNoteResponse {
	responses := make([]FiscalNoteResponse, 0, len(notes))
	for i := range notes {
		responses = append(responses, ToFiscalNoteResponse(&notes[i]))
	}
	return responses
}

// UnrecognizedDocumentResponse represents a stored stub of a document the
// classifier could not place
// @Description Unrecognized distribution document stub
type UnrecognizedDocumentResponse struct {
	ID         string    `json:"id"`
	LocationID string    `json:"location_id"`
	NSU        string    `json:"nsu"`
	Schema     string    `json:"schema,omitempty"`
	Payload    string    `json:"payload,omitempty"`
	Status     string    `json:"status"`
	ReceivedAt time.Time `json:"received_at"`
}

// ToUnrecognizedDocumentResponses converts a slice of domain stubs
func ToUnrecognizedDocumentResponses(stubs []domainfiscal.UnrecognizedDocument) []UnrecognizedDocumentResponse {
	responses := make([]UnrecognizedDocumentResponse, 0, len(stubs))
	for _, stub := range stubs {
		responses = append(responses, UnrecognizedDocumentResponse{
			ID:         stub.ID.String(),
			LocationID: stub.LocationID.String(),
			NSU:        stub.NSU,
			Schema:     stub.Schema,
			Payload:    string(stub.Payload),
			Status:     stub.Status.String(),
			ReceivedAt: stub.ReceivedAt,
		})
	}
	return responses
}

// SyncCursorResponse represents a location's sync position
// @Description Per-location sync cursor
type SyncCursorResponse struct {
	LocationID string `json:"location_id"`
	LastNSU    string `json:"last_nsu"`
	MaxNSU     string `json:"max_nsu"`
	HasPending bool   `json:"has_pending"`
}

// ToSyncCursorResponse converts a domain cursor to its API shape
func ToSyncCursorResponse(cursor *domainfiscal.SyncCursor) SyncCursorResponse {
	return SyncCursorResponse{
		LocationID: cursor.LocationID.String(),
		LastNSU:    cursor.LastNSU,
		MaxNSU:     cursor.MaxNSU,
		HasPending: cursor.HasPending(),
	}
}

// SyncReportResponse represents the terminal result of one sync attempt
// @Description Sync attempt report
type SyncReportResponse struct {
	LocationID string               `json:"location_id"`
	Outcome    string               `json:"outcome"`
	Processed  int                  `json:"processed"`
	Failed     int                  `json:"failed"`
	Skipped    int                  `json:"skipped"`
	Linked     int                  `json:"linked"`
	LastNSU    string               `json:"last_nsu"`
	MaxNSU     string               `json:"max_nsu"`
	Errors     []fiscal.RecordError `json:"errors,omitempty"`
	Warning    string               `json:"warning,omitempty"`
	DurationMS int64                `json:"duration_ms"`
}

// ToSyncReportResponse converts an application sync report to its API shape
func ToSyncReportResponse(report *fiscal.SyncReport) SyncReportResponse {
	return SyncReportResponse{
		LocationID: report.LocationID.String(),
		Outcome:    string(report.Outcome),
		Processed:  report.Processed,
		Failed:     report.Failed,
		Skipped:    report.Skipped,
		Linked:     report.Linked,
		LastNSU:    report.LastNSU,
		MaxNSU:     report.MaxNSU,
		Errors:     report.Errors,
		Warning:    report.Warning,
		DurationMS: report.Duration.Milliseconds(),
	}
}
