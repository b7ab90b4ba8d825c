package fiscal

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentKind tags the schema a distribution payload was classified into.
// Downstream code switches exhaustively on the tag instead of probing fields.
type DocumentKind string

const (
	// DocumentKindSummary is a lightweight existence notice (resNFe).
	DocumentKindSummary DocumentKind = "SUMMARY"
	// DocumentKindFull is a complete structured document (procNFe).
	DocumentKindFull DocumentKind = "FULL"
	// DocumentKindEvent is a lifecycle event (cancellation etc.), never
	// persisted as a note.
	DocumentKindEvent DocumentKind = "EVENT"
	// DocumentKindUnrecognized is anything the classifier could not place.
	DocumentKindUnrecognized DocumentKind = "UNRECOGNIZED"
)

// String returns the string representation of DocumentKind
func (k DocumentKind) String() string {
	return string(k)
}

// SummaryRecord carries the headline fields of a summary payload.
type SummaryRecord struct {
	AccessKey     string
	IssuerCNPJ    string
	IssuerName    string
	IssueDate     *time.Time
	DeclaredTotal *decimal.Decimal
	Status        NoteStatus
}

// FullRecord carries the normalized fields of a complete document.
type FullRecord struct {
	AccessKey       string
	IssuerCNPJ      string
	IssuerName      string
	DestinationCNPJ string
	IssueDate       *time.Time
	NoteNumber      string
	Series          string
	TotalValue      *decimal.Decimal
	Status          NoteStatus
}

// EventRecord identifies a lifecycle event delivered through the stream.
type EventRecord struct {
	AccessKey string
	EventType string
}

// ClassifiedDocument is the tagged variant produced once at classification
// time. Exactly one of the record pointers matching Kind is non-nil.
type ClassifiedDocument struct {
	Kind    DocumentKind
	NSU     string
	Raw     []byte
	Summary *SummaryRecord
	Full    *FullRecord
	Event   *EventRecord
}

// wire shapes of the three known distribution payloads

type summaryPayload struct {
	AccessKey string `json:"chNFe"`
	CNPJ      string `json:"CNPJ"`
	Name      string `json:"xNome"`
	IssuedAt  string `json:"dhEmi"`
	Total     string `json:"vNF"`
	Situation string `json:"cSitNFe"`
}

type fullPayload struct {
	NFe *struct {
		InfNFe *struct {
			Ide *struct {
				Number   string `json:"nNF"`
				Series   string `json:"serie"`
				IssuedAt string `json:"dhEmi"`
			} `json:"ide"`
			Issuer *struct {
				CNPJ string `json:"CNPJ"`
				Name string `json:"xNome"`
			} `json:"emit"`
			Destination *struct {
				CNPJ string `json:"CNPJ"`
			} `json:"dest"`
			Total *struct {
				ICMSTot *struct {
					Value string `json:"vNF"`
				} `json:"ICMSTot"`
			} `json:"total"`
		} `json:"infNFe"`
	} `json:"NFe"`
	Protocol *struct {
		InfProt *struct {
			AccessKey string `json:"chNFe"`
			Status    string `json:"cStat"`
		} `json:"infProt"`
	} `json:"protNFe"`
}

type eventPayload struct {
	AccessKey string `json:"chNFe"`
	EventType string `json:"tpEvento"`
}

// schema hints announced by the distribution service per document unit
const (
	schemaSummary  = "resNFe"
	schemaFull     = "procNFe"
	schemaEvent    = "procEventoNFe"
	schemaEventRes = "resEvento"
)

// protocol acceptance code meaning "authorized"
const protocolStatusAuthorized = "100"

// ClassifyDocument determines which of the three known schemas a raw
// distribution unit carries and extracts a normalized record. It never
// fails: payloads that match no schema come back as Unrecognized.
func ClassifyDocument(doc RawDocument) *ClassifiedDocument {
	out := &ClassifiedDocument{
		NSU: doc.NSU,
		Raw: doc.Payload,
	}

	schema := strings.TrimSpace(doc.Schema)
	switch {
	case strings.HasPrefix(schema, schemaEvent), strings.HasPrefix(schema, schemaEventRes):
		out.Kind = DocumentKindEvent
		out.Event = parseEvent(doc.Payload)
		return out
	case strings.HasPrefix(schema, schemaSummary):
		if s := parseSummary(doc.Payload); s != nil {
			out.Kind = DocumentKindSummary
			out.Summary = s
			return out
		}
	case strings.HasPrefix(schema, schemaFull), strings.HasPrefix(schema, "nfeProc"):
		if f := parseFull(doc.Payload); f != nil {
			out.Kind = DocumentKindFull
			out.Full = f
			return out
		}
	default:
		// No usable hint; probe the payload shape, full first since its
		// envelope is unambiguous.
		if f := parseFull(doc.Payload); f != nil {
			out.Kind = DocumentKindFull
			out.Full = f
			return out
		}
		if s := parseSummary(doc.Payload); s != nil {
			out.Kind = DocumentKindSummary
			out.Summary = s
			return out
		}
	}

	out.Kind = DocumentKindUnrecognized
	return out
}

func parseSummary(payload []byte) *SummaryRecord {
	var p summaryPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil
	}
	key, ok := NormalizeAccessKey(p.AccessKey)
	if !ok {
		return nil
	}
	return &SummaryRecord{
		AccessKey:     key,
		IssuerCNPJ:    p.CNPJ,
		IssuerName:    p.Name,
		IssueDate:     parseIssueDate(p.IssuedAt),
		DeclaredTotal: parseTotal(p.Total),
		Status:        summaryStatus(p.Situation),
	}
}

func parseFull(payload []byte) *FullRecord {
	var p fullPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil
	}
	if p.Protocol == nil || p.Protocol.InfProt == nil {
		return nil
	}
	key, ok := NormalizeAccessKey(p.Protocol.InfProt.AccessKey)
	if !ok {
		return nil
	}

	rec := &FullRecord{
		AccessKey: key,
		Status:    fullStatus(p.Protocol.InfProt.Status),
	}

	// A full record missing its header still yields a stub with the protocol
	// key so the document is not silently lost.
	if p.NFe == nil || p.NFe.InfNFe == nil {
		rec.Status = NoteStatusActive
		return rec
	}

	inf := p.NFe.InfNFe
	if inf.Ide != nil {
		rec.NoteNumber = inf.Ide.Number
		rec.Series = inf.Ide.Series
		rec.IssueDate = parseIssueDate(inf.Ide.IssuedAt)
	}
	if inf.Issuer != nil {
		rec.IssuerCNPJ = inf.Issuer.CNPJ
		rec.IssuerName = inf.Issuer.Name
	}
	if inf.Destination != nil {
		rec.DestinationCNPJ = inf.Destination.CNPJ
	}
	if inf.Total != nil && inf.Total.ICMSTot != nil {
		rec.TotalValue = parseTotal(inf.Total.ICMSTot.Value)
	}
	return rec
}

func parseEvent(payload []byte) *EventRecord {
	var p eventPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return &EventRecord{}
	}
	key, _ := NormalizeAccessKey(p.AccessKey)
	return &EventRecord{AccessKey: key, EventType: p.EventType}
}

// summaryStatus maps the summary situation code to a note status.
func summaryStatus(code string) NoteStatus {
	switch code {
	case "1":
		return NoteStatusActive
	case "2":
		return NoteStatusCancelled
	case "3":
		return NoteStatusDenied
	default:
		return NoteStatusUnknown
	}
}

// fullStatus maps the protocol acceptance code to a note status. Only
// authorized-vs-not is distinguished for full records.
func fullStatus(code string) NoteStatus {
	if code == protocolStatusAuthorized {
		return NoteStatusActive
	}
	return NoteStatusCancelled
}

func parseIssueDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func parseTotal(raw string) *decimal.Decimal {
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return nil
	}
	return &d
}

// UnrecognizedDocument is the minimal stub stored for a payload that matched
// no known schema. It is keyed by (location, NSU) instead of an access key,
// always carries status unknown, and retains the raw payload so nothing the
// stream delivered is lost.
type UnrecognizedDocument struct {
	ID         uuid.UUID
	LocationID uuid.UUID
	NSU        string
	Schema     string
	Payload    []byte
	Status     NoteStatus
	ReceivedAt time.Time
}

// NewUnrecognizedDocument builds the stub for one raw distribution unit.
func NewUnrecognizedDocument(locationID uuid.UUID, doc RawDocument) *UnrecognizedDocument {
	return &UnrecognizedDocument{
		ID:         uuid.New(),
		LocationID: locationID,
		NSU:        NormalizeNSU(doc.NSU),
		Schema:     doc.Schema,
		Payload:    doc.Payload,
		Status:     NoteStatusUnknown,
		ReceivedAt: time.Now().UTC(),
	}
}

// ToNote converts a classified summary or full record into a fiscal note
// stamped with its originating NSU and raw payload. Event and unrecognized
// documents never become notes.
func (d *ClassifiedDocument) ToNote(locationID uuid.UUID) (*FiscalNote, error) {
	switch d.Kind {
	case DocumentKindSummary:
		note, err := NewFiscalNote(locationID, d.Summary.AccessKey)
		if err != nil {
			return nil, err
		}
		note.IssuerCNPJ = d.Summary.IssuerCNPJ
		note.IssuerName = d.Summary.IssuerName
		note.IssueDate = d.Summary.IssueDate
		note.TotalValue = d.Summary.DeclaredTotal
		note.Status = d.Summary.Status
		note.NSU = d.NSU
		note.RawDocument = d.Raw
		return note, nil
	case DocumentKindFull:
		note, err := NewFiscalNote(locationID, d.Full.AccessKey)
		if err != nil {
			return nil, err
		}
		note.IssuerCNPJ = d.Full.IssuerCNPJ
		note.IssuerName = d.Full.IssuerName
		note.DestinationCNPJ = d.Full.DestinationCNPJ
		note.IssueDate = d.Full.IssueDate
		note.NoteNumber = d.Full.NoteNumber
		note.Series = d.Full.Series
		note.TotalValue = d.Full.TotalValue
		note.Status = d.Full.Status
		note.NSU = d.NSU
		note.RawDocument = d.Raw
		return note, nil
	case DocumentKindEvent:
		return nil, ErrDocumentIsEvent
	default:
		return nil, ErrDocumentUnrecognized
	}
}
