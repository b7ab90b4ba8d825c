package fiscal

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Distribution Errors
// ---------------------------------------------------------------------------

var (
	// ErrChannelNotConfigured indicates the location has no usable
	// authenticated channel to the distribution service.
	ErrChannelNotConfigured = errors.New("fiscal: distribution channel not configured for location")
	// ErrInvalidAccessKey indicates a malformed 44-digit access key.
	ErrInvalidAccessKey = errors.New("fiscal: invalid access key")
	// ErrInvalidNSU indicates a malformed sequence number.
	ErrInvalidNSU = errors.New("fiscal: invalid NSU")
	// ErrDistributionUnavailable wraps network/TLS/timeout failures talking
	// to the distribution service. The cursor is never touched on this path.
	ErrDistributionUnavailable = errors.New("fiscal: distribution service unavailable")
	// ErrInvalidResponse indicates a response envelope that could not be decoded.
	ErrInvalidResponse = errors.New("fiscal: invalid distribution response")
	// ErrSyncInFlight indicates another sync is already running for the location.
	ErrSyncInFlight = errors.New("fiscal: sync already in flight for location")
	// ErrDocumentIsEvent marks a lifecycle event, which is skipped rather
	// than persisted as a note.
	ErrDocumentIsEvent = errors.New("fiscal: document is a lifecycle event")
	// ErrDocumentUnrecognized marks a payload that matched no known schema.
	ErrDocumentUnrecognized = errors.New("fiscal: document could not be classified")
)

// ServiceRejectedError is returned when the distribution service answers
// with a recognized but non-success status code. The service's own code and
// reason text are surfaced verbatim to the caller.
type ServiceRejectedError struct {
	StatusCode string
	StatusText string
}

func (e *ServiceRejectedError) Error() string {
	return fmt.Sprintf("fiscal: distribution service rejected request: %s - %s", e.StatusCode, e.StatusText)
}

// ---------------------------------------------------------------------------
// Status codes
// ---------------------------------------------------------------------------

// Distribution service status codes consumed by the sync engine. Any other
// code is treated as a rejection.
const (
	StatusDocumentsFound  = "138"
	StatusNoNewDocuments  = "137"
	StatusConsumedTooSoon = "656"
)

// BatchOutcome classifies the distribution service's answer to one request.
type BatchOutcome string

const (
	// OutcomeSuccess means the batch carries documents (status 138).
	OutcomeSuccess BatchOutcome = "SUCCESS"
	// OutcomeNoNewDocuments means the stream is drained (status 137/656).
	OutcomeNoNewDocuments BatchOutcome = "NO_NEW_DOCUMENTS"
)

// InterpretStatusCode maps a service status code to an outcome. A nil error
// with OutcomeSuccess means documents are present; recognized empty-stream
// codes yield OutcomeNoNewDocuments; everything else is a rejection.
func InterpretStatusCode(code, text string) (BatchOutcome, error) {
	switch code {
	case StatusDocumentsFound:
		return OutcomeSuccess, nil
	case StatusNoNewDocuments, StatusConsumedTooSoon:
		return OutcomeNoNewDocuments, nil
	default:
		return "", &ServiceRejectedError{StatusCode: code, StatusText: text}
	}
}

// ---------------------------------------------------------------------------
// Batch types
// ---------------------------------------------------------------------------

// RawDocument is one unit inside a distribution batch. It is ephemeral and
// never persisted as-is; the classifier turns it into a ClassifiedDocument.
type RawDocument struct {
	NSU     string
	Schema  string
	Payload []byte
}

// BatchResult is the interpreted answer to one distribution request.
type BatchResult struct {
	Outcome    BatchOutcome
	StatusCode string
	StatusText string
	UltNSU     string
	MaxNSU     string
	Documents  []RawDocument
}

// HasDocuments reports whether the batch carries at least one document.
func (r *BatchResult) HasDocuments() bool {
	return r.Outcome == OutcomeSuccess && len(r.Documents) > 0
}

// ---------------------------------------------------------------------------
// DistributionClient port
// ---------------------------------------------------------------------------

// DistributionClient issues requests against the document distribution
// service on behalf of one business location. Implementations resolve the
// location to a configured authenticated channel and must return
// ErrChannelNotConfigured when none exists.
type DistributionClient interface {
	// FetchSince requests every document after lastNSU. Non-numeric or empty
	// input is coerced to the start-of-stream cursor.
	FetchSince(ctx context.Context, locationID uuid.UUID, lastNSU string) (*BatchResult, error)

	// FetchByNSU requests the single document at nsu. Invalid input is
	// rejected with ErrInvalidNSU before any I/O.
	FetchByNSU(ctx context.Context, locationID uuid.UUID, nsu string) (*BatchResult, error)

	// FetchByAccessKey requests the document identified by a 44-digit access
	// key. Invalid keys are rejected with ErrInvalidAccessKey before any I/O.
	FetchByAccessKey(ctx context.Context, locationID uuid.UUID, accessKey string) (*BatchResult, error)
}
