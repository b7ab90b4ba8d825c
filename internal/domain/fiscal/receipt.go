package fiscal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt is the read model of a human-captured expense record produced by
// the external capture pipeline. The sync engine never creates or deletes
// receipts; it only consumes the extracted access key and flips link state
// on fiscal notes.
type Receipt struct {
	ID                 uuid.UUID
	LocationID         uuid.UUID
	ExtractedAccessKey string
	Establishment      string
	Amount             *decimal.Decimal
	PurchaseDate       *time.Time
	CreatedAt          time.Time
}

// HasAccessKey reports whether the capture pipeline extracted a usable
// 44-digit key from the receipt image.
func (r *Receipt) HasAccessKey() bool {
	return IsValidAccessKey(r.ExtractedAccessKey)
}

// AccessKey returns the normalized extracted key, empty when absent.
func (r *Receipt) AccessKey() string {
	key, ok := NormalizeAccessKey(r.ExtractedAccessKey)
	if !ok {
		return ""
	}
	return key
}
