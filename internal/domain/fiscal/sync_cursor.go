package fiscal

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/fiscalflow/backend/internal/domain/shared"
)

// NSULength is the width of a zero-padded sequence number as the
// distribution service expects it on the wire.
const NSULength = 15

// StartOfStreamNSU is the cursor value for a location that has never synced.
const StartOfStreamNSU = "000000000000000"

// NormalizeNSU coerces raw into a 15-digit zero-padded sequence number.
// Empty or non-numeric input yields the start-of-stream cursor.
func NormalizeNSU(raw string) string {
	if raw == "" {
		return StartOfStreamNSU
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return StartOfStreamNSU
	}
	return fmt.Sprintf("%0*d", NSULength, n)
}

// ParseNSU validates raw as a numeric sequence number and returns its
// zero-padded form. Unlike NormalizeNSU it rejects invalid input, which is
// the behavior point lookups need.
func ParseNSU(raw string) (string, error) {
	if raw == "" {
		return "", ErrInvalidNSU
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return "", ErrInvalidNSU
	}
	return fmt.Sprintf("%0*d", NSULength, n), nil
}

// CompareNSU compares two zero-padded sequence numbers numerically.
func CompareNSU(a, b string) int {
	na, _ := strconv.ParseUint(a, 10, 64)
	nb, _ := strconv.ParseUint(b, 10, 64)
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	default:
		return 0
	}
}

// SyncCursor tracks the last consumed sequence number for one location.
// LastNSU is monotonically non-decreasing and only moves after every record
// of the corresponding batch reached a terminal persistence outcome.
type SyncCursor struct {
	shared.BaseEntity
	LocationID uuid.UUID
	LastNSU    string
	MaxNSU     string
}

// NewSyncCursor creates a cursor at the start of the stream for a location.
func NewSyncCursor(locationID uuid.UUID) (*SyncCursor, error) {
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Location ID cannot be empty")
	}
	return &SyncCursor{
		BaseEntity: shared.NewBaseEntity(),
		LocationID: locationID,
		LastNSU:    StartOfStreamNSU,
		MaxNSU:     StartOfStreamNSU,
	}, nil
}

// Advance moves the cursor to the service-reported position. A position at
// or behind the current one is ignored so replays can never rewind the
// cursor.
func (c *SyncCursor) Advance(ultNSU, maxNSU string) error {
	ult, err := ParseNSU(ultNSU)
	if err != nil {
		return err
	}
	if CompareNSU(ult, c.LastNSU) < 0 {
		return shared.NewDomainError("CURSOR_REGRESSION", "Cursor cannot move backwards")
	}
	c.LastNSU = ult
	if max, err := ParseNSU(maxNSU); err == nil && CompareNSU(max, c.MaxNSU) > 0 {
		c.MaxNSU = max
	}
	c.UpdatedAt = time.Now()
	return nil
}

// HasPending reports whether the service holds documents beyond the cursor.
func (c *SyncCursor) HasPending() bool {
	return CompareNSU(c.LastNSU, c.MaxNSU) < 0
}
