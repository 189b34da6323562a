package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

var errMalformedCursor = errors.New("malformed cursor")

// Params are the raw list inputs a controller collected. Cursor is opaque to
// clients.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor marks the last row of the previous page. Lists are ordered by
// sequence number descending, which is unique per aggregate kind.
type Cursor struct {
	SequenceNumber int64
	ID             uuid.UUID
}

// Encode renders the cursor as URL-safe base64 of "<seq>|<id>".
func (c Cursor) Encode() string {
	raw := strconv.FormatInt(c.SequenceNumber, 10) + "|" + c.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// EncodeCursor is Cursor.Encode for call sites that build the cursor inline.
func EncodeCursor(c Cursor) string { return c.Encode() }

// ParseCursor decodes an Encode result. A blank value means the first page and
// yields nil.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedCursor, err)
	}
	seqPart, idPart, ok := strings.Cut(string(raw), "|")
	if !ok {
		return nil, errMalformedCursor
	}
	seq, err := strconv.ParseInt(seqPart, 10, 64)
	if err != nil || seq <= 0 {
		return nil, fmt.Errorf("%w: sequence %q", errMalformedCursor, seqPart)
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return nil, fmt.Errorf("%w: id %q", errMalformedCursor, idPart)
	}
	return &Cursor{SequenceNumber: seq, ID: id}, nil
}

// NormalizeLimit clamps limit into (0, MaxLimit], using DefaultLimit for
// non-positive values.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Keyset orders by sequence_number descending, starts after the cursor and
// fetches one extra row so Page can tell whether more remain.
func Keyset(after *Cursor, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if after != nil {
			db = db.Where("sequence_number < ?", after.SequenceNumber)
		}
		return db.Order("sequence_number DESC").Limit(limit + 1)
	}
}

// Page trims a Keyset result to limit rows and returns the cursor for the next
// page, or "" when rows was the last page.
func Page[T any](rows []T, limit int, cursorOf func(T) Cursor) ([]T, string) {
	if len(rows) <= limit {
		return rows, ""
	}
	rows = rows[:limit]
	return rows, cursorOf(rows[limit-1]).Encode()
}
