package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

var ErrMalformedDocument = errors.New("malformed document")

// Document is the synchronized snapshot. Only updatedAt and payload.history
// are ever inspected; every other field is carried through untouched.
type Document struct {
	raw    json.RawMessage
	fields map[string]json.RawMessage
}

func ParseDocument(data []byte) (*Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedDocument)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty object", ErrMalformedDocument)
	}

	if ts, ok := fields["updatedAt"]; ok && !isNumberOrNull(ts) {
		return nil, fmt.Errorf("%w: updatedAt must be a number", ErrMalformedDocument)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	return &Document{
		raw:    compact.Bytes(),
		fields: fields,
	}, nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDocument(data)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	if d.raw == nil {
		return []byte("null"), nil
	}
	return d.raw, nil
}

// Raw returns the compacted JSON encoding of the document.
func (d *Document) Raw() []byte {
	return d.raw
}

func (d *Document) Field(name string) (json.RawMessage, bool) {
	v, ok := d.fields[name]
	return v, ok
}

// timestampPrec is wide enough to order any two distinct JSON timestamps a
// client would plausibly send without rounding them together.
const timestampPrec = 512

// UpdatedAt returns the logical timestamp for logs and notifications, 0
// when absent or null. Fractions are truncated and values outside the
// int64 range saturate. Use CompareUpdatedAt to order documents.
func (d *Document) UpdatedAt() int64 {
	n, _ := d.updatedAt().Int64()
	return n
}

// CompareUpdatedAt orders a and b by their exact updatedAt values and
// returns -1, 0 or +1. Absent and null timestamps count as 0.
func CompareUpdatedAt(a, b *Document) int {
	return a.updatedAt().Cmp(b.updatedAt())
}

func (d *Document) updatedAt() *big.Float {
	zero := new(big.Float).SetPrec(timestampPrec)
	if d == nil {
		return zero
	}

	raw, ok := d.fields["updatedAt"]
	if !ok {
		return zero
	}

	s := string(bytes.TrimSpace(raw))
	if s == "null" {
		return zero
	}

	f, ok := new(big.Float).SetPrec(timestampPrec).SetString(s)
	if !ok {
		return zero
	}
	return f
}

// Digest identifies the document content independently of formatting.
func (d *Document) Digest() string {
	if d == nil {
		return ""
	}
	sum := sha256.Sum256(d.raw)
	return hex.EncodeToString(sum[:])
}

func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	return bytes.Equal(d.raw, other.raw)
}

func isNumberOrNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	if string(raw) == "null" {
		return true
	}
	c := raw[0]
	return c == '-' || (c >= '0' && c <= '9')
}
