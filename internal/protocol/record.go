package protocol

import (
	"errors"
	"strings"
)

const (
	// Sep separates the type tag and fields inside a record.
	Sep = "|"
	// Delim terminates one record on the wire.
	Delim = '\n'
	// MaxRecordSize bounds a single wire record including the delimiter.
	// Longer lines are a transport violation and close the connection.
	MaxRecordSize = 8192
)

// ErrEmptyType is returned by Parse for records without a type tag.
var ErrEmptyType = errors.New("record has empty type")

// Record is one decoded protocol message: a type tag plus raw string fields.
// The codec is stateless and total: unknown types pass through unchanged and
// the dispatcher decides what they mean.
type Record struct {
	Type   string
	Fields []string
}

// New builds a record from a type tag and its fields.
func New(typ string, fields ...string) Record {
	return Record{Type: typ, Fields: fields}
}

// Parse decodes a single record from a wire line (without the delimiter).
// Fields are split on Sep with no escaping, so Sep can never occur inside a
// field. A record with an empty type tag is rejected.
func Parse(line string) (Record, error) {
	parts := strings.Split(line, Sep)
	if parts[0] == "" {
		return Record{}, ErrEmptyType
	}
	if len(parts) == 1 {
		return Record{Type: parts[0]}, nil
	}
	return Record{Type: parts[0], Fields: parts[1:]}, nil
}

// String formats the record in wire form without the trailing delimiter.
func (r Record) String() string {
	if len(r.Fields) == 0 {
		return r.Type
	}
	return r.Type + Sep + strings.Join(r.Fields, Sep)
}

// AppendWire appends the framed wire form (record plus Delim) to dst and
// returns the extended slice. Framing lives here so every writer agrees on
// the delimiter.
func (r Record) AppendWire(dst []byte) []byte {
	dst = append(dst, r.Type...)
	for _, f := range r.Fields {
		dst = append(dst, Sep...)
		dst = append(dst, f...)
	}
	return append(dst, Delim)
}

// Field returns field i, or the empty string when the record is too short.
// Missing and empty fields are indistinguishable on this protocol.
func (r Record) Field(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// Tail re-joins fields from i onward with Sep. Free-text payloads (chat)
// arrive unescaped, so a message containing Sep is split by Parse and has to
// be stitched back together.
func (r Record) Tail(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return strings.Join(r.Fields[i:], Sep)
}
