// Package dump implements the self-describing binary record/field
// encoder and decoder used to carry heterogeneous monitoring rows through
// shared memory (spec §4.3). There is no external schema: a record is a
// relation id followed by field blocks, terminated by a reserved field-id
// sentinel, and records concatenate with no separator between them.
package dump

import (
	"encoding/binary"
	"errors"
)

// TypeTag identifies the wire encoding of one field's payload.
type TypeTag byte

const (
	// TypeInteger payloads are an 8-byte signed integer.
	TypeInteger TypeTag = iota + 1
	// TypeTimestamp payloads are the engine's 8-byte timestamp layout,
	// carried opaque by this package.
	TypeTimestamp
	// TypeString payloads are UTF-8 bytes with no NUL terminator.
	TypeString
	// TypeGlobalID payloads are an 8-byte signed (pid<<32)|counter composite.
	TypeGlobalID
)

func (t TypeTag) String() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeTimestamp:
		return "TIMESTAMP"
	case TypeString:
		return "STRING"
	case TypeGlobalID:
		return "GLOBAL_ID"
	default:
		return "UNKNOWN"
	}
}

// endOfRecord is a field-id value no real field ever uses; it marks the
// end of a record's field sequence.
const endOfRecord uint16 = 0xFFFF

// DumpField is one decoded {field_id, type_tag, length, payload} block.
type DumpField struct {
	FieldID uint16
	Type    TypeTag
	Payload []byte
}

// Int64 interprets the payload as TypeInteger/TypeGlobalID's 8-byte
// signed encoding.
func (f DumpField) Int64() (int64, error) {
	if len(f.Payload) != 8 {
		return 0, errors.New("dump: integer field payload is not 8 bytes")
	}
	return int64(binary.BigEndian.Uint64(f.Payload)), nil
}

// Text interprets the payload as TypeString's UTF-8 bytes.
func (f DumpField) Text() string {
	return string(f.Payload)
}

// DumpRecord is one decoded logical row: a relation id plus the fields
// read so far via Decoder.NextField.
type DumpRecord struct {
	RelationID uint32
}
