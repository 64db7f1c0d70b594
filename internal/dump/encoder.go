package dump

import (
	"encoding/binary"
)

// Encoder appends DumpRecords to an internal buffer, reusing it across
// records the way server/wal/encoder.go reuses its buf/uint64buf fields
// instead of allocating per record.
type Encoder struct {
	buf       []byte
	fieldHead [5]byte // fieldID(2) + typeTag(1) + length(2)
}

// NewEncoder returns an Encoder with an empty buffer.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 4096)}
}

// Bytes returns the encoded stream so far. The slice is owned by the
// Encoder; copy it before calling Reset or further writes if it must
// outlive them.
func (e *Encoder) Bytes() []byte { return e.buf }

// Reset empties the buffer for reuse without releasing its capacity.
func (e *Encoder) Reset() { e.buf = e.buf[:0] }

// BeginRecord appends a record header for relation id rel. Fields written
// with WriteField/WriteInteger/... until EndRecord belong to this record.
func (e *Encoder) BeginRecord(rel uint32) {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], rel)
	e.buf = append(e.buf, hdr[:]...)
}

// EndRecord appends the end-of-record sentinel.
func (e *Encoder) EndRecord() {
	var end [2]byte
	binary.BigEndian.PutUint16(end[:], endOfRecord)
	e.buf = append(e.buf, end[:]...)
}

// WriteField appends one {field_id, type_tag, length, payload} block.
func (e *Encoder) WriteField(fieldID uint16, tag TypeTag, payload []byte) {
	binary.BigEndian.PutUint16(e.fieldHead[0:2], fieldID)
	e.fieldHead[2] = byte(tag)
	binary.BigEndian.PutUint16(e.fieldHead[3:5], uint16(len(payload)))
	e.buf = append(e.buf, e.fieldHead[:]...)
	e.buf = append(e.buf, payload...)
}

// WriteInteger writes a TypeInteger field.
func (e *Encoder) WriteInteger(fieldID uint16, v int64) {
	var p [8]byte
	binary.BigEndian.PutUint64(p[:], uint64(v))
	e.WriteField(fieldID, TypeInteger, p[:])
}

// WriteTimestamp writes a TypeTimestamp field. The engine's 8-byte
// timestamp layout is carried opaque; callers supply it pre-encoded.
func (e *Encoder) WriteTimestamp(fieldID uint16, raw [8]byte) {
	e.WriteField(fieldID, TypeTimestamp, raw[:])
}

// WriteString writes a TypeString field. s must already be UTF-8;
// transliteration from the attachment's charset happens before the
// Collector calls this (spec §4.5).
func (e *Encoder) WriteString(fieldID uint16, s string) {
	e.WriteField(fieldID, TypeString, []byte(s))
}

// WriteGlobalID writes a TypeGlobalID field.
func (e *Encoder) WriteGlobalID(fieldID uint16, v int64) {
	var p [8]byte
	binary.BigEndian.PutUint64(p[:], uint64(v))
	e.WriteField(fieldID, TypeGlobalID, p[:])
}
