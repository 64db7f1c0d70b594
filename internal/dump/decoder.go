package dump

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is returned when the buffer ends mid-record or mid-field.
// Unlike end-of-buffer padding (silently consumed), a truncated record
// means the stream was cut by something other than the store's alignment
// and must fail loudly (spec §4.3).
var ErrTruncated = errors.New("dump: truncated record")

// Decoder is a lazy, allocation-light iterator over a DumpCodec byte
// stream, structured like server/wal/decoder.go's decodeRecord loop:
// NextRecord/NextField each consume exactly one unit and report false at
// a clean end, reserving error returns for genuine corruption.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder wraps buf for decoding. buf is not copied; the caller must
// not mutate it while the Decoder is in use.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// NextRecord advances past the next record header and reports its
// relation id. It returns ok=false, err=nil at a clean end of stream,
// tolerating the zero-byte padding the store's alignment appends after
// the last record of a payload (spec §4.3). A short buffer that is not
// all zero is a truncated record and returns err.
func (d *Decoder) NextRecord() (relationID uint32, ok bool, err error) {
	if d.pos >= len(d.buf) {
		return 0, false, nil
	}
	if d.remainingIsPadding() {
		d.pos = len(d.buf)
		return 0, false, nil
	}
	if len(d.buf)-d.pos < 4 {
		return 0, false, fmt.Errorf("%w: record header needs 4 bytes, %d remain", ErrTruncated, len(d.buf)-d.pos)
	}
	relationID = binary.BigEndian.Uint32(d.buf[d.pos:])
	d.pos += 4
	return relationID, true, nil
}

// NextField advances past the next field block of the record currently
// being read, or past the end-of-record sentinel, in which case it
// returns ok=false, err=nil and the caller should return to NextRecord.
func (d *Decoder) NextField() (field DumpField, ok bool, err error) {
	if len(d.buf)-d.pos < 2 {
		return DumpField{}, false, fmt.Errorf("%w: field id needs 2 bytes, %d remain", ErrTruncated, len(d.buf)-d.pos)
	}
	fieldID := binary.BigEndian.Uint16(d.buf[d.pos:])
	if fieldID == endOfRecord {
		d.pos += 2
		return DumpField{}, false, nil
	}
	if len(d.buf)-d.pos < 5 {
		return DumpField{}, false, fmt.Errorf("%w: field header needs 5 bytes, %d remain", ErrTruncated, len(d.buf)-d.pos)
	}
	tag := TypeTag(d.buf[d.pos+2])
	length := binary.BigEndian.Uint16(d.buf[d.pos+3:])
	start := d.pos + 5
	end := start + int(length)
	if end > len(d.buf) {
		return DumpField{}, false, fmt.Errorf("%w: field payload needs %d bytes, %d remain", ErrTruncated, length, len(d.buf)-start)
	}
	d.pos = end
	return DumpField{FieldID: fieldID, Type: tag, Payload: d.buf[start:end]}, true, nil
}

// SkipRecord consumes any fields remaining in the current record without
// interpreting them, advancing past its end-of-record sentinel.
func (d *Decoder) SkipRecord() error {
	for {
		_, ok, err := d.NextField()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

func (d *Decoder) remainingIsPadding() bool {
	for _, b := range d.buf[d.pos:] {
		if b != 0 {
			return false
		}
	}
	return true
}
