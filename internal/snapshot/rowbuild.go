package snapshot

import (
	"encoding/binary"
	"fmt"

	"github.com/dbengine/dbmonitor/internal/dump"
	"github.com/dbengine/dbmonitor/internal/engine"
)

// rowBuilder assembles one relation's native row bytes from decoded
// DumpFields, placing each at the offset/length its Format names.
type rowBuilder struct {
	format engine.Format
	buf    []byte
}

func newRowBuilder(f engine.Format) *rowBuilder {
	return &rowBuilder{format: f, buf: make([]byte, f.RowSize)}
}

func (b *rowBuilder) reset() {
	for i := range b.buf {
		b.buf[i] = 0
	}
}

// row returns a copy of the built row, safe for the sink to retain.
func (b *rowBuilder) row() []byte {
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out
}

// set materializes one field into the row buffer per spec §4.6's type
// conversion rules. An unrecognized field id is ignored, not an error:
// the encoder and this decoder share internal/engine/fields.go, but a
// forward-compatible decoder must not choke on a field id it doesn't
// know about.
func (b *rowBuilder) set(ids *globalIDTable, field dump.DumpField, srcCharset engine.Charset) error {
	fl, ok := b.format.FieldByID(field.FieldID)
	if !ok {
		return nil
	}
	if fl.Offset+fl.Length > len(b.buf) {
		return fmt.Errorf("snapshot: field %d does not fit its relation's row size", field.FieldID)
	}
	slot := b.buf[fl.Offset : fl.Offset+fl.Length]

	switch field.Type {
	case dump.TypeInteger:
		v, err := field.Int64()
		if err != nil {
			return err
		}
		putIntTrunc(slot, v)
	case dump.TypeTimestamp:
		copy(slot, field.Payload)
	case dump.TypeGlobalID:
		v, err := field.Int64()
		if err != nil {
			return err
		}
		putIntTrunc(slot, int64(ids.localID(v)))
	case dump.TypeString:
		s := field.Text()
		if srcCharset == engine.CharsetNone && fl.Charset == engine.CharsetMetadata {
			s = coerceNoneToMetadata(s)
		}
		n := copy(slot, s)
		for i := n; i < len(slot); i++ {
			slot[i] = 0
		}
	default:
		return fmt.Errorf("snapshot: unsupported field type %s", field.Type)
	}
	return nil
}

// putIntTrunc big-endian encodes v into a slot sized 1, 2, 4, or 8 bytes,
// truncating high bytes the way the engine's native integer columns are
// sized per field rather than fixed at 8.
func putIntTrunc(slot []byte, v int64) {
	switch len(slot) {
	case 1:
		slot[0] = byte(v)
	case 2:
		binary.BigEndian.PutUint16(slot, uint16(v))
	case 4:
		binary.BigEndian.PutUint32(slot, uint32(v))
	case 8:
		binary.BigEndian.PutUint64(slot, uint64(v))
	}
}

// coerceNoneToMetadata substitutes every non-ASCII byte of s with '?',
// per spec §4.6 and §8 scenario 5: a NONE-charset attachment's bytes
// transferred into a metadata-charset slot are not transliterated, only
// sanitized byte-by-byte.
func coerceNoneToMetadata(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c > 0x7f {
			c = '?'
		}
		out[i] = c
	}
	return string(out)
}
