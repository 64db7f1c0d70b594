package store

import (
	"encoding/binary"
	"fmt"

	"github.com/dbengine/dbmonitor/internal/engine"
)

// elementHeaderSize is process_id(4) + local_id(4) + length(4).
const elementHeaderSize = 12

// element describes one contributor's payload as it sits in the region:
// byte offset of its header, the owning process/local id, and the exact
// (unaligned) payload length. This is the parsed view of raw region
// bytes, the same role server/raft's MemoryStorage plays over a slice of
// log entries: an offset-addressable index used by Compact-like GC and
// Append-like growth. It holds no lock of its own; callers parse under
// Store.Acquire.
type element struct {
	offset    int
	processID engine.ProcessID
	localID   engine.LocalID
	length    int
}

// end returns the offset one past this element's trailing alignment pad,
// i.e. where the next element (if any) begins.
func (e element) end() int {
	return e.offset + alignUp(elementHeaderSize+e.length)
}

func (e element) payload(region []byte) []byte {
	start := e.offset + elementHeaderSize
	return region[start : start+e.length]
}

// parseElements walks region[from:used] and returns every element header
// it finds. A corrupt or truncated element (length running past used) is
// reported as an error; callers treat this as region corruption, not an
// empty store.
func parseElements(regionBytes []byte, from, used int) ([]element, error) {
	var elements []element
	pos := from
	for pos < used {
		if pos+elementHeaderSize > used {
			return nil, fmt.Errorf("store: element header at %d runs past used=%d", pos, used)
		}
		e := element{
			offset:    pos,
			processID: engine.ProcessID(int32(binary.BigEndian.Uint32(regionBytes[pos:]))),
			localID:   engine.LocalID(int32(binary.BigEndian.Uint32(regionBytes[pos+4:]))),
			length:    int(binary.BigEndian.Uint32(regionBytes[pos+8:])),
		}
		if e.end() > used {
			return nil, fmt.Errorf("store: element at %d (length %d) runs past used=%d", pos, e.length, used)
		}
		elements = append(elements, e)
		pos = e.end()
	}
	return elements, nil
}

func writeElementHeader(regionBytes []byte, offset int, pid engine.ProcessID, lid engine.LocalID, length int) {
	binary.BigEndian.PutUint32(regionBytes[offset:], uint32(int32(pid)))
	binary.BigEndian.PutUint32(regionBytes[offset+4:], uint32(int32(lid)))
	binary.BigEndian.PutUint32(regionBytes[offset+8:], uint32(length))
}
