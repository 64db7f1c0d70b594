package store

import "github.com/dbengine/dbmonitor/internal/engine"

// Element is a read-only view of one raw element, exposed for offline
// inspection tooling (cmd/montool) that needs to see every contributor
// currently in the region - including ones a live Store.Read would
// garbage collect - rather than the GC'd, self-first view Read returns.
type Element struct {
	Offset    int
	ProcessID engine.ProcessID
	LocalID   engine.LocalID
	Payload   []byte
}

// ListElements walks region's used bytes and returns every element found,
// in store order, without garbage collecting dead peers or requiring a
// caller's own contribution to be present. The caller is responsible for
// holding region's mutex for the duration if it needs a consistent view
// against concurrent writers.
func ListElements(region engine.MappedRegion) ([]Element, error) {
	data := region.Bytes()
	used := int(engine.HeaderUsed(data))
	elements, err := parseElements(data, engine.HeaderSize, used)
	if err != nil {
		return nil, err
	}
	out := make([]Element, len(elements))
	for i, e := range elements {
		payload := make([]byte, e.length)
		copy(payload, e.payload(data))
		out[i] = Element{Offset: e.offset, ProcessID: e.processID, LocalID: e.localID, Payload: payload}
	}
	return out, nil
}
