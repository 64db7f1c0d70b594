// Package store implements MonitoringStore: the append-only, garbage
// collected log of per-process contributions that lives after the region
// header (spec §4.2). It never touches the filesystem or mmap directly,
// only the narrow engine.MappedRegion/engine.LivenessOracle ports, the way
// raft.MemoryStorage is a mutex-guarded slice abstraction over entries
// someone else persists.
package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/dbengine/dbmonitor/internal/engine"
)

// Store is the append-only element log over one database's SharedRegion.
// Not safe for concurrent use by multiple goroutines without external
// synchronization beyond Acquire/Release: Acquire itself serializes
// callers within this process (flock is per-process, not per-goroutine)
// before taking the region's cross-process mutex.
type Store struct {
	lg       *zap.Logger
	region   engine.MappedRegion
	liveness engine.LivenessOracle
	quantum  int

	mu     sync.Mutex
	unlock func()
	locked bool

	selfPID engine.ProcessID
}

// New returns a Store over region, owned by process pid, garbage
// collecting dead peers via liveness.
func New(cfg Config, region engine.MappedRegion, liveness engine.LivenessOracle, pid engine.ProcessID) *Store {
	return &Store{
		lg:       cfg.logger(),
		region:   region,
		liveness: liveness,
		quantum:  cfg.growthQuantum(),
		selfPID:  pid,
	}
}

// SelfPID returns the process id this Store publishes its own
// contributions under, the id Cleanup must be called with to remove them.
func (s *Store) SelfPID() engine.ProcessID { return s.selfPID }

// Acquire locks the region's mutex for the duration of the caller's
// Setup/Write/Cleanup/Read calls, re-mapping first if a peer has grown
// the region since our last mapping (spec §4.2 acquire()). Like any
// mutex, calling Acquire again from the same goroutine before Release
// deadlocks; it is not reentrant.
func (s *Store) Acquire(ctx context.Context) error {
	s.mu.Lock()
	unlock, err := s.region.Lock(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.unlock = unlock
	s.locked = true

	if allocated := int(engine.HeaderAllocated(s.region.Bytes())); allocated > len(s.region.Bytes()) {
		if err := s.region.Remap(allocated, true); err != nil {
			s.unlock()
			s.locked = false
			s.mu.Unlock()
			return fmt.Errorf("store: remap to observed allocated=%d: %w", allocated, err)
		}
	}
	return nil
}

// Release unlocks the region's mutex. Every successful Acquire must be
// matched by exactly one Release (spec §4.2 release()). Calling Release
// without a successful preceding Acquire is a no-op, since Acquire itself
// releases s.mu on any error path before returning.
func (s *Store) Release() error {
	if !s.locked {
		return nil
	}
	s.unlock()
	s.unlock = nil
	s.locked = false
	s.mu.Unlock()
	return nil
}

// ensureSpace grows the region, in whole quantum steps, until at least n
// bytes beyond the current used offset are free (spec §4.2 ensureSpace).
func (s *Store) ensureSpace(n int) error {
	data := s.region.Bytes()
	used := int(engine.HeaderUsed(data))
	allocated := int(engine.HeaderAllocated(data))
	if allocated-used >= n {
		return nil
	}
	target := allocated
	for target-used < n {
		target += s.quantum
	}
	if err := s.region.Remap(target, true); err != nil {
		return fmt.Errorf("%w: %v", ErrRegionExhausted, err)
	}
	s.lg.Info("grew monitoring region",
		zap.String("from", humanize.IBytes(uint64(allocated))),
		zap.String("to", humanize.IBytes(uint64(target))))
	return nil
}

// Setup appends an empty element tagged (pid, localID) and returns its
// offset (spec §4.2 setup()). Must be called under Acquire. The caller
// must be this Store's own process id; Setup is how a process publishes
// the header for a contribution it is about to Write.
func (s *Store) Setup(localID engine.LocalID) (int, error) {
	if !s.locked {
		return 0, fmt.Errorf("store: Setup called without Acquire")
	}
	if err := s.ensureSpace(alignUp(elementHeaderSize)); err != nil {
		return 0, err
	}
	data := s.region.Bytes()
	used := int(engine.HeaderUsed(data))
	offset := used
	writeElementHeader(data, offset, s.selfPID, localID, 0)
	aligned := alignUp(elementHeaderSize)
	for i := elementHeaderSize; i < aligned; i++ {
		data[offset+i] = 0
	}
	engine.SetHeaderUsed(data, uint32(used+aligned))
	return offset, nil
}

// Write appends payload to the element at offset, growing used by exactly
// the change in aligned element size (spec §4.2 write()). offset must
// name the element most recently returned by Setup within this Acquire
// window: Write only ever extends the last element in the log, since
// Setup always appends at the current tail.
func (s *Store) Write(offset int, payload []byte) error {
	if !s.locked {
		return fmt.Errorf("store: Write called without Acquire")
	}
	if len(payload) == 0 {
		return nil
	}
	data := s.region.Bytes()
	used := int(engine.HeaderUsed(data))

	oldLen := int(readElementLength(data, offset))
	newLen := oldLen + len(payload)
	oldAligned := alignUp(elementHeaderSize + oldLen)
	newAligned := alignUp(elementHeaderSize + newLen)
	delta := newAligned - oldAligned

	if offset+oldAligned != used {
		return fmt.Errorf("store: write to offset %d is not the tail element (used=%d)", offset, used)
	}
	if delta > 0 {
		if err := s.ensureSpace(delta); err != nil {
			return err
		}
		data = s.region.Bytes()
	}

	copy(data[offset+elementHeaderSize+oldLen:offset+elementHeaderSize+newLen], payload)
	for i := offset + elementHeaderSize + newLen; i < offset+newAligned; i++ {
		data[i] = 0
	}
	writeElementLength(data, offset, uint32(newLen))
	engine.SetHeaderUsed(data, uint32(used+delta))
	return nil
}

// Cleanup removes every element belonging to pid, closing the gap with a
// copy and decrementing used by each removed element's aligned size (spec
// §4.2 cleanup()). Used both for this process's own teardown and for
// reclaiming a peer observed dead.
func (s *Store) Cleanup(pid engine.ProcessID) error {
	if !s.locked {
		return fmt.Errorf("store: Cleanup called without Acquire")
	}
	data := s.region.Bytes()
	used := int(engine.HeaderUsed(data))
	elements, err := parseElements(data, engine.HeaderSize, used)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	for i := len(elements) - 1; i >= 0; i-- {
		e := elements[i]
		if e.processID != pid {
			continue
		}
		size := e.end() - e.offset
		copy(data[e.offset:used-size], data[e.end():used])
		used -= size
		engine.SetHeaderUsed(data, uint32(used))
	}
	return nil
}

// Read performs the two-pass compaction-with-liveness read (spec §4.2
// read()): Pass 1 removes elements whose process is no longer alive and
// locates this process's own element; Pass 2 copies the own payload
// first, then every other surviving payload in store order.
func (s *Store) Read() ([]byte, error) {
	if !s.locked {
		return nil, fmt.Errorf("store: Read called without Acquire")
	}
	data := s.region.Bytes()
	used := int(engine.HeaderUsed(data))

	elements, err := parseElements(data, engine.HeaderSize, used)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	// Pass 1: reclaim dead peers in place, highest offset first so earlier
	// offsets are never invalidated by a later removal.
	var outSize int
	selfOffset := -1
	for i := len(elements) - 1; i >= 0; i-- {
		e := elements[i]
		if !s.liveness.IsProcessAlive(e.processID) {
			size := e.end() - e.offset
			copy(data[e.offset:used-size], data[e.end():used])
			used -= size
			engine.SetHeaderUsed(data, uint32(used))
			s.lg.Info("reclaimed dead peer contribution",
				zap.Int32("pid", int32(e.processID)), zap.Int("bytes", size))
			continue
		}
		if e.processID == s.selfPID {
			selfOffset = e.offset
		}
		outSize += e.length
	}

	if selfOffset < 0 {
		return nil, ErrSelfElementMissing
	}

	// Re-parse: Pass 1 may have shifted everything after each removed
	// element, including selfOffset's own position.
	elements, err = parseElements(data, engine.HeaderSize, int(engine.HeaderUsed(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	out := make([]byte, 0, outSize)
	var selfElem *element
	for i := range elements {
		if elements[i].processID == s.selfPID {
			selfElem = &elements[i]
			break
		}
	}
	if selfElem == nil {
		return nil, ErrSelfElementMissing
	}
	out = append(out, selfElem.payload(data)...)
	for _, e := range elements {
		if e.processID == s.selfPID {
			continue
		}
		out = append(out, e.payload(data)...)
	}
	return out, nil
}

func readElementLength(data []byte, offset int) uint32 {
	return binary.BigEndian.Uint32(data[offset+8:])
}

func writeElementLength(data []byte, offset int, v uint32) {
	binary.BigEndian.PutUint32(data[offset+8:], v)
}
