package store

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/dbengine/dbmonitor/internal/engine"
)

type fakeRegion struct {
	mu   sync.Mutex
	data []byte
}

func newFakeRegion(size int) *fakeRegion {
	data := make([]byte, size)
	binary.BigEndian.PutUint32(data[engine.HeaderUsedOffset:], engine.HeaderSize)
	binary.BigEndian.PutUint32(data[engine.HeaderAllocatedOffset:], uint32(size))
	return &fakeRegion{data: data}
}

func (f *fakeRegion) Bytes() []byte { return f.data }

func (f *fakeRegion) Remap(newSize int, _ bool) error {
	if newSize <= len(f.data) {
		return nil
	}
	nd := make([]byte, newSize)
	copy(nd, f.data)
	f.data = nd
	binary.BigEndian.PutUint32(f.data[engine.HeaderAllocatedOffset:], uint32(newSize))
	return nil
}

func (f *fakeRegion) Unmap() error  { return nil }
func (f *fakeRegion) Remove() error { return nil }

func (f *fakeRegion) Lock(ctx context.Context) (func(), error) {
	f.mu.Lock()
	return func() { f.mu.Unlock() }, nil
}

type fakeLiveness struct {
	dead map[engine.ProcessID]bool
}

func newFakeLiveness() *fakeLiveness {
	return &fakeLiveness{dead: make(map[engine.ProcessID]bool)}
}

func (f *fakeLiveness) kill(pid engine.ProcessID) { f.dead[pid] = true }

func (f *fakeLiveness) IsProcessAlive(pid engine.ProcessID) bool {
	return !f.dead[pid]
}
