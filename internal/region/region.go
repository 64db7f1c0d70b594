// Package region implements SharedRegion: a memory-mapped file, shared by
// every process attached to one database, that grows on demand and
// exposes a mutually exclusive lock guarding its embedded header (spec
// §4.1). It is the substrate MonitoringStore writes its element log into.
package region

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/dbengine/dbmonitor/internal/engine"
)

// Region is one mapped, growable file shared across processes. The zero
// value is not usable; construct with Map.
//
// *Region implements engine.MappedRegion.
var _ engine.MappedRegion = (*Region)(nil)

// *Mapper implements engine.MemoryMapper.
var _ engine.MemoryMapper = (*Mapper)(nil)

type Region struct {
	lg   *zap.Logger
	path string
	file *os.File
	data []byte
}

// Map opens (creating if absent) the region file for database name within
// cfg.Dir, mmaps it, and returns the Region. A freshly created file is
// stamped with the current header; an existing one is validated and
// ErrMapFailure if its layout_version doesn't match this build's.
func Map(cfg Config, name string) (*Region, error) {
	r, _, err := mapWithFreshness(cfg, name)
	return r, err
}

func mapWithFreshness(cfg Config, name string) (*Region, bool, error) {
	lg := cfg.logger()
	path := fmt.Sprintf("%s/monitor-%s.region", cfg.Dir, name)

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("%w: open %s: %v", ErrMapFailure, path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, false, fmt.Errorf("%w: stat %s: %v", ErrMapFailure, path, err)
	}

	fresh := info.Size() == 0
	size := int(info.Size())
	if fresh {
		size = cfg.InitialSize
		if size < headerSize {
			size = DefaultSize
		}
		if err := ftruncate(int(file.Fd()), int64(size)); err != nil {
			file.Close()
			return nil, false, fmt.Errorf("%w: truncate %s: %v", ErrMapFailure, path, err)
		}
	}

	data, err := mmap(int(file.Fd()), size)
	if err != nil {
		file.Close()
		return nil, false, fmt.Errorf("%w: mmap %s: %v", ErrMapFailure, path, err)
	}

	r := &Region{lg: lg, path: path, file: file, data: data}

	if fresh {
		writeUint32(r.data, offRegionType, RegionTypeDatabaseSnapshot)
		writeUint32(r.data, offLayoutVersion, MonitorVersion)
		writeUint32(r.data, offUsed, headerSize)
		writeUint32(r.data, offAllocated, uint32(size))
		writeUint32(r.data, offLockGeneration, 0)
		return r, true, nil
	}

	if got := readUint32(r.data, offLayoutVersion); got != MonitorVersion {
		r.Unmap()
		return nil, false, fmt.Errorf("%w: %s has layout_version %d, this build requires %d", ErrMapFailure, path, got, MonitorVersion)
	}
	if got := readUint32(r.data, offRegionType); got != RegionTypeDatabaseSnapshot {
		r.Unmap()
		return nil, false, fmt.Errorf("%w: %s has region_type %#x, expected %#x", ErrMapFailure, path, got, RegionTypeDatabaseSnapshot)
	}
	return r, false, nil
}

// Bytes returns the current mapping. Valid until the next Remap or Unmap.
func (r *Region) Bytes() []byte { return r.data }

// Used returns the header's used field: the high-water offset of live
// element data within the mapping.
func (r *Region) Used() uint32 { return readUint32(r.data, offUsed) }

// SetUsed updates the header's used field. Callers must hold the lock.
func (r *Region) SetUsed(n uint32) { writeUint32(r.data, offUsed, n) }

// Allocated returns the header's allocated field: the current mapping
// size, including the header.
func (r *Region) Allocated() uint32 { return readUint32(r.data, offAllocated) }

// Remap grows the backing file to newSize and re-establishes the mapping.
// preserveContents is honored when true; this implementation preserves
// existing bytes unconditionally regardless of its value, since ftruncate
// never shrinks data a live element log depends on and growing a file
// never disturbs the bytes already written to it.
func (r *Region) Remap(newSize int, preserveContents bool) error {
	_ = preserveContents
	if newSize <= len(r.data) {
		return nil
	}
	if err := munmap(r.data); err != nil {
		return fmt.Errorf("%w: unmap for growth: %v", ErrRegionExhausted, err)
	}
	if err := ftruncate(int(r.file.Fd()), int64(newSize)); err != nil {
		return fmt.Errorf("%w: grow %s to %d: %v", ErrRegionExhausted, r.path, newSize, err)
	}
	data, err := mmap(int(r.file.Fd()), newSize)
	if err != nil {
		return fmt.Errorf("%w: remap %s at %d: %v", ErrRegionExhausted, r.path, newSize, err)
	}
	r.data = data
	writeUint32(r.data, offAllocated, uint32(newSize))
	return nil
}

// EnsureCapacity grows the region, in whole GrowthQuantum steps, until at
// least need bytes beyond the current used offset are available.
func (r *Region) EnsureCapacity(need int) error {
	have := int(r.Allocated()) - int(r.Used())
	if have >= need {
		return nil
	}
	target := int(r.Allocated())
	for target-int(r.Used()) < need {
		target += GrowthQuantum
	}
	return r.Remap(target, true)
}

// Lock acquires the region's embedded mutex, a plain mutual-exclusion
// lock guarding the header and element area (distinct from the
// shared/exclusive LockManager coordinating AST refresh across
// attachments). It returns an unlock func the caller must invoke exactly
// once. A failure to acquire is ErrMutexCorruption; per spec §7 the
// caller is responsible for logging and terminating the process, the way
// server/mvcc/backend treats an unrecoverable bolt transaction failure.
//
// flock(2) has no native cancellation, so a ctx already canceled is
// honored before blocking but cancellation during the wait is not; this
// matches how little contention the region mutex actually sees (held only
// across a handful of memory copies, never across I/O or an AST).
func (r *Region) Lock(ctx context.Context) (unlock func(), err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := flock(int(r.file.Fd()), true); err != nil {
		return nil, fmt.Errorf("%w: acquire: %v", ErrMutexCorruption, err)
	}
	writeUint32(r.data, offLockGeneration, readUint32(r.data, offLockGeneration)+1)
	return func() {
		if err := funlock(int(r.file.Fd())); err != nil {
			r.lg.Error("region mutex release failed", zap.String("path", r.path), zap.Error(err))
		}
	}, nil
}

// Unmap releases the mapping and closes the file descriptor, without
// removing the file. Safe to call more than once.
func (r *Region) Unmap() error {
	if r.data == nil {
		return nil
	}
	if err := munmap(r.data); err != nil {
		return err
	}
	r.data = nil
	return r.file.Close()
}

// Remove deletes the backing file. The caller must have already Unmap'd
// and must hold exclusive knowledge that no other process still
// references the file (spec §4.1: removed only when used == headerSize at
// the last contributor's teardown).
func (r *Region) Remove() error {
	return os.Remove(r.path)
}

// Sync flushes dirty mapped pages asynchronously; used after writes a
// crash should not be allowed to silently lose (best-effort, not a
// durability guarantee the spec requires).
func (r *Region) Sync() error {
	if r.data == nil {
		return nil
	}
	return msync(r.data)
}

// Mapper adapts Config to engine.MemoryMapper. MonitoringStore takes an
// already-mapped engine.MappedRegion and CoordinationLock maps nothing, so
// neither of them calls Mapper.
type Mapper struct {
	cfg Config
}

// NewMapper returns a Mapper that opens region files under cfg.Dir.
func NewMapper(cfg Config) *Mapper {
	return &Mapper{cfg: cfg}
}

// Map implements engine.MemoryMapper.
func (m *Mapper) Map(name string, initialSize int, init func(fresh bool) error) (engine.MappedRegion, error) {
	cfg := m.cfg
	if initialSize > 0 {
		cfg.InitialSize = initialSize
	}
	r, fresh, err := mapWithFreshness(cfg, name)
	if err != nil {
		return nil, err
	}
	if init != nil {
		if err := init(fresh); err != nil {
			r.Unmap()
			return nil, err
		}
	}
	return r, nil
}
