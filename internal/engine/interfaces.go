package engine

import "context"

// ASTCallback is the asynchronous system trap the lock manager invokes on
// a shared-mode holder when an incompatible (exclusive) request arrives.
// Implementations must be short and idempotent; the lock manager runs it
// on its own worker goroutine, never on the caller's.
type ASTCallback func()

// LockHandle is an opaque token returned by Acquire and required by
// Release. Implementations may type-assert it internally; callers must
// treat it as opaque.
type LockHandle interface{}

// LockManager is the distributed advisory lock this subsystem coordinates
// through (§4.4, §6). One name corresponds to one database; Acquire in
// LockShared mode registers ast to be invoked when a peer requests
// LockExclusive, matching the blocking-AST contract in §4.4.
type LockManager interface {
	Acquire(ctx context.Context, name string, mode LockMode, wait bool, ast ASTCallback) (LockHandle, error)
	Release(handle LockHandle) error
}

// LivenessOracle answers whether a process that may have contributed data
// to a shared region is still alive. A false answer authorizes any reader
// to reclaim that process's contribution (§3, §4.2 Pass 1).
type LivenessOracle interface {
	IsProcessAlive(pid ProcessID) bool
}

// MappedRegion is one memory-mapped file backing a SharedRegion (§4.1,
// §6). Bytes returns the live mapping; callers must not hold the slice
// across a Remap call, since the backing array is replaced.
type MappedRegion interface {
	Bytes() []byte
	Remap(newSize int, preserveContents bool) error
	Unmap() error
	Remove() error
	// Lock acquires the region's embedded cross-process mutex and returns
	// an unlock function. The returned error distinguishes a corrupted
	// mutex (fatal) from an ordinary wait failure.
	Lock(ctx context.Context) (unlock func(), err error)
}

// MemoryMapper is the mapping primitive this subsystem maps shared
// regions through (§6). InitialSize is advisory; Map may round it up.
type MemoryMapper interface {
	Map(name string, initialSize int, init func(fresh bool) error) (MappedRegion, error)
}

// FieldFormat places one field of a relation's native row layout.
type FieldFormat struct {
	FieldID uint16
	Offset  int
	Length  int
	Charset Charset
}

// Format is the native record layout for one monitoring relation, as
// owned by the engine's metadata system (§6) and fetched once per
// snapshot construction.
type Format struct {
	RelationID RelationID
	RowSize    int
	Fields     []FieldFormat
}

// FieldByID returns the layout of the named field, or ok=false if the
// relation's format does not carry it.
func (f Format) FieldByID(id uint16) (FieldFormat, bool) {
	for _, fl := range f.Fields {
		if fl.FieldID == id {
			return fl, true
		}
	}
	return FieldFormat{}, false
}

// FormatRegistry resolves a relation id to its native row layout (§6).
type FormatRegistry interface {
	FormatFor(rel RelationID) (Format, error)
}

// RowSink receives one materialized row in a relation's native layout
// (§6). Implementations own the row's backing storage once Append
// returns.
type RowSink interface {
	Append(row []byte) error
}

// BlobHandle is a temporary blob reference produced while transferring a
// STRING/blob field into a row buffer. Detach/Reattach implement the
// reparenting requirement of §4.6/§9: a blob materialized during transfer
// must outlive the request that decoded it and become owned by the
// requesting transaction.
type BlobHandle interface {
	Detach() error
	ReattachTo(txnID int64) error
}
