package engine

import "encoding/binary"

// Region header layout (spec §6): region_type(4) | layout_version(4) |
// used(4) | allocated(4) | mutex state(opaque, 8). Exported here, rather
// than owned solely by the region package, because both the concrete
// SharedRegion implementation and MonitoringStore (which only ever holds
// a MappedRegion interface) need to read and update used/allocated.
const (
	HeaderRegionTypeOffset     = 0
	HeaderLayoutVersionOffset = 4
	HeaderUsedOffset          = 8
	HeaderAllocatedOffset     = 12
	HeaderMutexStateOffset    = 16
	HeaderSize                = 24
)

// RegionTypeDatabaseSnapshot is the region_type stamped into a freshly
// created mapping (SRAM_DATABASE_SNAPSHOT).
const RegionTypeDatabaseSnapshot uint32 = 0x534e4150 // "SNAP"

// MonitorVersion is the layout_version this build writes and requires.
const MonitorVersion uint32 = 1

func HeaderRegionType(b []byte) uint32 {
	return binary.BigEndian.Uint32(b[HeaderRegionTypeOffset:])
}

func HeaderLayoutVersion(b []byte) uint32 {
	return binary.BigEndian.Uint32(b[HeaderLayoutVersionOffset:])
}

// HeaderUsed returns the header's used field: bytes occupied including
// the header itself.
func HeaderUsed(b []byte) uint32 {
	return binary.BigEndian.Uint32(b[HeaderUsedOffset:])
}

// SetHeaderUsed updates the header's used field. Caller must hold the
// region's embedded mutex.
func SetHeaderUsed(b []byte, v uint32) {
	binary.BigEndian.PutUint32(b[HeaderUsedOffset:], v)
}

// HeaderAllocated returns the header's allocated field: the current
// mapping size in bytes.
func HeaderAllocated(b []byte) uint32 {
	return binary.BigEndian.Uint32(b[HeaderAllocatedOffset:])
}
