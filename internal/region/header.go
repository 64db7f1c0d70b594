package region

import (
	"encoding/binary"

	"github.com/dbengine/dbmonitor/internal/engine"
)

// RegionTypeDatabaseSnapshot and MonitorVersion are re-exported from
// engine, which owns the header layout since MonitoringStore (holding
// only an engine.MappedRegion) needs it too; see engine/header.go.
const (
	RegionTypeDatabaseSnapshot = engine.RegionTypeDatabaseSnapshot
	MonitorVersion             = engine.MonitorVersion
	headerSize                 = engine.HeaderSize
	offRegionType              = engine.HeaderRegionTypeOffset
	offLayoutVersion           = engine.HeaderLayoutVersionOffset
	offUsed                    = engine.HeaderUsedOffset
	offAllocated               = engine.HeaderAllocatedOffset
	offLockGeneration          = engine.HeaderMutexStateOffset
)

func readUint32(data []byte, off int) uint32 {
	return binary.BigEndian.Uint32(data[off : off+4])
}

func writeUint32(data []byte, off int, v uint32) {
	binary.BigEndian.PutUint32(data[off:off+4], v)
}
