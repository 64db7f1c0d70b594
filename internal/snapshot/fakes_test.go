package snapshot

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
	binary.BigEndian.PutUint32(data[engine.HeaderRegionTypeOffset:], engine.RegionTypeDatabaseSnapshot)
	binary.BigEndian.PutUint32(data[engine.HeaderLayoutVersionOffset:], engine.MonitorVersion)
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

// testFormats returns a minimal FormatRegistry covering every relation
// Assembler.New requires a Format for, with real field layouts only for
// the relations these tests assert on.
func testFormats() *engine.FakeFormatRegistry {
	trivial := func(rel engine.RelationID) engine.Format {
		return engine.Format{RelationID: rel, RowSize: 8}
	}
	return &engine.FakeFormatRegistry{Formats: map[engine.RelationID]engine.Format{
		engine.RelDatabase: {
			RelationID: engine.RelDatabase,
			RowSize:    32,
			Fields: []engine.FieldFormat{
				{FieldID: engine.FieldDBName, Offset: 0, Length: 32, Charset: engine.CharsetUTF8},
			},
		},
		engine.RelAttachments: {
			RelationID: engine.RelAttachments,
			RowSize:    24,
			Fields: []engine.FieldFormat{
				{FieldID: engine.FieldAttUser, Offset: 0, Length: 16, Charset: engine.CharsetUTF8},
				{FieldID: engine.FieldAttGlobalID, Offset: 16, Length: 4},
				{FieldID: engine.FieldAttCharset, Offset: 20, Length: 4},
			},
		},
		engine.RelCtxVars: {
			RelationID: engine.RelCtxVars,
			RowSize:    20,
			Fields: []engine.FieldFormat{
				{FieldID: engine.FieldCtxValue, Offset: 0, Length: 16, Charset: engine.CharsetMetadata},
				{FieldID: engine.FieldCtxParentGlobalID, Offset: 16, Length: 4},
			},
		},
		engine.RelTransactions: trivial(engine.RelTransactions),
		engine.RelStatements:   trivial(engine.RelStatements),
		engine.RelCalls:        trivial(engine.RelCalls),
		engine.RelIOStats:      trivial(engine.RelIOStats),
		engine.RelRecStats:     trivial(engine.RelRecStats),
		engine.RelMemUsage:     trivial(engine.RelMemUsage),
	}}
}

func trimNulls(b []byte) string {
	i := 0
	for i < len(b) && b[i] != 0 {
		i++
	}
	return string(b[:i])
}
