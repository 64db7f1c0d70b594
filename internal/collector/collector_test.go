package collector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbengine/dbmonitor/internal/dump"
	"github.com/dbengine/dbmonitor/internal/engine"
)

type decodedRecord struct {
	relation uint32
	fields   map[uint16]dump.DumpField
}

func decodeAll(t *testing.T, buf []byte) []decodedRecord {
	t.Helper()
	d := dump.NewDecoder(buf)
	var out []decodedRecord
	for {
		rel, ok, err := d.NextRecord()
		require.NoError(t, err)
		if !ok {
			break
		}
		fields := map[uint16]dump.DumpField{}
		for {
			f, ok, err := d.NextField()
			require.NoError(t, err)
			if !ok {
				break
			}
			fields[f.FieldID] = f
		}
		out = append(out, decodedRecord{relation: rel, fields: fields})
	}
	return out
}

func countRelation(records []decodedRecord, rel engine.RelationID) int {
	n := 0
	for _, r := range records {
		if r.relation == uint32(rel) {
			n++
		}
	}
	return n
}

func buildView() *engine.FakeProcessView {
	call := &engine.FakeRequest{IDV: 2, IOStatsV: engine.IOStats{PageReads: 5}, RecStatsV: engine.RecStats{Inserts: 1}}
	top := &engine.FakeRequest{IDV: 1, CallerV: nil, IOStatsV: engine.IOStats{PageReads: 7}}
	call.CallerV = top
	internal := &engine.FakeRequest{IDV: 3, InternalV: true}

	txn := &engine.FakeTransaction{
		IDV:          100,
		IsolationV:   engine.IsolationConcurrency,
		ContextVarsV: []engine.ContextVar{{Namespace: "USER_SESSION", Name: "k", Value: "v"}},
		RequestsV:    []engine.Request{top, call, internal},
	}

	idleTopLevel := &engine.FakeRequest{IDV: 4}
	sysTrigger := &engine.FakeRequest{IDV: 5, SysTriggerV: true}

	userAtt := &engine.FakeAttachment{
		ProcessIDV:        1,
		LocalIDV:          1,
		UserNameV:         "ALICE",
		CharsetV:          engine.CharsetUTF8,
		StateV:            engine.StateActive,
		ContextVarsV:      []engine.ContextVar{{Namespace: "DDL", Name: "x", Value: "y"}},
		TransactionsV:     []engine.Transaction{txn},
		TopLevelRequestsV: []engine.Request{idleTopLevel, sysTrigger},
	}

	sysAtt := &engine.FakeAttachment{
		ProcessIDV: 1,
		LocalIDV:   2,
		UserNameV:  "SYSDBA",
		IsSystemV:  true,
		CharsetV:   engine.CharsetNone,
		StateV:     engine.StateIdle,
	}

	db := engine.FakeDatabase{
		NameV:         "EMPLOYEE",
		FileIDV:       "/var/db/employee.fdb",
		ShutdownModeV: engine.ShutdownOnline,
		BackupStateV:  engine.BackupNormal,
		PageSizeV:     8192,
	}

	return &engine.FakeProcessView{
		DatabaseV:          db,
		UserAttachmentsV:   []engine.Attachment{userAtt},
		SystemAttachmentsV: []engine.Attachment{sysAtt},
	}
}

func TestDumpSelfEmitsDatabaseRecordFirst(t *testing.T) {
	c := New(DefaultConfig(), 1500)
	enc := dump.NewEncoder()
	require.NoError(t, c.DumpSelf(enc, buildView()))

	records := decodeAll(t, enc.Bytes())
	require.NotEmpty(t, records)
	require.EqualValues(t, engine.RelDatabase, records[0].relation)
	require.Equal(t, "EMPLOYEE", records[0].fields[engine.FieldDBName].Text())
}

func TestDumpSelfWalksEveryAttachment(t *testing.T) {
	c := New(DefaultConfig(), 1500)
	enc := dump.NewEncoder()
	require.NoError(t, c.DumpSelf(enc, buildView()))

	records := decodeAll(t, enc.Bytes())
	require.Equal(t, 2, countRelation(records, engine.RelAttachments))
}

func TestDumpSelfFiltersInternalAndSystemTriggerRequests(t *testing.T) {
	c := New(DefaultConfig(), 1500)
	enc := dump.NewEncoder()
	require.NoError(t, c.DumpSelf(enc, buildView()))

	records := decodeAll(t, enc.Bytes())
	// top-level statements: idleTopLevel survives, sysTrigger is filtered.
	// transaction requests: top (no caller) -> rel_statements, call (has caller) -> rel_calls,
	// internal -> filtered entirely.
	require.Equal(t, 2, countRelation(records, engine.RelStatements))
	require.Equal(t, 1, countRelation(records, engine.RelCalls))
}

func TestDumpSelfLinksCallToItsCaller(t *testing.T) {
	c := New(DefaultConfig(), 1500)
	enc := dump.NewEncoder()
	require.NoError(t, c.DumpSelf(enc, buildView()))

	records := decodeAll(t, enc.Bytes())
	// The transaction's own statement (top) is the first rel_statements
	// record; the attachment's top-level statements are emitted after it.
	var stmtGID, callCallerGID int64
	for _, r := range records {
		if r.relation == uint32(engine.RelStatements) && stmtGID == 0 {
			v, err := r.fields[engine.FieldStmtGlobalID].Int64()
			require.NoError(t, err)
			stmtGID = v
		}
		if r.relation == uint32(engine.RelCalls) {
			v, err := r.fields[engine.FieldCallCallerGlobalID].Int64()
			require.NoError(t, err)
			callCallerGID = v
		}
	}
	require.NotZero(t, stmtGID)
	require.Equal(t, stmtGID, callCallerGID)
}

func TestDumpSelfEmitsIOAndRecStatsPerSurvivingRequest(t *testing.T) {
	c := New(DefaultConfig(), 1500)
	enc := dump.NewEncoder()
	require.NoError(t, c.DumpSelf(enc, buildView()))

	records := decodeAll(t, enc.Bytes())
	// 3 surviving requests (idleTopLevel, top, call) each get one io_stats and one rec_stats row.
	require.Equal(t, 3, countRelation(records, engine.RelIOStats))
	require.Equal(t, 3, countRelation(records, engine.RelRecStats))
}

func TestDumpSelfGlobalIDsAreTaggedWithProcessID(t *testing.T) {
	c := New(DefaultConfig(), 1500)
	enc := dump.NewEncoder()
	require.NoError(t, c.DumpSelf(enc, buildView()))

	records := decodeAll(t, enc.Bytes())
	for _, r := range records {
		if r.relation != uint32(engine.RelAttachments) {
			continue
		}
		v, err := r.fields[engine.FieldAttGlobalID].Int64()
		require.NoError(t, err)
		require.Equal(t, engine.ProcessID(1500), engine.GlobalID(v).ProcessID())
	}
}

func TestSanitizeUTF8ReplacesInvalidBytes(t *testing.T) {
	invalid := string([]byte{0x63, 0x61, 0x66, 0xC3, 0x28})
	out := sanitizeUTF8(invalid)
	require.True(t, len(out) >= 3)
	require.Contains(t, out, "caf")
}
