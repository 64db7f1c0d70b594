// Package collector implements dump_self: the per-process walk that
// serializes one process's database/attachment/transaction/request state
// into DumpRecords for publication into the shared monitoring store
// (spec §4.5).
package collector

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dbengine/dbmonitor/internal/dump"
	"github.com/dbengine/dbmonitor/internal/engine"
)

// Collector walks one process's ProcessView and emits DumpRecords.
// Grounded on server/mvcc/kv.go's RangeResult-style read-only traversal:
// Collector never mutates the ProcessView it walks, only the Encoder it
// writes into.
type Collector struct {
	lg      *zap.Logger
	pid     engine.ProcessID
	counter uint32 // monotonic; doubles as an object's GLOBAL_ID counter and its own stat_id tag
}

// New returns a Collector that tags every object it emits with pid.
func New(cfg Config, pid engine.ProcessID) *Collector {
	return &Collector{lg: cfg.logger(), pid: pid}
}

// next returns a fresh monotonic value, used both as the counter half of
// a GLOBAL_ID and, unwrapped, as the stat_id tag linking an object's
// rel_io_stats/rel_rec_stats children back to it within this dump.
func (c *Collector) next() (engine.GlobalID, uint32) {
	v := atomic.AddUint32(&c.counter, 1)
	return engine.NewGlobalID(c.pid, v), v
}

// DumpSelf encodes this process's entire contribution: the database
// record, then every user attachment, then every system attachment
// (spec §4.5). It never returns a partial record - encoding a single
// record either succeeds completely or the Encoder's buffer is abandoned
// by the caller.
func (c *Collector) DumpSelf(enc *dump.Encoder, view engine.ProcessView) error {
	c.dumpDatabase(enc, view.Database())
	for _, a := range view.UserAttachments() {
		c.dumpAttachment(enc, a)
	}
	for _, a := range view.SystemAttachments() {
		c.dumpAttachment(enc, a)
	}
	return nil
}

func (c *Collector) dumpDatabase(enc *dump.Encoder, db engine.Database) {
	_, statID := c.next()
	enc.BeginRecord(uint32(engine.RelDatabase))
	enc.WriteString(engine.FieldDBName, sanitizeUTF8(db.Name()))
	enc.WriteString(engine.FieldDBFileID, sanitizeUTF8(db.FileID()))
	enc.WriteInteger(engine.FieldDBShutdownMode, int64(db.ShutdownMode()))
	enc.WriteInteger(engine.FieldDBBackupState, int64(db.BackupState()))
	enc.WriteInteger(engine.FieldDBPageSize, int64(db.PageSize()))
	enc.WriteInteger(engine.FieldDBStatID, int64(statID))
	enc.EndRecord()
}

func (c *Collector) dumpAttachment(enc *dump.Encoder, a engine.Attachment) {
	attGID, statID := c.next()
	enc.BeginRecord(uint32(engine.RelAttachments))
	enc.WriteString(engine.FieldAttUser, sanitizeUTF8(a.UserName()))
	enc.WriteGlobalID(engine.FieldAttGlobalID, int64(attGID))
	enc.WriteInteger(engine.FieldAttSystem, boolInt(a.IsSystem()))
	enc.WriteInteger(engine.FieldAttCharset, int64(a.Charset()))
	enc.WriteInteger(engine.FieldAttState, int64(a.State()))
	enc.WriteInteger(engine.FieldAttStatID, int64(statID))
	enc.EndRecord()

	for _, cv := range a.ContextVars() {
		c.dumpCtxVar(enc, attGID, cv)
	}
	for _, txn := range a.Transactions() {
		c.dumpTransaction(enc, attGID, txn)
	}
	for _, r := range a.TopLevelRequests() {
		if r.IsInternal() || r.IsSystemTrigger() {
			continue
		}
		gid, statID := c.next()
		c.dumpStatement(enc, attGID, gid, statID, r)
	}
}

func (c *Collector) dumpTransaction(enc *dump.Encoder, attGID engine.GlobalID, txn engine.Transaction) {
	txnGID, statID := c.next()
	enc.BeginRecord(uint32(engine.RelTransactions))
	enc.WriteGlobalID(engine.FieldTxnGlobalID, int64(txnGID))
	enc.WriteGlobalID(engine.FieldTxnAttGlobalID, int64(attGID))
	enc.WriteInteger(engine.FieldTxnIsolation, int64(txn.Isolation()))
	enc.WriteInteger(engine.FieldTxnStatID, int64(statID))
	enc.EndRecord()

	for _, cv := range txn.ContextVars() {
		c.dumpCtxVar(enc, txnGID, cv)
	}

	// Assign every request bound to this transaction a GLOBAL_ID up front
	// so a "call" frame can resolve its caller's id regardless of the
	// order Requests() lists them in.
	reqs := txn.Requests()
	ids := make(map[int64]engine.GlobalID, len(reqs))
	stats := make(map[int64]uint32, len(reqs))
	for _, r := range reqs {
		gid, statID := c.next()
		ids[r.ID()] = gid
		stats[r.ID()] = statID
	}
	for _, r := range reqs {
		if r.IsInternal() || r.IsSystemTrigger() {
			continue
		}
		gid := ids[r.ID()]
		statID := stats[r.ID()]
		if caller := r.Caller(); caller != nil {
			callerGID := ids[caller.ID()] // zero value if caller fell outside this transaction's request set
			c.dumpCall(enc, txnGID, gid, callerGID, statID, r)
			continue
		}
		c.dumpStatement(enc, txnGID, gid, statID, r)
	}
}

func (c *Collector) dumpStatement(enc *dump.Encoder, parentGID, gid engine.GlobalID, statID uint32, r engine.Request) {
	enc.BeginRecord(uint32(engine.RelStatements))
	enc.WriteGlobalID(engine.FieldStmtGlobalID, int64(gid))
	enc.WriteGlobalID(engine.FieldStmtParentGlobalID, int64(parentGID))
	enc.WriteInteger(engine.FieldStmtStatID, int64(statID))
	enc.EndRecord()
	c.dumpRequestStats(enc, gid, statID, engine.StatsGroupStatement, r)
}

func (c *Collector) dumpCall(enc *dump.Encoder, parentGID, gid, callerGID engine.GlobalID, statID uint32, r engine.Request) {
	enc.BeginRecord(uint32(engine.RelCalls))
	enc.WriteGlobalID(engine.FieldCallGlobalID, int64(gid))
	enc.WriteGlobalID(engine.FieldCallCallerGlobalID, int64(callerGID))
	enc.WriteGlobalID(engine.FieldCallParentGlobalID, int64(parentGID))
	enc.WriteInteger(engine.FieldCallStatID, int64(statID))
	enc.EndRecord()
	c.dumpRequestStats(enc, gid, statID, engine.StatsGroupCall, r)
}

func (c *Collector) dumpRequestStats(enc *dump.Encoder, parentGID engine.GlobalID, statID uint32, group engine.StatsGroup, r engine.Request) {
	io := r.IOStats()
	enc.BeginRecord(uint32(engine.RelIOStats))
	enc.WriteGlobalID(engine.FieldStatsParentGlobalID, int64(parentGID))
	enc.WriteInteger(engine.FieldStatsGroup, int64(group))
	enc.WriteInteger(engine.FieldIOReads, io.PageReads)
	enc.WriteInteger(engine.FieldIOWrites, io.PageWrites)
	enc.WriteInteger(engine.FieldIOFetches, io.PageFetches)
	enc.WriteInteger(engine.FieldIOMarks, io.PageMarks)
	enc.EndRecord()

	rec := r.RecStats()
	enc.BeginRecord(uint32(engine.RelRecStats))
	enc.WriteGlobalID(engine.FieldStatsParentGlobalID, int64(parentGID))
	enc.WriteInteger(engine.FieldStatsGroup, int64(group))
	enc.WriteInteger(engine.FieldRecInserts, rec.Inserts)
	enc.WriteInteger(engine.FieldRecUpdates, rec.Updates)
	enc.WriteInteger(engine.FieldRecDeletes, rec.Deletes)
	enc.WriteInteger(engine.FieldRecBackouts, rec.Backouts)
	enc.WriteInteger(engine.FieldRecPurges, rec.Purges)
	enc.WriteInteger(engine.FieldRecExpunges, rec.Expunges)
	enc.EndRecord()
}

func (c *Collector) dumpCtxVar(enc *dump.Encoder, parentGID engine.GlobalID, cv engine.ContextVar) {
	enc.BeginRecord(uint32(engine.RelCtxVars))
	enc.WriteGlobalID(engine.FieldCtxParentGlobalID, int64(parentGID))
	enc.WriteString(engine.FieldCtxNamespace, sanitizeUTF8(cv.Namespace))
	enc.WriteString(engine.FieldCtxName, sanitizeUTF8(cv.Name))
	enc.WriteString(engine.FieldCtxValue, sanitizeUTF8(cv.Value))
	enc.EndRecord()
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
