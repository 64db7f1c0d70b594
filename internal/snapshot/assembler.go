// Package snapshot implements SnapshotAssembler: the single-use,
// one-transaction object that drives one monitoring snapshot round
// (spec §4.6) — publish self fresh, force every peer to publish via the
// distributed monitor lock's AST, read the compacted store, then decode
// and filter into the caller's row buffers.
package snapshot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dbengine/dbmonitor/internal/coordination"
	"github.com/dbengine/dbmonitor/internal/dump"
	"github.com/dbengine/dbmonitor/internal/engine"
	"github.com/dbengine/dbmonitor/internal/store"
)

// allRelations enumerates every virtual relation this subsystem exposes
// upward (spec §6), in no particular order; SnapshotAssembler allocates
// one row buffer per relation at construction time (spec §4.6 step 2).
var allRelations = []engine.RelationID{
	engine.RelDatabase,
	engine.RelAttachments,
	engine.RelTransactions,
	engine.RelStatements,
	engine.RelCalls,
	engine.RelIOStats,
	engine.RelRecStats,
	engine.RelCtxVars,
	engine.RelMemUsage,
}

// Assembler is one SnapshotAssembler run.
type Assembler struct {
	lg     *zap.Logger
	dbName string
	txnID  int64

	region   engine.MappedRegion
	lock     *coordination.Lock
	store    *store.Store
	builders map[engine.RelationID]*rowBuilder
	sinks    map[engine.RelationID]engine.RowSink

	filter *rowFilter
	ids    *globalIDTable
	blobs  *blobOwner
}

// New constructs an Assembler, performing spec §4.6 steps 1-2: validate
// the region header and fetch every relation's native row Format from
// registry. region, lock, and st must already be wired to the same
// database; sinks receives one materialized row per accepted record of
// its relation.
func New(cfg Config, region engine.MappedRegion, registry engine.FormatRegistry, lock *coordination.Lock, st *store.Store, sinks map[engine.RelationID]engine.RowSink) (*Assembler, error) {
	data := region.Bytes()
	if engine.HeaderRegionType(data) != engine.RegionTypeDatabaseSnapshot {
		return nil, fmt.Errorf("%w: region_type", ErrLayoutMismatch)
	}
	if engine.HeaderLayoutVersion(data) != engine.MonitorVersion {
		return nil, fmt.Errorf("%w: layout_version", ErrLayoutMismatch)
	}

	builders := make(map[engine.RelationID]*rowBuilder, len(allRelations))
	for _, rel := range allRelations {
		format, err := registry.FormatFor(rel)
		if err != nil {
			return nil, fmt.Errorf("snapshot: %s: %w", rel, err)
		}
		builders[rel] = newRowBuilder(format)
	}

	return &Assembler{
		lg:       cfg.logger(),
		dbName:   cfg.DatabaseName,
		txnID:    cfg.OwningTransactionID,
		region:   region,
		lock:     lock,
		store:    st,
		builders: builders,
		sinks:    sinks,
		filter:   newRowFilter(cfg.DatabaseName, cfg.UserName, cfg.Locksmith),
		ids:      newGlobalIDTable(),
		blobs:    newBlobOwner(),
	}, nil
}

// Run drives steps 3-6 of spec §4.6. Any error aborts the round; row
// buffers partially populated before the failure are left as-is for the
// caller to discard, matching §7's propagation policy.
func (a *Assembler) Run(ctx context.Context) error {
	if err := a.lock.PublishFresh(ctx); err != nil {
		return fmt.Errorf("snapshot: publish self: %w", err)
	}
	if err := a.lock.Snapshot(ctx); err != nil {
		return fmt.Errorf("snapshot: exclusive round: %w", err)
	}

	if err := a.store.Acquire(ctx); err != nil {
		return fmt.Errorf("snapshot: acquire store: %w", err)
	}
	buf, readErr := a.store.Read()
	if releaseErr := a.store.Release(); releaseErr != nil && readErr == nil {
		readErr = releaseErr
	}
	if readErr != nil {
		return fmt.Errorf("snapshot: read: %w", readErr)
	}

	if err := a.decode(buf); err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	// Returning to Shared-held makes this attachment a normal participant
	// again for the next round's AST, rather than leaving it permanently
	// Off after having deliberately gone Off in PublishFresh.
	return a.lock.EnsureShared(ctx)
}

// Teardown removes this process's own contribution from the store and
// releases its shared monitor lock, implementing spec §3/§4.1's
// process/attachment teardown: cleanup() so a dead process's element
// doesn't linger for a peer's Read to reclaim later, then Deregister so
// the lock manager sees one fewer shared holder. Callers run this before
// handing the region to region.Manager.Release, whose empty-file removal
// only observes used == headerSize once every contributor has done this.
func (a *Assembler) Teardown(ctx context.Context) error {
	if err := a.store.Acquire(ctx); err != nil {
		return fmt.Errorf("snapshot: teardown acquire: %w", err)
	}
	cleanupErr := a.store.Cleanup(a.store.SelfPID())
	if releaseErr := a.store.Release(); releaseErr != nil && cleanupErr == nil {
		cleanupErr = releaseErr
	}
	if cleanupErr != nil {
		return fmt.Errorf("snapshot: teardown cleanup: %w", cleanupErr)
	}
	return a.lock.Deregister()
}

// ReparentBlob reassigns ownership of a blob handle materialized while
// decoding to this snapshot's owning transaction (spec §4.6/§9). The
// engine layer that actually produces blob handles calls this as it
// decodes a STRING/blob field it recognizes as a blob reference; the
// decoder in this package never sees a blob wire type of its own (§4.3
// defines no such tag) so it cannot call this automatically.
func (a *Assembler) ReparentBlob(h engine.BlobHandle) error {
	return a.blobs.reparent(h, a.txnID)
}

// decode walks buf with a dump.Decoder, classifying each record with
// rowFilter and materializing accepted ones into their relation's row
// buffer, appending to the matching sink once a record's fields are
// fully read.
func (a *Assembler) decode(buf []byte) error {
	dec := dump.NewDecoder(buf)
	for {
		relID, ok, err := dec.NextRecord()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		rel := engine.RelationID(relID)

		var fields []dump.DumpField
		for {
			f, ok, err := dec.NextField()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			fields = append(fields, f)
		}
		if len(fields) == 0 {
			continue
		}

		accepted, srcCharset := a.classify(rel, fields)
		if !accepted {
			continue
		}

		builder, ok := a.builders[rel]
		if !ok {
			a.lg.Warn("dropping record for unregistered relation", zap.Uint32("relation", relID))
			continue
		}
		builder.reset()
		for _, f := range fields {
			if err := builder.set(a.ids, f, srcCharset); err != nil {
				return err
			}
		}
		sink, ok := a.sinks[rel]
		if !ok {
			continue
		}
		if err := sink.Append(builder.row()); err != nil {
			return err
		}
	}
}

// classify applies the rowFilter state machine (spec §4.6). fields[0] is
// the record's first field, which by the encoding contract in
// internal/engine/fields.go is db_name for rel_database and att_user for
// rel_attachment - exactly the field the filter must decide on before
// any other field is materialized.
func (a *Assembler) classify(rel engine.RelationID, fields []dump.DumpField) (accepted bool, srcCharset engine.Charset) {
	switch rel {
	case engine.RelDatabase:
		return a.filter.acceptDatabase(fields[0].Text()), engine.CharsetUTF8
	case engine.RelAttachments:
		charset := fieldCharset(fields, engine.FieldAttCharset)
		return a.filter.acceptAttachment(fields[0].Text(), charset), charset
	default:
		return a.filter.acceptChild(), a.filter.attCharset
	}
}

func fieldCharset(fields []dump.DumpField, id uint16) engine.Charset {
	for _, f := range fields {
		if f.FieldID == id {
			v, err := f.Int64()
			if err == nil {
				return engine.Charset(v)
			}
		}
	}
	return engine.CharsetUTF8
}
