package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbengine/dbmonitor/internal/collector"
	"github.com/dbengine/dbmonitor/internal/coordination"
	"github.com/dbengine/dbmonitor/internal/engine"
	"github.com/dbengine/dbmonitor/internal/store"
)

const (
	pidAlice engine.ProcessID = 1000
	pidBob   engine.ProcessID = 2000
)

func userView(name string, ctxVars []engine.ContextVar) *engine.FakeProcessView {
	att := &engine.FakeAttachment{
		ProcessIDV:   1,
		LocalIDV:     1,
		UserNameV:    name,
		CharsetV:     engine.CharsetUTF8,
		ContextVarsV: ctxVars,
	}
	return &engine.FakeProcessView{
		DatabaseV:        engine.FakeDatabase{NameV: "db1"},
		UserAttachmentsV: []engine.Attachment{att},
	}
}

// publishDirect writes pid's contribution into region without going
// through a CoordinationLock, simulating a peer process that has already
// published before the requester's snapshot round begins.
func publishDirect(t *testing.T, region *fakeRegion, liveness *engine.FakeLivenessOracle, pid engine.ProcessID, view engine.ProcessView) {
	t.Helper()
	st := store.New(store.DefaultConfig(), region, liveness, pid)
	col := collector.New(collector.DefaultConfig(), pid)
	pub := NewPublisher(st, col, 1, func() engine.ProcessView { return view })
	require.NoError(t, pub.Publish(context.Background()))
}

func setupAlice(t *testing.T, region *fakeRegion, liveness *engine.FakeLivenessOracle, aliceView engine.ProcessView) (*store.Store, *coordination.Lock) {
	t.Helper()
	st := store.New(store.DefaultConfig(), region, liveness, pidAlice)
	col := collector.New(collector.DefaultConfig(), pidAlice)
	pub := NewPublisher(st, col, 1, func() engine.ProcessView { return aliceView })

	manager := engine.NewFakeLockManager()
	lock := coordination.New(coordination.DefaultConfig(), manager, "db1", pub.Publish, nil)
	require.NoError(t, lock.Register(context.Background()))
	return st, lock
}

func TestAssemblerNonLocksmithSeesOnlyOwnAttachment(t *testing.T) {
	region := newFakeRegion(8192)
	liveness := engine.NewFakeLivenessOracle(pidAlice, pidBob)

	publishDirect(t, region, liveness, pidBob, userView("bob", nil))
	aliceView := userView("alice", nil)
	st, lock := setupAlice(t, region, liveness, aliceView)

	sinks := map[engine.RelationID]engine.RowSink{
		engine.RelDatabase:    &engine.FakeRowSink{},
		engine.RelAttachments: &engine.FakeRowSink{},
	}
	cfg := Config{DatabaseName: "db1", UserName: "alice", Locksmith: false}
	asm, err := New(cfg, region, testFormats(), lock, st, sinks)
	require.NoError(t, err)

	require.NoError(t, asm.Run(context.Background()))

	dbSink := sinks[engine.RelDatabase].(*engine.FakeRowSink)
	require.Len(t, dbSink.Rows, 1)
	require.Equal(t, "db1", trimNulls(dbSink.Rows[0][0:32]))

	attSink := sinks[engine.RelAttachments].(*engine.FakeRowSink)
	require.Len(t, attSink.Rows, 1)
	require.Equal(t, "alice", trimNulls(attSink.Rows[0][0:16]))
}

func TestAssemblerLocksmithSeesEveryAttachment(t *testing.T) {
	region := newFakeRegion(8192)
	liveness := engine.NewFakeLivenessOracle(pidAlice, pidBob)

	publishDirect(t, region, liveness, pidBob, userView("bob", nil))
	aliceView := userView("alice", nil)
	st, lock := setupAlice(t, region, liveness, aliceView)

	sinks := map[engine.RelationID]engine.RowSink{
		engine.RelDatabase:    &engine.FakeRowSink{},
		engine.RelAttachments: &engine.FakeRowSink{},
	}
	cfg := Config{DatabaseName: "db1", UserName: "alice", Locksmith: true}
	asm, err := New(cfg, region, testFormats(), lock, st, sinks)
	require.NoError(t, err)

	require.NoError(t, asm.Run(context.Background()))

	attSink := sinks[engine.RelAttachments].(*engine.FakeRowSink)
	require.Len(t, attSink.Rows, 2)
}

func TestAssemblerTeardownRemovesOwnElementAndReleasesLock(t *testing.T) {
	region := newFakeRegion(8192)
	liveness := engine.NewFakeLivenessOracle(pidAlice)
	aliceView := userView("alice", nil)
	st, lock := setupAlice(t, region, liveness, aliceView)

	require.NoError(t, lock.PublishFresh(context.Background()))
	require.Greater(t, int(engine.HeaderUsed(region.Bytes())), engine.HeaderSize)

	sinks := map[engine.RelationID]engine.RowSink{}
	cfg := Config{DatabaseName: "db1", UserName: "alice", Locksmith: false}
	asm, err := New(cfg, region, testFormats(), lock, st, sinks)
	require.NoError(t, err)

	require.NoError(t, asm.Teardown(context.Background()))

	require.EqualValues(t, engine.HeaderSize, engine.HeaderUsed(region.Bytes()))
}

func TestAssemblerAppliesNoneToMetadataCharsetCoercion(t *testing.T) {
	region := newFakeRegion(8192)
	liveness := engine.NewFakeLivenessOracle(pidAlice)

	cv := []engine.ContextVar{{Namespace: "DDL", Name: "label", Value: "caf\xc3\xa9"}}
	att := &engine.FakeAttachment{
		ProcessIDV:   1,
		LocalIDV:     1,
		UserNameV:    "alice",
		CharsetV:     engine.CharsetNone,
		ContextVarsV: cv,
	}
	view := &engine.FakeProcessView{
		DatabaseV:        engine.FakeDatabase{NameV: "db1"},
		UserAttachmentsV: []engine.Attachment{att},
	}

	st, lock := setupAlice(t, region, liveness, view)
	sinks := map[engine.RelationID]engine.RowSink{
		engine.RelCtxVars: &engine.FakeRowSink{},
	}
	cfg := Config{DatabaseName: "db1", UserName: "alice", Locksmith: false}
	asm, err := New(cfg, region, testFormats(), lock, st, sinks)
	require.NoError(t, err)

	require.NoError(t, asm.Run(context.Background()))

	ctxSink := sinks[engine.RelCtxVars].(*engine.FakeRowSink)
	require.Len(t, ctxSink.Rows, 1)
	require.Equal(t, "caf??", trimNulls(ctxSink.Rows[0][0:16]))
}
