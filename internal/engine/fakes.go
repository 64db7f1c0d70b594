package engine

import (
	"context"
	"fmt"
	"sync"
)

// The types below are in-memory fakes of the engine-facing ports, used by
// this module's own tests the way raft.MemoryStorage stands in for a real
// Storage implementation in the teacher's test suite. They are not part
// of the public API surface of a production engine.

// FakeDatabase is a static Database.
type FakeDatabase struct {
	NameV         string
	FileIDV       string
	ShutdownModeV ShutdownMode
	BackupStateV  BackupState
	PageSizeV     int32
}

func (d FakeDatabase) Name() string             { return d.NameV }
func (d FakeDatabase) FileID() string           { return d.FileIDV }
func (d FakeDatabase) ShutdownMode() ShutdownMode { return d.ShutdownModeV }
func (d FakeDatabase) BackupState() BackupState { return d.BackupStateV }
func (d FakeDatabase) PageSize() int32          { return d.PageSizeV }

// FakeRequest is a static Request; CallerV forms the caller chain.
type FakeRequest struct {
	IDV         int64
	InternalV   bool
	SysTriggerV bool
	CallerV     *FakeRequest
	IOStatsV    IOStats
	RecStatsV   RecStats
}

func (r *FakeRequest) ID() int64              { return r.IDV }
func (r *FakeRequest) IsInternal() bool       { return r.InternalV }
func (r *FakeRequest) IsSystemTrigger() bool  { return r.SysTriggerV }
func (r *FakeRequest) IOStats() IOStats       { return r.IOStatsV }
func (r *FakeRequest) RecStats() RecStats     { return r.RecStatsV }
func (r *FakeRequest) Caller() Request {
	if r.CallerV == nil {
		return nil
	}
	return r.CallerV
}

// FakeTransaction is a static Transaction.
type FakeTransaction struct {
	IDV          int64
	IsolationV   IsolationMode
	ContextVarsV []ContextVar
	RequestsV    []Request
}

func (t *FakeTransaction) ID() int64                  { return t.IDV }
func (t *FakeTransaction) Isolation() IsolationMode    { return t.IsolationV }
func (t *FakeTransaction) ContextVars() []ContextVar   { return t.ContextVarsV }
func (t *FakeTransaction) Requests() []Request         { return t.RequestsV }

// FakeAttachment is a static Attachment.
type FakeAttachment struct {
	ProcessIDV        ProcessID
	LocalIDV          LocalID
	UserNameV         string
	IsSystemV         bool
	CharsetV          Charset
	StateV            State
	ContextVarsV      []ContextVar
	TransactionsV     []Transaction
	TopLevelRequestsV []Request
}

func (a *FakeAttachment) ProcessID() ProcessID          { return a.ProcessIDV }
func (a *FakeAttachment) LocalID() LocalID              { return a.LocalIDV }
func (a *FakeAttachment) UserName() string              { return a.UserNameV }
func (a *FakeAttachment) IsSystem() bool                { return a.IsSystemV }
func (a *FakeAttachment) Charset() Charset              { return a.CharsetV }
func (a *FakeAttachment) State() State                  { return a.StateV }
func (a *FakeAttachment) ContextVars() []ContextVar     { return a.ContextVarsV }
func (a *FakeAttachment) Transactions() []Transaction   { return a.TransactionsV }
func (a *FakeAttachment) TopLevelRequests() []Request   { return a.TopLevelRequestsV }

// FakeProcessView is a static ProcessView.
type FakeProcessView struct {
	DatabaseV          Database
	UserAttachmentsV   []Attachment
	SystemAttachmentsV []Attachment
}

func (p *FakeProcessView) Database() Database            { return p.DatabaseV }
func (p *FakeProcessView) UserAttachments() []Attachment { return p.UserAttachmentsV }
func (p *FakeProcessView) SystemAttachments() []Attachment {
	return p.SystemAttachmentsV
}

// FakeLivenessOracle reports processes dead unless listed alive.
type FakeLivenessOracle struct {
	mu    sync.Mutex
	alive map[ProcessID]bool
}

func NewFakeLivenessOracle(alive ...ProcessID) *FakeLivenessOracle {
	m := make(map[ProcessID]bool, len(alive))
	for _, p := range alive {
		m[p] = true
	}
	return &FakeLivenessOracle{alive: m}
}

func (f *FakeLivenessOracle) IsProcessAlive(pid ProcessID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive[pid]
}

func (f *FakeLivenessOracle) SetAlive(pid ProcessID, alive bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if alive {
		f.alive[pid] = true
	} else {
		delete(f.alive, pid)
	}
}

// FakeFormatRegistry returns formats from a static table.
type FakeFormatRegistry struct {
	Formats map[RelationID]Format
}

func (r *FakeFormatRegistry) FormatFor(rel RelationID) (Format, error) {
	f, ok := r.Formats[rel]
	if !ok {
		return Format{}, fmt.Errorf("engine: no format registered for %s", rel)
	}
	return f, nil
}

// FakeRowSink collects appended rows in order.
type FakeRowSink struct {
	mu   sync.Mutex
	Rows [][]byte
}

func (s *FakeRowSink) Append(row []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(row))
	copy(cp, row)
	s.Rows = append(s.Rows, cp)
	return nil
}

// FakeLockManager is a single-process, single-database in-memory stand
// in for the distributed lock manager: Acquire(exclusive) synchronously
// invokes the AST registered by the current shared holder before
// granting, which is enough to exercise the coordination protocol in
// unit tests without a real multi-process lock table.
type FakeLockManager struct {
	mu      sync.Mutex
	holders map[string][]*fakeHolder
}

type fakeHolder struct {
	mode LockMode
	ast  ASTCallback
}

func NewFakeLockManager() *FakeLockManager {
	return &FakeLockManager{holders: make(map[string][]*fakeHolder)}
}

type fakeLockHandle struct {
	name string
	h    *fakeHolder
}

func (f *FakeLockManager) Acquire(ctx context.Context, name string, mode LockMode, wait bool, ast ASTCallback) (LockHandle, error) {
	f.mu.Lock()
	if mode == LockExclusive {
		holders := append([]*fakeHolder(nil), f.holders[name]...)
		f.mu.Unlock()
		for _, h := range holders {
			if h.mode == LockShared && h.ast != nil {
				h.ast()
			}
		}
		f.mu.Lock()
	}
	h := &fakeHolder{mode: mode, ast: ast}
	f.holders[name] = append(f.holders[name], h)
	f.mu.Unlock()
	return &fakeLockHandle{name: name, h: h}, nil
}

func (f *FakeLockManager) Release(handle LockHandle) error {
	fh, ok := handle.(*fakeLockHandle)
	if !ok {
		return fmt.Errorf("engine: unexpected lock handle type %T", handle)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.holders[fh.name]
	for i, h := range list {
		if h == fh.h {
			f.holders[fh.name] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return nil
}

// FakeBlobHandle records Detach/Reattach calls.
type FakeBlobHandle struct {
	Detached bool
	Owner    int64
}

func (b *FakeBlobHandle) Detach() error {
	b.Detached = true
	return nil
}

func (b *FakeBlobHandle) ReattachTo(txnID int64) error {
	b.Owner = txnID
	return nil
}
