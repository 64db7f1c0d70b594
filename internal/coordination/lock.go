// Package coordination implements CoordinationLock: the per-database
// advisory lock each attachment holds in shared mode, and the AST state
// machine that forces a fresh publish when a peer wants to read a
// consistent snapshot (spec §4.4).
package coordination

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dbengine/dbmonitor/internal/engine"
)

// PublishFunc runs a Collector pass that republishes this attachment's
// contribution into the shared store. Errors are logged and swallowed by
// the AST path per spec §5/§7 (CollectorError never propagates out of an
// AST, so one bad peer cannot deadlock others).
type PublishFunc func(ctx context.Context) error

// Lock is one attachment's handle on its database's distributed monitor
// lock, tracking the Shared-held -> Refreshing -> Off -> Shared-held state
// machine of spec §4.4.
type Lock struct {
	lg      *zap.Logger
	manager engine.LockManager
	dbName  string
	publish PublishFunc
	sf      *singleflight.Group

	mu     sync.Mutex
	handle engine.LockHandle
	held   bool // currently holding the shared lock
	off    bool // MONITOR_OFF: refreshed and released, awaiting next cycle
}

// New returns a Lock for one attachment of database dbName. publish is
// invoked by the AST path to republish fresh data; sf, if non-nil, is
// shared across every attachment of this process on the same database so
// concurrent Snapshot calls collapse into one exclusive round.
func New(cfg Config, manager engine.LockManager, dbName string, publish PublishFunc, sf *singleflight.Group) *Lock {
	if sf == nil {
		sf = &singleflight.Group{}
	}
	return &Lock{
		lg:      cfg.logger(),
		manager: manager,
		dbName:  dbName,
		publish: publish,
		sf:      sf,
		off:     true,
	}
}

// Register acquires the shared monitor lock and registers this Lock's AST
// callback, transitioning to Shared-held. Called once at collector
// registration time (spec §4.4).
func (l *Lock) Register(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquireSharedLocked(ctx)
}

// acquireSharedLocked must be called with l.mu held.
func (l *Lock) acquireSharedLocked(ctx context.Context) error {
	handle, err := l.manager.Acquire(ctx, l.dbName, engine.LockShared, true, l.onAST)
	if err != nil {
		return err
	}
	l.handle = handle
	l.held = true
	l.off = false
	return nil
}

// EnsureShared re-acquires the shared lock if a prior AST left this Lock
// in the Off state, returning to Shared-held. Spec §4.4: "the peer
// re-acquires a fresh shared lock the next time it is about to publish or
// at the next appropriate check." Called before any deliberate publish
// outside the AST path, e.g. a snapshot this attachment itself requests.
func (l *Lock) EnsureShared(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.off {
		return nil
	}
	return l.acquireSharedLocked(ctx)
}

// onAST is the blocking AST callback registered with the lock manager. It
// implements the Refreshing state: if not already Off (double-checked
// under the latch for reentrancy safety), it publishes fresh data,
// releases the shared lock, and sets Off. Failures are logged and
// swallowed: one bad peer must not wedge the exclusive waiter.
func (l *Lock) onAST() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.off {
		return
	}

	if err := l.publish(context.Background()); err != nil {
		l.lg.Error("AST publish failed, contribution may be stale this round",
			zap.String("database", l.dbName), zap.Error(err))
	}

	if l.held {
		if err := l.manager.Release(l.handle); err != nil {
			l.lg.Error("AST release of shared lock failed",
				zap.String("database", l.dbName), zap.Error(err))
		}
		l.held = false
	}
	l.off = true
}

// PublishFresh implements spec §4.6 step 3: release this attachment's own
// shared monitor lock (so it is already Off and will not need an AST of
// its own in the round about to start), then immediately publish a fresh
// contribution. Unlike the AST path, errors propagate rather than being
// swallowed: this is the snapshot caller's own deliberate publish, not a
// best-effort peer notification.
func (l *Lock) PublishFresh(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		if err := l.manager.Release(l.handle); err != nil {
			return err
		}
		l.held = false
	}
	l.off = true
	return l.publish(ctx)
}

// Snapshot drives one coordination round: acquire the monitor lock in
// EXCLUSIVE mode with wait, then release it immediately, which is what
// fires blocking ASTs on every shared holder (spec §4.4, §4.6 step 4).
// Concurrent callers on the same database are coalesced through
// singleflight: a round that already asked every peer to refresh since
// it began satisfies every caller waiting on it equally.
func (l *Lock) Snapshot(ctx context.Context) error {
	_, err, _ := l.sf.Do(l.dbName, func() (interface{}, error) {
		handle, err := l.manager.Acquire(ctx, l.dbName, engine.LockExclusive, true, nil)
		if err != nil {
			return nil, err
		}
		return nil, l.manager.Release(handle)
	})
	return err
}

// Deregister releases the shared lock, if held, at attachment teardown.
func (l *Lock) Deregister() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held {
		return nil
	}
	err := l.manager.Release(l.handle)
	l.held = false
	return err
}
