package snapshot

import (
	"context"

	"github.com/dbengine/dbmonitor/internal/collector"
	"github.com/dbengine/dbmonitor/internal/dump"
	"github.com/dbengine/dbmonitor/internal/engine"
	"github.com/dbengine/dbmonitor/internal/store"
)

// ViewFunc returns this process's current engine state. It is called
// once per publish, immediately before walking it, so the published
// contribution always reflects the state at that instant (spec §4.5).
type ViewFunc func() engine.ProcessView

// Publisher republishes this process's contribution into the shared
// store. It is the single definition of "publish" spec §4.4/§4.6 refer
// to from two call sites: a coordination.Lock's AST callback (a peer
// forced this process to refresh) and SnapshotAssembler's own
// self-publish step (this process is about to read and wants itself
// represented fresh first).
type Publisher struct {
	st      *store.Store
	col     *collector.Collector
	localID engine.LocalID
	view    ViewFunc
}

// NewPublisher returns a Publisher writing through st, using col to walk
// the view returned by view, tagged with localID.
func NewPublisher(st *store.Store, col *collector.Collector, localID engine.LocalID, view ViewFunc) *Publisher {
	return &Publisher{st: st, col: col, localID: localID, view: view}
}

// Publish performs one acquire/cleanup/setup/write/release round. cleanup()
// removes this process's own prior element, if any, before setup()
// appends a fresh one, per the resolution of spec §9's open question:
// every publish round re-establishes this process's own element before
// encoding into it, rather than depending on a prior round having done
// so. Without the cleanup step a long-lived attachment would accumulate
// one stale element per round, violating §3's "at most one contribution
// per (process_id, local_id)" invariant.
func (p *Publisher) Publish(ctx context.Context) error {
	if err := p.st.Acquire(ctx); err != nil {
		return err
	}
	defer p.st.Release()

	if err := p.st.Cleanup(p.st.SelfPID()); err != nil {
		return err
	}

	offset, err := p.st.Setup(p.localID)
	if err != nil {
		return err
	}

	enc := dump.NewEncoder()
	if err := p.col.DumpSelf(enc, p.view()); err != nil {
		return err
	}
	return p.st.Write(offset, enc.Bytes())
}
