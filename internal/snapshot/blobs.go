package snapshot

import (
	"sync"

	"github.com/dbengine/dbmonitor/internal/engine"
)

// blobOwner is the small handle table spec §4.6/§9 calls for: any blob
// materialized while transferring a row must be detached from the
// request that produced it and reattached to the snapshot's owning
// transaction, so the row stays readable for the transaction's lifetime.
// Detaching is a plain map delete-then-insert; the engine's real blob
// ownership object lives outside this subsystem and is only ever touched
// through the narrow engine.BlobHandle port.
type blobOwner struct {
	mu    sync.Mutex
	owner map[engine.BlobHandle]int64
}

func newBlobOwner() *blobOwner {
	return &blobOwner{owner: make(map[engine.BlobHandle]int64)}
}

// reparent detaches h from whatever currently owns it and reattaches it
// to txnID, recording the new ownership.
func (b *blobOwner) reparent(h engine.BlobHandle, txnID int64) error {
	if err := h.Detach(); err != nil {
		return err
	}
	if err := h.ReattachTo(txnID); err != nil {
		return err
	}
	b.mu.Lock()
	delete(b.owner, h)
	b.owner[h] = txnID
	b.mu.Unlock()
	return nil
}

// ownerOf reports which transaction currently owns h, if any.
func (b *blobOwner) ownerOf(h engine.BlobHandle) (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	txnID, ok := b.owner[h]
	return txnID, ok
}
