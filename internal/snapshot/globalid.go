package snapshot

import "github.com/google/btree"

// globalIDItem is one entry of the per-snapshot global_id -> local_id
// collapse table, ordered by the 64-bit global id (spec §4.6 step 6,
// §8 scenario 6). Grounded on server/mvcc/key_index.go's use of
// github.com/google/btree as the ordered index of choice.
type globalIDItem struct {
	global int64
	local  int32
}

func (i globalIDItem) Less(than btree.Item) bool {
	return i.global < than.(globalIDItem).global
}

// globalIDTable collapses cross-process 64-bit GLOBAL_IDs into dense
// 32-bit local ids, allocated in first-seen order starting at 1. Not
// safe for concurrent use; one table is scoped to one SnapshotAssembler
// run.
type globalIDTable struct {
	tree *btree.BTree
	next int32
}

func newGlobalIDTable() *globalIDTable {
	return &globalIDTable{tree: btree.New(32)}
}

// localID returns the local id for global, allocating a fresh one on
// first sight.
func (t *globalIDTable) localID(global int64) int32 {
	if found := t.tree.Get(globalIDItem{global: global}); found != nil {
		return found.(globalIDItem).local
	}
	t.next++
	item := globalIDItem{global: global, local: t.next}
	t.tree.ReplaceOrInsert(item)
	return t.next
}
