package snapshot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbengine/dbmonitor/internal/engine"
)

func TestBlobOwnerReparentsAndRecordsOwnership(t *testing.T) {
	b := newBlobOwner()
	h := &engine.FakeBlobHandle{}

	require.NoError(t, b.reparent(h, 77))
	require.True(t, h.Detached)
	require.EqualValues(t, 77, h.Owner)

	owner, ok := b.ownerOf(h)
	require.True(t, ok)
	require.EqualValues(t, 77, owner)
}

func TestAssemblerReparentBlobUsesOwningTransaction(t *testing.T) {
	a := &Assembler{txnID: 55, blobs: newBlobOwner()}
	h := &engine.FakeBlobHandle{}

	require.NoError(t, a.ReparentBlob(h))
	require.EqualValues(t, 55, h.Owner)
}
