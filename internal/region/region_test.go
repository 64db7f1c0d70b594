package region

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapFreshStampsHeader(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Dir = dir

	r, err := Map(cfg, "employee")
	require.NoError(t, err)
	defer r.Unmap()

	require.EqualValues(t, RegionTypeDatabaseSnapshot, readUint32(r.Bytes(), offRegionType))
	require.EqualValues(t, MonitorVersion, readUint32(r.Bytes(), offLayoutVersion))
	require.EqualValues(t, headerSize, r.Used())
	require.EqualValues(t, DefaultSize, r.Allocated())
}

func TestMapReattachValidatesVersion(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Dir = dir

	r1, err := Map(cfg, "employee")
	require.NoError(t, err)
	r1.SetUsed(headerSize + 32)
	require.NoError(t, r1.Unmap())

	r2, err := Map(cfg, "employee")
	require.NoError(t, err)
	defer r2.Unmap()
	require.EqualValues(t, headerSize+32, r2.Used())
}

func TestRemapGrowsAndPreservesData(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Dir = dir

	r, err := Map(cfg, "employee")
	require.NoError(t, err)
	defer r.Unmap()

	writeUint32(r.Bytes(), headerSize, 0xdeadbeef)
	require.NoError(t, r.EnsureCapacity(DefaultSize))
	require.Greater(t, int(r.Allocated()), DefaultSize)
	require.EqualValues(t, 0xdeadbeef, readUint32(r.Bytes(), headerSize))
}

func TestLockSerializesAndBumpsGeneration(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Dir = dir

	r, err := Map(cfg, "employee")
	require.NoError(t, err)
	defer r.Unmap()

	before := readUint32(r.Bytes(), offLockGeneration)
	unlock, err := r.Lock(context.Background())
	require.NoError(t, err)
	unlock()
	after := readUint32(r.Bytes(), offLockGeneration)
	require.Equal(t, before+1, after)
}

func TestManagerRefcountsAndRemovesWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Dir = dir
	m := NewManager(cfg)

	r1, err := m.Acquire("employee")
	require.NoError(t, err)
	r2, err := m.Acquire("employee")
	require.NoError(t, err)
	require.Same(t, r1, r2)

	require.NoError(t, m.Release("employee"))
	require.NoError(t, m.Release("employee"))

	r3, err := m.Acquire("employee")
	require.NoError(t, err)
	require.EqualValues(t, headerSize, r3.Used())
	require.NoError(t, m.Release("employee"))
}
