package dump

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTripRecords(t *testing.T) {
	enc := NewEncoder()

	enc.BeginRecord(1)
	enc.WriteString(10, "db1")
	enc.WriteInteger(11, 42)
	enc.EndRecord()

	enc.BeginRecord(2)
	enc.WriteGlobalID(20, 0x00000BB800000001)
	var ts [8]byte
	ts[7] = 9
	enc.WriteTimestamp(21, ts)
	enc.EndRecord()

	dec := NewDecoder(enc.Bytes())

	rel, ok, err := dec.NextRecord()
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 1, rel)

	f, ok, err := dec.NextField()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, TypeString, f.Type)
	require.Equal(t, "db1", f.Text())

	f, ok, err = dec.NextField()
	require.NoError(t, err)
	require.True(t, ok)
	v, err := f.Int64()
	require.NoError(t, err)
	require.EqualValues(t, 42, v)

	_, ok, err = dec.NextField()
	require.NoError(t, err)
	require.False(t, ok)

	rel, ok, err = dec.NextRecord()
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 2, rel)

	f, ok, err = dec.NextField()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, TypeGlobalID, f.Type)
	v, err = f.Int64()
	require.NoError(t, err)
	require.EqualValues(t, 0x00000BB800000001, v)

	require.NoError(t, dec.SkipRecord())

	_, ok, err = dec.NextRecord()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDecoderTruncatedRecordFails(t *testing.T) {
	enc := NewEncoder()
	enc.BeginRecord(1)
	enc.WriteString(10, "hello")
	buf := enc.Bytes()
	// cut the payload short without an end marker.
	dec := NewDecoder(buf[:len(buf)-2])
	_, ok, err := dec.NextRecord()
	require.NoError(t, err)
	require.True(t, ok)
	_, _, err = dec.NextField()
	require.ErrorIs(t, err, ErrTruncated)
}

func TestDecoderTolerratesTrailingPadding(t *testing.T) {
	enc := NewEncoder()
	enc.BeginRecord(7)
	enc.WriteInteger(1, 5)
	enc.EndRecord()
	padded := append(append([]byte{}, enc.Bytes()...), make([]byte, 6)...)

	dec := NewDecoder(padded)
	rel, ok, err := dec.NextRecord()
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 7, rel)
	require.NoError(t, dec.SkipRecord())

	_, ok, err = dec.NextRecord()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMultipleRecordsConcatenateWithoutSeparator(t *testing.T) {
	enc := NewEncoder()
	for i := uint32(1); i <= 5; i++ {
		enc.BeginRecord(i)
		enc.WriteInteger(1, int64(i)*10)
		enc.EndRecord()
	}
	dec := NewDecoder(enc.Bytes())
	for i := uint32(1); i <= 5; i++ {
		rel, ok, err := dec.NextRecord()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, i, rel)
		f, ok, err := dec.NextField()
		require.NoError(t, err)
		require.True(t, ok)
		v, err := f.Int64()
		require.NoError(t, err)
		require.EqualValues(t, i*10, v)
		_, ok, err = dec.NextField()
		require.NoError(t, err)
		require.False(t, ok)
	}
	_, ok, err := dec.NextRecord()
	require.NoError(t, err)
	require.False(t, ok)
}
