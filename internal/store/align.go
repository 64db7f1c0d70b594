package store

// alignment is the byte boundary every element, and the header itself,
// is rounded up to, mirroring the fixed-width framing server/wal relies
// on for its own record boundaries. Nothing in this package hands out
// unaligned offsets.
const alignment = 8

func alignUp(n int) int {
	rem := n % alignment
	if rem == 0 {
		return n
	}
	return n + (alignment - rem)
}
