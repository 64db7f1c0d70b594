package snapshot

import "errors"

// ErrLayoutMismatch means the region header's region_type or
// layout_version does not match what this build expects (spec §9:
// "a version mismatch on attach is fatal for the subsystem — do not
// attempt to migrate in place").
var ErrLayoutMismatch = errors.New("snapshot: region layout mismatch")

// ErrDecodeFailed wraps a truncated or malformed record discovered while
// decoding the store's compacted buffer (spec §7: DecodeError). Decoding
// works on the copy Read returned, so a failed decode leaves the store
// as Read left it and the next round may self-heal.
var ErrDecodeFailed = errors.New("snapshot: decode failed")
