package store

import "errors"

// ErrRegionExhausted is returned when ensureSpace needs more room than the
// region can grow to (spec §4.2, §7: RegionExhausted).
var ErrRegionExhausted = errors.New("monitor table exhausted")

// ErrSelfElementMissing means read() was called before this process's own
// element was published via setup()+write() in this round. Spec §9 flags
// the alternative of asserting here as a possible source bug; this
// package returns a diagnostic error instead of panicking.
var ErrSelfElementMissing = errors.New("store: own contribution missing before read")

// ErrCorrupt wraps a malformed element chain discovered while parsing the
// region (spec §7: DecodeError's store-side counterpart).
var ErrCorrupt = errors.New("store: corrupt element chain")
