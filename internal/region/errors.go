package region

import "errors"

// ErrMapFailure means the OS could not allocate or attach the mapping,
// or an existing region's on-disk layout version does not match this
// process's (spec §4.1, §7: MapFailure). Fatal for the subsystem.
var ErrMapFailure = errors.New("region: map failure")

// ErrRegionExhausted means growth was needed but the platform could not
// grow the mapping in place (spec §4.1, §7: RegionExhausted). Surfaced to
// callers as "monitor table exhausted".
var ErrRegionExhausted = errors.New("monitor table exhausted")

// ErrMutexCorruption means the embedded cross-process mutex returned an
// unrecoverable error (spec §4.1, §7: MutexCorruption). Callers holding
// this error must log and terminate the process; this package never
// calls os.Exit itself, see Region.Lock's doc comment.
var ErrMutexCorruption = errors.New("region: mutex corruption")
