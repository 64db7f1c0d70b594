package coordination

import "errors"

// ErrNotRegistered is returned by operations that require Register to
// have been called first.
var ErrNotRegistered = errors.New("coordination: lock not registered")
