package keyedlock

import "errors"

// ErrTimeout is returned when a lock could not be acquired within the
// wait bound. Transient; the caller may retry with backoff.
var ErrTimeout = errors.New("lock wait timed out")
