package storage

import "errors"

// ErrIoError wraps any failure bubbled up from the host filesystem. Callers
// that need to distinguish I/O failures from logic errors should use
// errors.Is against this sentinel.
var ErrIoError = errors.New("storage: io error")
