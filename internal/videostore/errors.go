package videostore

import "errors"

var (
	// ErrNotFound indicates the addressed record or aggregate does not exist.
	ErrNotFound = errors.New("video record not found")
	// ErrVersionConflict indicates a week aggregate changed between read and write
	// and the compare-and-swap retries were exhausted.
	ErrVersionConflict = errors.New("week aggregate version conflict")
)
