// ABOUTME: Sentinel and typed errors for the audit package
// ABOUTME: User-input errors surface cleanly; introspection failures never propagate

package audit

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for audit operations.
var (
	// ErrNoInstances is returned when no live tracked instances exist.
	// It marks an informational outcome, not a fault.
	ErrNoInstances = errors.New("audit: no live instances of the tracked type")

	// ErrIndexOutOfRange is returned when an operator-supplied instance
	// index does not address the current enumeration.
	ErrIndexOutOfRange = errors.New("audit: instance index out of range")
)

// IndexError reports an out-of-range instance index together with the
// valid range at the time of the enumeration.
type IndexError struct {
	Index int
	Max   int
}

// Error returns the error string.
func (e *IndexError) Error() string {
	return fmt.Sprintf("audit: index %d out of range (0..%d)", e.Index, e.Max)
}

// Is reports whether the target matches ErrIndexOutOfRange.
// This allows errors.Is(err, ErrIndexOutOfRange) to return true.
func (e *IndexError) Is(err error) bool {
	return err == ErrIndexOutOfRange
}
