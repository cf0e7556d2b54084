package metadata

import (
	"errors"
	"fmt"
)

var (
	// ErrNilElement is returned when a handle is requested for a nil element.
	ErrNilElement = errors.New("nil metadata element")

	// ErrHandleTooDeep is returned when an element's parent chain is longer
	// than any valid tree allows, which means the chain loops.
	ErrHandleTooDeep = errors.New("metadata element parent chain too deep")

	// ErrMalformedHandle is returned when a handle's path cannot describe any
	// element, as opposed to describing an element that is simply absent.
	ErrMalformedHandle = errors.New("malformed metadata handle")
)

// FatalError reports a failed mandatory metadata query. The tree being
// built is unusable and the error must be surfaced to the caller.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// DegradedError reports a failed best-effort query. The affected part of the
// tree is left empty and the rest stays usable.
type DegradedError struct {
	Op  string
	Err error
}

func (e *DegradedError) Error() string {
	return fmt.Sprintf("%s (degraded): %v", e.Op, e.Err)
}

func (e *DegradedError) Unwrap() error { return e.Err }
