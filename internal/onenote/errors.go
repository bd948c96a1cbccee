// Package onenote keeps objectives inside OneNote pages: it locates the
// section for a subject, parses page content and builds content patches.
package onenote

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the container, page or node a write refers to does not
	// exist. Reads never return it; a missing container reads as empty.
	ErrNotFound = errors.New("onenote: not found")

	// ErrAmbiguousContainer means more than one notebook, section or page
	// matched where exactly one must exist. It points at corruption in the
	// remote store and is never resolved by picking one.
	ErrAmbiguousContainer = errors.New("onenote: ambiguous container")

	// ErrMissingNodeID means the fetched page lacks the generated node ids
	// that patch targets need.
	ErrMissingNodeID = errors.New("onenote: node has no id")
)

// ShareResolutionError reports a sharing failure separately from the
// operation that triggered it.
type ShareResolutionError struct {
	NotebookID string
	Err        error
}

func (e *ShareResolutionError) Error() string {
	return fmt.Sprintf("onenote: share notebook %s: %v", e.NotebookID, e.Err)
}

func (e *ShareResolutionError) Unwrap() error {
	return e.Err
}
