// ABOUTME: Error taxonomy for the vector index
// ABOUTME: Sentinel and typed errors for duplicate ids, dimension mismatch, and degenerate vectors
package index

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateID is returned when inserting a record id already present.
	ErrDuplicateID = errors.New("record id already present in index")

	// ErrNotFound is returned when removing a record id that is absent.
	ErrNotFound = errors.New("record id not found in index")

	// ErrDegenerateVector is returned for zero-norm vectors. Embedding
	// providers never emit a zero vector for non-empty text, so this is a
	// data integrity error rather than a similarity of zero.
	ErrDegenerateVector = errors.New("degenerate zero-norm vector")

	// ErrInvalidK is returned when search is asked for fewer than one result.
	ErrInvalidK = errors.New("k must be at least 1")
)

// DimensionError reports a vector whose length does not match the index
// dimensionality. Mixing dimensionalities is a fatal consistency error.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch: index holds %d-dimensional vectors, got %d", e.Want, e.Got)
}
