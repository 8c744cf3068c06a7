package storage

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrWriteNotVisible indicates that an upsert completed without error
	// but the post-write re-read found no row. The write failed silently;
	// callers must surface this, never swallow it.
	ErrWriteNotVisible = errors.New("write not visible on re-read")
)

// ListOptions provides pagination and filtering options for list operations.
type ListOptions struct {
	// Limit is the maximum number of rows to return (default: 10, max: 100).
	Limit int

	// Offset is the number of rows to skip.
	Offset int

	// Since filters to rows created at or after this time.
	// Zero value means no lower bound.
	Since time.Time

	// EventID filters items to those assigned to the given event.
	// Zero means no event filter. Ignored for event listings.
	EventID int64
}

// Normalize applies defaults and clamps the options to sane bounds.
func (o *ListOptions) Normalize() {
	if o.Limit < 1 {
		o.Limit = 10
	}
	if o.Limit > 100 {
		o.Limit = 100
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}
