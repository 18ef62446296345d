// internal/ingest/errors.go
package ingest

import (
	"errors"
	"fmt"

	"eventgate/internal/schema"
)

// Batch-level denials. Authorization runs before any event is processed, so
// each of these rejects the whole request.
var (
	ErrUnknownApp           = errors.New("unknown app")
	ErrInvalidSecret        = errors.New("invalid secret key")
	ErrUnknownTable         = errors.New("unknown table")
	ErrTableNotPermitted    = errors.New("table not permitted for this app")
	ErrMissingTableSelector = errors.New("event has no table selector")
)

// MissingRequiredFieldError is a per-event failure: a required column had no
// value, either in the event body or in the named request header.
type MissingRequiredFieldError struct {
	Table  string
	Column string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("required field %q was omitted", e.Column)
}

// TypeMismatchError is a per-event failure: a body value did not match the
// column's declared type. The value is rejected, never truncated or rounded.
type TypeMismatchError struct {
	Table    string
	Column   string
	Expected schema.ColumnType
	Got      string
	Reason   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Column, e.Reason)
}

// UnknownFieldError is a per-event failure: the event carried a key that maps
// onto no body-sourced column of its table. Rejecting these catches
// client-side schema drift early instead of silently dropping data.
type UnknownFieldError struct {
	Table string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q for table %q", e.Field, e.Table)
}
