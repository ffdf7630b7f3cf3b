package sqlwith

import (
	"errors"
	"fmt"
	"reflect"
)

// Standard sentinel errors for row decoding.
var (
	// ErrColumnNotFound is returned when a row has no column with the requested name.
	ErrColumnNotFound = errors.New("sqlwith: column not found")

	// ErrDecode is returned when a column value cannot be converted to the
	// destination type.
	ErrDecode = errors.New("sqlwith: decode failed")

	// ErrColumnIndexOutOfRange is returned when a column position is outside the row.
	ErrColumnIndexOutOfRange = errors.New("sqlwith: column index out of range")
)

// ColumnNotFoundError represents a lookup of a column the row does not have.
type ColumnNotFoundError struct {
	column string
}

// Error returns the error string.
func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("sqlwith: column %q not found", e.column)
}

// Is reports whether the target error matches ColumnNotFoundError.
// This allows errors.Is(err, ErrColumnNotFound) to return true.
func (e *ColumnNotFoundError) Is(err error) bool {
	return err == ErrColumnNotFound
}

// Column returns the name that was looked up.
func (e *ColumnNotFoundError) Column() string {
	return e.column
}

// NewColumnNotFoundError returns a new ColumnNotFoundError for the given column.
func NewColumnNotFoundError(column string) *ColumnNotFoundError {
	return &ColumnNotFoundError{column: column}
}

// IsColumnNotFound returns true if the error is a ColumnNotFoundError.
func IsColumnNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *ColumnNotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrColumnNotFound)
}

// DecodeError represents a column value that could not be converted into
// the destination type.
type DecodeError struct {
	Column string
	Type   reflect.Type
	Value  any
	Cause  error
}

// Error returns the error string.
func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("sqlwith: decode column %q", e.Column)
	if e.Type != nil {
		msg += fmt.Sprintf(" into %s", e.Type)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches DecodeError.
func (e *DecodeError) Is(err error) bool {
	return err == ErrDecode
}

// IsDecodeError returns true if the error is a DecodeError.
func IsDecodeError(err error) bool {
	if err == nil {
		return false
	}
	var e *DecodeError
	return errors.As(err, &e)
}

// UnexpectedNullError is returned when a NULL value is decoded into a type
// that cannot represent it. Use a pointer, a sql.Null type or any other
// sql.Scanner for nullable columns.
type UnexpectedNullError struct {
	Column string
	Type   reflect.Type
}

// Error returns the error string.
func (e *UnexpectedNullError) Error() string {
	return fmt.Sprintf("sqlwith: column %q is NULL, cannot decode into %s", e.Column, e.Type)
}

// Is reports whether the target error matches UnexpectedNullError.
// NULL values are a decode failure, so errors.Is(err, ErrDecode) holds too.
func (e *UnexpectedNullError) Is(err error) bool {
	return err == ErrDecode
}

// IsUnexpectedNull returns true if the error is an UnexpectedNullError.
func IsUnexpectedNull(err error) bool {
	if err == nil {
		return false
	}
	var e *UnexpectedNullError
	return errors.As(err, &e)
}
