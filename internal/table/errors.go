package table

import (
	"errors"
	"fmt"
)

// Errors returned by table and registry operations.
var (
	// ErrNotFound indicates a missing table or column.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a table name is already taken in its scope.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidName indicates a table name outside [A-Za-z0-9_-].
	ErrInvalidName = errors.New("invalid table name")

	// ErrArityMismatch indicates a row whose value count differs from the column count.
	ErrArityMismatch = errors.New("value count does not match column count")

	// ErrOutOfRange indicates a row index outside [1, row count].
	ErrOutOfRange = errors.New("row index out of range")

	// ErrPersistence indicates the storage backend failed to read or write.
	ErrPersistence = errors.New("storage failure")
)

// ArityError reports how many values a row needed.
type ArityError struct {
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("expected %d values, got %d", e.Want, e.Got)
}

// Is makes errors.Is(err, ErrArityMismatch) hold.
func (e *ArityError) Is(target error) bool {
	return target == ErrArityMismatch
}

// RangeError reports a 1-indexed row number that does not exist.
type RangeError struct {
	Index int
	Rows  int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("row %d out of range (table has %d rows)", e.Index, e.Rows)
}

func (e *RangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// ColumnError reports a column name absent from a table.
type ColumnError struct {
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q not found", e.Column)
}

func (e *ColumnError) Is(target error) bool {
	return target == ErrNotFound
}

// TableError reports a table name that is missing, taken, or malformed.
type TableError struct {
	Scope string
	Name  string
	Err   error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("table %q: %v", e.Name, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if err reports a missing table or column.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsColumnNotFound returns true if err reports a missing column specifically.
func IsColumnNotFound(err error) bool {
	var colErr *ColumnError
	return errors.As(err, &colErr)
}
