package core

import (
	"errors"
	"fmt"
)

// Validation errors. Each one means the request produced no output file and
// the caller should correct its input and retry.
var (
	ErrNoFile                = errors.New("no file provided")
	ErrFileTooLarge          = errors.New("file too large")
	ErrInvalidForm           = errors.New("invalid form")
	ErrEmptyInput            = errors.New("empty file")
	ErrMissingHeader         = errors.New("missing header row")
	ErrMissingColumnSelector = errors.New("missing column selector")
	ErrInvalidColumnLetter   = errors.New("invalid column letter")
	ErrColumnOutOfRange      = errors.New("column out of range")
	ErrNoValidContacts       = errors.New("no valid contacts")
	ErrMissingAPIKey         = errors.New("missing api key")
)

// Internal errors. The payload could not be processed at all.
var (
	ErrEncoding     = errors.New("encoding error")
	ErrMalformedCSV = errors.New("invalid csv")
	ErrNoGenerator  = errors.New("ai drafting requested but no generator is configured")
)

// InvalidColumnError reports a column selector that is not a single letter.
type InvalidColumnError struct {
	Field string // email, first name or company
	Value string
}

func (e *InvalidColumnError) Error() string {
	return fmt.Sprintf("%s: %s column %q must be a single letter A-Z", ErrInvalidColumnLetter, e.Field, e.Value)
}

func (e *InvalidColumnError) Unwrap() error {
	return ErrInvalidColumnLetter
}

// ColumnRangeError reports a column selector pointing past the header width.
type ColumnRangeError struct {
	Field string
	Index int
	Width int // number of columns in the header row
}

func (e *ColumnRangeError) Error() string {
	return fmt.Sprintf("%s: %s column index %d but CSV has only %d columns", ErrColumnOutOfRange, e.Field, e.Index, e.Width)
}

func (e *ColumnRangeError) Unwrap() error {
	return ErrColumnOutOfRange
}
