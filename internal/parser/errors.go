package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRow is wrapped by every row-level ParseError.
	ErrMalformedRow = errors.New("malformed row")

	// ErrTooFewSamples is returned when a trajectory cannot support interpolation.
	ErrTooFewSamples = errors.New("trajectory needs at least 2 samples")

	// ErrEmptyLog is returned when a capture log holds no entries.
	ErrEmptyLog = errors.New("capture log has no entries")

	// ErrUnsupportedUnit is returned when trajectory coordinates are not in metres.
	// Offsets are millimetres and are scaled by 1/1000 before being applied.
	ErrUnsupportedUnit = errors.New("trajectory coordinates must be in metres")
)

// ParseError reports why a source file could not be turned into a table.
// Any ParseError is fatal for the run: no partial table is returned.
type ParseError struct {
	File   string
	Line   int // 1-based, 0 when the error concerns the whole file
	Column int // 0-based, -1 when not tied to a column
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := e.File
	if e.Line > 0 {
		msg = fmt.Sprintf("%s:%d", msg, e.Line)
	}
	if e.Column >= 0 {
		msg = fmt.Sprintf("%s column %d", msg, e.Column)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func rowError(file string, line, column int, reason string, cause error) *ParseError {
	err := ErrMalformedRow
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrMalformedRow, cause)
	}
	return &ParseError{File: file, Line: line, Column: column, Reason: reason, Err: err}
}

// IDExtractionError reports an image filename that carries no usable identifier.
// It only excludes that image from the batch.
type IDExtractionError struct {
	Filename string
	Reason   string
	Err      error
}

func (e *IDExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot extract image id from %q: %s: %v", e.Filename, e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot extract image id from %q: %s", e.Filename, e.Reason)
}

func (e *IDExtractionError) Unwrap() error {
	return e.Err
}
