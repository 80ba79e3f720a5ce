package core

// errors.go defines the run error taxonomy.
//
// Run-fatal errors (ReadError, MissingColumnError) are returned from
// Processor.Run. Per-record errors (SendError, WriteError) are absorbed by the
// run loop and reported in RunResult.Failures.

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyTable is wrapped by a ReadError when the store has no header row.
var ErrEmptyTable = errors.New("table has no header row")

// ErrRunInProgress is returned when another run holds the run guard.
var ErrRunInProgress = errors.New("run already in progress")

// ReadError reports that the table could not be read.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return "read table: " + e.Err.Error()
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// WriteError reports that a single cell could not be written.
type WriteError struct {
	Row    int
	Column int
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write cell row %d column %d: %v", e.Row, e.Column, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// SendError reports that a notification was not accepted by the transport.
type SendError struct {
	Recipient string
	Err       error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send to %s: %v", e.Recipient, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// MissingColumnError lists required headers that were not found.
type MissingColumnError struct {
	Missing []string
}

func (e *MissingColumnError) Error() string {
	return "missing required column: " + strings.Join(e.Missing, ", ")
}

// IsRunFatal reports whether err aborts a whole run rather than one record.
func IsRunFatal(err error) bool {
	var re *ReadError
	var me *MissingColumnError
	return errors.As(err, &re) || errors.As(err, &me)
}
