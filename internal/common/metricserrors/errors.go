// Package metricserrors contains the error taxonomy shared by the report pipeline.
//
// ErrTransport is always fatal for the current report. ErrShapeMismatch is recovered locally by the extractor,
// which substitutes an absent value and reports the mismatch; when several occur they are combined into a
// multierror.Error from package github.com/hashicorp/go-multierror. A query that matches nothing is not an error.
package metricserrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrTransport is returned when the document store is unreachable or rejects a query.
type ErrTransport struct {
	// Index the query targeted, if known.
	Index string
	// HTTP status returned by the store, or 0 if no response was received.
	StatusCode int
	// Optional message, e.g., the error reason reported by the store.
	Message string
	// Underlying error, if any.
	Cause error
}

func (err *ErrTransport) Error() (s string) {
	if err.Index != "" {
		s = fmt.Sprintf("query on index %q failed", err.Index)
	} else {
		s = "query failed"
	}
	if err.StatusCode != 0 {
		s = s + fmt.Sprintf(" with status %d", err.StatusCode)
	}
	if err.Message != "" {
		s = s + fmt.Sprintf("; %s", err.Message)
	}
	if err.Cause != nil {
		s = s + fmt.Sprintf(": %s", err.Cause)
	}
	return
}

func (err *ErrTransport) Unwrap() error {
	return err.Cause
}

// ErrShapeMismatch is returned when a document lacks an expected field or the field has an unexpected type.
type ErrShapeMismatch struct {
	DocumentID string // Store id of the offending document
	Field      string // Dotted path of the field, e.g., "steps.bwa.docker_inspect.start_time"
	Reason     string
}

func (err *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("document %q: field %q: %s", err.DocumentID, err.Field, err.Reason)
}

// ErrInvalidArgument is a generic error to be returned on invalid argument.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "windowSize"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message to include with the error message, e.g., explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %q is invalid for field %q", err.Value, err.Name)
	} else {
		return fmt.Sprintf("value %q is invalid for field %q; %s", err.Value, err.Name, err.Message)
	}
}

// IsTransport returns true if err, or any error it wraps, is an *ErrTransport.
func IsTransport(err error) bool {
	var e *ErrTransport
	return errors.As(err, &e)
}

// IsShapeMismatch returns true if err, or any error it wraps, is an *ErrShapeMismatch.
func IsShapeMismatch(err error) bool {
	var e *ErrShapeMismatch
	return errors.As(err, &e)
}
