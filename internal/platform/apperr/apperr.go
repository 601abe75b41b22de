// Package apperr defines the error kinds shared by the clinical services and
// how each one is reported to the operator.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoCurrentTriage marks a decision-tree request for a patient that has not
// been triaged yet.
var ErrNoCurrentTriage = errors.New("no current triage record")

// RangeError reports a numeric input outside its valid range. The caller
// should ask for the value again.
type RangeError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: value %d outside valid range (%d-%d)", e.Field, e.Value, e.Min, e.Max)
}

// FormatError reports input that could not be parsed at all.
type FormatError struct {
	Field    string
	Input    string
	Expected string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: invalid input %q, expected %s", e.Field, e.Input, e.Expected)
}

// NotFoundError reports an unknown patient, staff member or catalog entry.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// AccessDenied reports an operation attempted by a session lacking the
// required capability.
type AccessDenied struct {
	Operation string
	Role      string
}

func (e *AccessDenied) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("access denied: %s", e.Operation)
	}
	return fmt.Sprintf("access denied: role %s may not %s", e.Role, e.Operation)
}

// InvariantViolation signals a caller-contract breach. It aborts the
// enclosing operation and is never shown to the operator verbatim, except
// for ErrNoCurrentTriage.
type InvariantViolation struct {
	Reason string
	Cause  error
}

func (e *InvariantViolation) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invariant violation: %s: %v", e.Reason, e.Cause)
	}
	return "invariant violation: " + e.Reason
}

func (e *InvariantViolation) Unwrap() error { return e.Cause }

func Range(field string, value, min, max int) error {
	return &RangeError{Field: field, Value: value, Min: min, Max: max}
}

func Format(field, input, expected string) error {
	return &FormatError{Field: field, Input: input, Expected: expected}
}

// SingleLine rejects free text that would span several history lines.
func SingleLine(field, input string) error {
	if strings.ContainsAny(input, "\r\n") {
		return &FormatError{Field: field, Input: input, Expected: "a single line of text"}
	}
	return nil
}

func NotFound(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}

func Denied(operation, role string) error {
	return &AccessDenied{Operation: operation, Role: role}
}

func Invariant(format string, args ...any) error {
	return &InvariantViolation{Reason: fmt.Sprintf(format, args...)}
}

// NoCurrentTriage is returned when the decision tree is invoked for a patient
// without a current triage record.
func NoCurrentTriage(patientID string) error {
	return &InvariantViolation{Reason: "patient " + patientID, Cause: ErrNoCurrentTriage}
}

// IsNotFound reports whether err, or any error it wraps, is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsInvariant reports whether err is an InvariantViolation.
func IsInvariant(err error) bool {
	var iv *InvariantViolation
	return errors.As(err, &iv)
}

// Surfaced reports whether the message of err may be shown to the operator.
// Only range, format, not-found and access errors qualify.
func Surfaced(err error) bool {
	var (
		re *RangeError
		fe *FormatError
		nf *NotFoundError
		ad *AccessDenied
	)
	if IsInvariant(err) {
		return errors.Is(err, ErrNoCurrentTriage)
	}
	return errors.As(err, &re) || errors.As(err, &fe) || errors.As(err, &nf) || errors.As(err, &ad)
}
