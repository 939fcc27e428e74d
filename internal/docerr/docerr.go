// Package docerr defines the error taxonomy shared by every core component.
// Each error carries a stable machine-readable code alongside a human
// message, so the protocol layer can branch on kind without string matching.
package docerr

import (
	"errors"
	"fmt"
)

// Error codes. These are part of the external contract and must not change.
const (
	ENOTFOUND          = "not_found"
	EMANIFEST          = "manifest_parse_error"
	EUNRESOLVED        = "unresolved_dependency" // non-fatal, degrades the result
	EBUILDFAILED       = "build_failed"
	EMISSINGCOMPONENT  = "missing_component"
	EUNSUPPORTEDSCHEMA = "unsupported_schema_version"
	EAMBIGUOUS         = "ambiguous_path" // informational, resolved deterministically
	ECANCELLED         = "cancelled"
	ECYCLE             = "structural_graph_error"
	EINTERNAL          = "internal"
)

// Error is a code-carrying error. Message is safe to surface to callers;
// Hint, when set, tells the caller how to remediate (e.g. which component
// to install).
type Error struct {
	Code    string
	Message string
	Hint    string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf returns a new Error with the given code and formatted message.
func Errorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithHint returns a copy of e carrying a remediation hint.
func (e *Error) WithHint(format string, args ...any) *Error {
	clone := *e
	clone.Hint = fmt.Sprintf(format, args...)
	return &clone
}

// Code extracts the error code from any error in the chain.
// Returns EINTERNAL for non-nil errors without a code, "" for nil.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// Message extracts the human-readable message from an error chain.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// Hint extracts the remediation hint, if any.
func Hint(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Hint
	}
	return ""
}
