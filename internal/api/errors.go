package api

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Error kinds. Every *Error matches exactly one of these with errors.Is.
var (
	// ErrTransport indicates a non-2xx response or a network failure.
	ErrTransport = errors.New("transport error")
	// ErrParse indicates a response body that is not valid JSON.
	ErrParse = errors.New("parse error")
	// ErrConfiguration indicates missing server settings or an empty target list.
	ErrConfiguration = errors.New("configuration error")
	// ErrSelection indicates the user did not pick a valid target.
	ErrSelection = errors.New("selection error")
	// ErrSubmission indicates the check response carried no result link.
	ErrSubmission = errors.New("submission error")
	// ErrTimeout indicates the poll budget was exhausted before a result arrived.
	ErrTimeout = errors.New("timeout error")
	// ErrCanceled indicates the caller abandoned the workflow.
	ErrCanceled = errors.New("check canceled")
)

// Error describes a failed step of the check workflow.
type Error struct {
	Kind   error  // One of the Err* kinds above
	Op     string // Workflow step, e.g. "capabilities", "submit", "poll"
	URL    string // Request URL (optional)
	Status int    // HTTP status code (0 when no response)
	Body   string // Raw response body (optional, truncated in Error())
	Err    error  // Underlying cause (optional)
}

// maxBodyInMessage bounds how many runes of a response body end up in Error().
const maxBodyInMessage = 200

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	sb.WriteString(": ")
	sb.WriteString(e.Kind.Error())
	if e.Status != 0 {
		sb.WriteString(fmt.Sprintf(" (HTTP %d)", e.Status))
	}
	if e.URL != "" {
		sb.WriteString(" ")
		sb.WriteString(e.URL)
	}
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	if e.Body != "" && !e.causePrintsBody() {
		body := e.Body
		if utf8.RuneCountInString(body) > maxBodyInMessage {
			body = string([]rune(body)[:maxBodyInMessage]) + "..."
		}
		sb.WriteString(fmt.Sprintf(" (body: %s)", body))
	}
	return sb.String()
}

// causePrintsBody reports whether a wrapped *Error already shows Body.
func (e *Error) causePrintsBody() bool {
	var inner *Error
	return errors.As(e.Err, &inner) && inner.Body == e.Body
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// Errorf builds an *Error of the given kind with a formatted cause.
func Errorf(kind error, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap builds an *Error of the given kind around err.
// If err already is an *Error, its URL, Status and Body are carried over
// and the inner kind stays reachable through errors.Is.
func Wrap(kind error, op string, err error) *Error {
	out := &Error{Kind: kind, Op: op, Err: err}
	var inner *Error
	if errors.As(err, &inner) {
		out.URL = inner.URL
		out.Status = inner.Status
		out.Body = inner.Body
	}
	return out
}

// IsFatal reports whether err aborts the current check.
// Parse errors are the only recoverable kind: pollers treat them as "not ready".
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind != ErrParse
	}
	return true
}
