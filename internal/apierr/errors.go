// Package apierr implements the error taxonomy from spec.md §7, following
// the teacher's split between sentinel errors for programmatic checks
// (internal/model/errors.go in termfx/morfx) and a structured, JSON-able
// error type for surfaced failures (internal/core/errorfmt.go).
package apierr

import (
	"encoding/json"
	"errors"
)

// Code is a machine-readable error identifier, carried on every surfaced
// failure so callers (and downstream JSON consumers) never have to parse
// human prose to branch on failure kind.
type Code string

const (
	CodePathNotFound        Code = "ERR_PATH_NOT_FOUND"
	CodeManifestParseError  Code = "ERR_MANIFEST_PARSE"
	CodeFileReadError       Code = "ERR_FILE_READ"
	CodeDependencyLoadError Code = "ERR_DEPENDENCY_LOAD"
	CodeHelperUnavailable   Code = "ERR_HELPER_UNAVAILABLE"
	CodeHelperProtocolError Code = "ERR_HELPER_PROTOCOL"
	CodeCancelled           Code = "ERR_CANCELLED"
	CodeInternalError       Code = "ERR_INTERNAL"
)

// Sentinel errors for the recoverable half of the taxonomy, checked with
// errors.Is at call sites that want to decide whether to continue.
var (
	ErrFileRead       = errors.New("file read error")
	ErrManifestParse  = errors.New("manifest parse error")
	ErrDependencyLoad = errors.New("dependency load error")
	ErrHelperProtocol = errors.New("helper protocol error")
)

// ExtractionError is returned for the four §7 failure kinds that surface to
// the caller rather than being recovered locally: PathNotFound, Cancelled,
// HelperUnavailable, InternalError.
type ExtractionError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e *ExtractionError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// JSON renders the error as the machine-readable payload described in §7
// ("no stack traces leak through the public JSON surface").
func (e *ExtractionError) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New builds an ExtractionError with no wrapped cause.
func New(code Code, message string) *ExtractionError {
	return &ExtractionError{Code: code, Message: message}
}

// Wrap builds an ExtractionError carrying the wrapped error's message as
// Detail, never the wrapped error itself (so a backtrace never round-trips
// through JSON).
func Wrap(code Code, message string, cause error) *ExtractionError {
	if cause == nil {
		return New(code, message)
	}
	return &ExtractionError{Code: code, Message: message, Detail: cause.Error()}
}

// PathNotFound builds the §7 PathNotFound failure for a missing root path.
func PathNotFound(path string) *ExtractionError {
	return New(CodePathNotFound, "root path does not exist: "+path)
}

// Cancelled builds the §7 Cancelled failure for cooperative cancellation.
func Cancelled() *ExtractionError {
	return New(CodeCancelled, "operation cancelled")
}

// HelperUnavailable builds the §7 HelperUnavailable failure, carrying the
// human-readable reason the external helper could not be used.
func HelperUnavailable(reason string) *ExtractionError {
	return New(CodeHelperUnavailable, "usage helper unavailable: "+reason)
}

// Internal builds the §7 InternalError failure for a truly unexpected
// condition, e.g. a panic recovered at a pipeline boundary.
func Internal(message string) *ExtractionError {
	return New(CodeInternalError, message)
}
