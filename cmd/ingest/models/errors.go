package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies ingestion failures. Handlers map kinds to HTTP status.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindUnauthenticated
	KindPermissionDenied
	KindTokenAppMismatch
	KindAppNotFound
	KindConflict
	KindBuildFailure
	KindRateLimited
	KindInfrastructure
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindPermissionDenied:
		return "permission_denied"
	case KindTokenAppMismatch:
		return "token_app_mismatch"
	case KindAppNotFound:
		return "app_not_found"
	case KindConflict:
		return "conflict"
	case KindBuildFailure:
		return "build_failure"
	case KindRateLimited:
		return "rate_limited"
	case KindInfrastructure:
		return "infrastructure"
	default:
		return "unknown"
	}
}

// IngestError is the error type returned by every ingestion stage.
// Message is what the caller sees; Err is the underlying cause, if any.
type IngestError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *IngestError) Error() string {
	return e.Message
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// Is matches another *IngestError of the same kind. A target with a
// message also has to match the message.
func (e *IngestError) Is(target error) bool {
	t, ok := target.(*IngestError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Message == "" || t.Message == e.Message)
}

var (
	ErrNoPayload        = &IngestError{Kind: KindValidation, Message: "not found functions and policies"}
	ErrNameEmpty        = &IngestError{Kind: KindValidation, Message: "name cannot be empty"}
	ErrCodeEmpty        = &IngestError{Kind: KindValidation, Message: "code cannot be empty"}
	ErrUnauthenticated  = &IngestError{Kind: KindUnauthenticated, Message: "Unauthorized"}
	ErrPermissionDenied = &IngestError{Kind: KindPermissionDenied, Message: "Permission Denied"}
	ErrTokenAppMismatch = &IngestError{Kind: KindTokenAppMismatch, Message: "forbidden operation: token is not matching the appid"}
	ErrAppNotFound      = &IngestError{Kind: KindAppNotFound, Message: "app not found"}
	ErrFunctionExists   = &IngestError{Kind: KindConflict, Message: "function name already exists"}
)

// ValidationError builds a 422-class error with a caller-facing reason
func ValidationError(format string, args ...any) *IngestError {
	return &IngestError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// InfrastructureError wraps a storage or capability failure
func InfrastructureError(err error) *IngestError {
	return &IngestError{Kind: KindInfrastructure, Message: err.Error(), Err: err}
}

// KindOf returns the kind of err, or KindInfrastructure for foreign errors
func KindOf(err error) ErrorKind {
	var ie *IngestError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindInfrastructure
}

// Diagnostic is one compiler message
type Diagnostic struct {
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Text     string `json:"text"`
	LineText string `json:"line_text,omitempty"`
}

func (d Diagnostic) String() string {
	if d.File == "" {
		return d.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Text)
}

// BuildError reports source that failed to compile
type BuildError struct {
	Diagnostics []Diagnostic
}

func (e *BuildError) Error() string {
	if len(e.Diagnostics) == 0 {
		return "build failed"
	}
	msg := "build failed: " + e.Diagnostics[0].String()
	if n := len(e.Diagnostics) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return msg
}

// BuildFailure wraps a BuildError as a 422-class ingestion error
func BuildFailure(err *BuildError) *IngestError {
	return &IngestError{Kind: KindBuildFailure, Message: err.Error(), Err: err}
}

// RateLimitError reports an application that used up its deploy window
type RateLimitError struct {
	AppID             string
	Limit             int64
	WindowSeconds     int
	RetryAfterSeconds int64
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("deploy rate limit exceeded for %s, retry in %ds", e.AppID, e.RetryAfterSeconds)
}

// RateLimited wraps a RateLimitError as a 429-class ingestion error
func RateLimited(err *RateLimitError) *IngestError {
	return &IngestError{Kind: KindRateLimited, Message: err.Error(), Err: err}
}
