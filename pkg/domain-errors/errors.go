// Package domainerrors provides the coded error type used across the registry.
//
// Every failure a caller can act on carries a Code. Services construct these
// directly for validation and authorization failures, and wrap store errors so
// infrastructure detail never leaks past the service boundary. Transport maps
// codes onto HTTP statuses with ToHTTPStatus.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a registry failure. Codes are stable API: they appear in
// HTTP error envelopes and in audit reasons.
type Code string

const (
	// CodeDuplicateRegistration rejects re-adding an existing collaborator.
	CodeDuplicateRegistration Code = "duplicate_registration"
	// CodeUnauthorized rejects callers lacking ownership or a granted capability.
	CodeUnauthorized Code = "unauthorized"
	// CodeInvalidParameter rejects non-positive area or CO2 figures.
	CodeInvalidParameter Code = "invalid_parameter"
	// CodeNotFound reports a missing project, collaborator, or history entry.
	CodeNotFound Code = "not_found"
	// CodeInvalidStatus rejects a status write equal to the current status.
	CodeInvalidStatus Code = "invalid_status"
	// CodeTagLimitExceeded rejects registrations with more than the tag cap.
	CodeTagLimitExceeded Code = "tag_limit_exceeded"
	// CodePaused rejects registrations while the registry is paused.
	CodePaused Code = "registry_paused"
	// CodeInvalidHash rejects document digests that are not exactly 32 bytes.
	CodeInvalidHash Code = "invalid_hash"
	// CodeInvalidOwner rejects transferring a project to its current owner.
	CodeInvalidOwner Code = "invalid_owner"
	// CodeInvalidLength rejects strings exceeding their field cap.
	CodeInvalidLength Code = "invalid_length"

	// CodeValidation covers malformed transport-level input.
	CodeValidation Code = "validation"
	// CodeInternal covers unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error is a coded registry error. It optionally wraps a cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. A nil cause yields
// nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.Code == code {
			return true
		}
		err = e.cause
		if err == nil {
			break
		}
	}
	return false
}

// CodeOf returns the outermost code on err, or CodeInternal when err carries
// no code at all.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the HTTP status the transport layer serves.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeDuplicateRegistration:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodePaused:
		return http.StatusServiceUnavailable
	case CodeInvalidParameter, CodeInvalidStatus, CodeTagLimitExceeded,
		CodeInvalidHash, CodeInvalidOwner, CodeInvalidLength, CodeValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
