package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/stgov/internal/ir"
)

// Error is a typed failure reported synchronously to the caller of a
// governance operation.
//
// Every rejected operation carries exactly one Code. Infrastructure failures
// (SQLite, I/O) are not Errors; they are wrapped with fmt.Errorf and surface
// unchanged.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// OriginID identifies the affected lineage, if any.
	OriginID string
}

// ErrorCode categorizes governance errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the referenced lineage does not exist or is deleted.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeNotPending indicates approve/reject was attempted outside Pending.
	ErrCodeNotPending ErrorCode = "NOT_PENDING"

	// ErrCodeNotApproved indicates link or rejectApproved was attempted outside Approved.
	ErrCodeNotApproved ErrorCode = "NOT_APPROVED"

	// ErrCodeUnauthorized indicates the caller lacks the required capability.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// ErrCodeInvalidInput indicates malformed input: empty name, bad tag, unknown kind.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrCodeConflict indicates an update was based on a stale revision.
	ErrCodeConflict ErrorCode = "CONFLICT"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.OriginID != "" {
		return fmt.Sprintf("%s: %s (origin=%s)", e.Code, e.Message, e.OriginID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the Code of err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotFound returns true if err is a NOT_FOUND error.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsNotPending returns true if err is a NOT_PENDING error.
func IsNotPending(err error) bool { return CodeOf(err) == ErrCodeNotPending }

// IsNotApproved returns true if err is a NOT_APPROVED error.
func IsNotApproved(err error) bool { return CodeOf(err) == ErrCodeNotApproved }

// IsUnauthorized returns true if err is an UNAUTHORIZED error.
func IsUnauthorized(err error) bool { return CodeOf(err) == ErrCodeUnauthorized }

// IsInvalidInput returns true if err is an INVALID_INPUT error.
func IsInvalidInput(err error) bool { return CodeOf(err) == ErrCodeInvalidInput }

// IsConflict returns true if err is a CONFLICT error.
func IsConflict(err error) bool { return CodeOf(err) == ErrCodeConflict }

// NewNotFoundError creates an Error for an unknown or deleted lineage.
func NewNotFoundError(originID string) *Error {
	return &Error{
		Code:     ErrCodeNotFound,
		Message:  "service type not found",
		OriginID: originID,
	}
}

// NewNotPendingError creates an Error for a transition that requires Pending.
func NewNotPendingError(originID string, current ir.Status) *Error {
	return &Error{
		Code:     ErrCodeNotPending,
		Message:  fmt.Sprintf("service type is %s, not pending", current),
		OriginID: originID,
	}
}

// NewNotApprovedError creates an Error for an operation that requires Approved.
func NewNotApprovedError(originID string, current ir.Status) *Error {
	return &Error{
		Code:     ErrCodeNotApproved,
		Message:  fmt.Sprintf("service type is %s, not approved", current),
		OriginID: originID,
	}
}

// NewUnauthorizedError creates an Error for a failed capability check.
func NewUnauthorizedError(message string) *Error {
	return &Error{
		Code:    ErrCodeUnauthorized,
		Message: message,
	}
}

// NewInvalidInputError creates an Error for malformed input.
func NewInvalidInputError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidInput,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewConflictError creates an Error for a stale expected revision.
func NewConflictError(originID, expected, current string) *Error {
	return &Error{
		Code:     ErrCodeConflict,
		Message:  fmt.Sprintf("expected revision %s but current is %s", expected, current),
		OriginID: originID,
	}
}
