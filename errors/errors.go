// Package errors provides error handling for jcore.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for CLI users
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Classify with a sentinel, keeping the message
//	return errors.Mark(errors.Newf("feature %q undefined", name), errors.ErrUndefinedFeature)
//
//	// Check errors
//	if errors.Is(err, errors.ErrIncompleteRecord) {
//	    // truncated input
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapOnce     = crdb.UnwrapOnce
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// GetStack is an alias for GetReportableStackTrace for convenience.
var GetStack = crdb.GetReportableStackTrace

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors shared by the jcore components.
// Use these with errors.Is(); attach them to a descriptive error with Mark
// or wrap them with Wrap to keep the classification.
var (
	// ErrParse indicates a malformed feature path or replacement file
	ErrParse = New("parse error")

	// ErrUndefinedFeature indicates a feature name unknown to the whole type hierarchy
	ErrUndefinedFeature = New("undefined feature")

	// ErrUnsupportedType indicates a primitive range outside the eight supported kinds,
	// or a replacement requested on a non-primitive value
	ErrUnsupportedType = New("unsupported type")

	// ErrUnsupportedFunction indicates a built-in function other than coveredText() or typeName()
	ErrUnsupportedFunction = New("unsupported built-in function")

	// ErrIncompleteRecord indicates a binary embedding stream that ended mid-record
	ErrIncompleteRecord = New("incomplete record")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// IsConfigurationError reports whether err is one of the fatal configuration
// errors raised while parsing or resolving a feature path.
func IsConfigurationError(err error) bool {
	return err != nil && IsAny(err, ErrParse, ErrUndefinedFeature, ErrUnsupportedType, ErrUnsupportedFunction)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrNotFound)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrInvalidRequest)
}
