// Package errors is the single import for error handling: chain inspection
// from the standard library and stack annotation from pkg/errors.
// A stack is recorded once, at the deepest wrap; later wraps only add context.
package errors

import (
	stderrors "errors"

	pkgerrors "github.com/pkg/errors"
)

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// hasStack reports whether any error in err's chain already records a stack.
func hasStack(err error) bool {
	var st stackTracer

	return stderrors.As(err, &st)
}

// New returns a sentinel error without a stack.
func New(text string) error {
	return stderrors.New(text)
}

// Errorf formats a new error and records the stack.
func Errorf(format string, args ...any) error {
	return pkgerrors.Errorf(format, args...)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Join returns an error wrapping errs, or nil when all are nil.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// WithStack records the stack unless err already carries one. It returns nil for nil.
func WithStack(err error) error {
	if err == nil || hasStack(err) {
		return err
	}

	return pkgerrors.WithStack(err)
}

// Wrap prefixes err with message, recording the stack if err has none. It returns nil for nil.
func Wrap(err error, message string) error {
	if err == nil || hasStack(err) {
		return pkgerrors.WithMessage(err, message)
	}

	return pkgerrors.Wrap(err, message)
}

// Wrapf is Wrap with a format specifier.
func Wrapf(err error, format string, args ...any) error {
	if err == nil || hasStack(err) {
		return pkgerrors.WithMessagef(err, format, args...)
	}

	return pkgerrors.Wrapf(err, format, args...)
}

// WithMessage prefixes err with message without recording a stack.
func WithMessage(err error, message string) error {
	return pkgerrors.WithMessage(err, message)
}

// WithMessagef is WithMessage with a format specifier.
func WithMessagef(err error, format string, args ...any) error {
	return pkgerrors.WithMessagef(err, format, args...)
}
