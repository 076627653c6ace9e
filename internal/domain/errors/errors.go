package errors

import (
	"net/http"

	"wallet/internal/errors"
)

// Kind classifies an application error independently of its message.
// Callers branch on the kind, never on the error text.
type Kind int

const (
	KindInternal Kind = iota
	KindValidationFailed
	KindConflict
	KindInvalidCredentials
	KindAccountLocked
	KindAccountDisabled
	KindUnauthenticated
	KindTooManyRequests
	KindNotFound
)

// String returns the machine-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidationFailed:
		return "ValidationFailed"
	case KindConflict:
		return "Conflict"
	case KindInvalidCredentials:
		return "InvalidCredentials"
	case KindAccountLocked:
		return "AccountLocked"
	case KindAccountDisabled:
		return "AccountDisabled"
	case KindUnauthenticated:
		return "Unauthenticated"
	case KindTooManyRequests:
		return "TooManyRequests"
	case KindNotFound:
		return "NotFound"
	default:
		return "Internal"
	}
}

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	Kind() Kind        // Error classification
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() any      // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	kind      Kind
	httpCode  int
	errorCode string
	message   string
	details   any
}

// NewBaseError creates a new base error
func NewBaseError(kind Kind, httpCode int, errorCode, message string) *BaseError {
	return &BaseError{
		kind:      kind,
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// Is matches any BaseError carrying the same business code, so values
// produced by WithDetails still satisfy errors.Is against the sentinel.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return t.errorCode == e.errorCode
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// Kind returns the error classification
func (e *BaseError) Kind() Kind {
	return e.kind
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() any {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details any) *BaseError {
	return &BaseError{
		kind:      e.kind,
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Predefined error types
var (
	// Validation-related errors
	ErrValidationFailed = NewBaseError(
		KindValidationFailed,
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Validation failed",
	)

	ErrPasswordStrength = NewBaseError(
		KindValidationFailed,
		http.StatusBadRequest,
		"PASSWORD_STRENGTH",
		"Password does not meet the strength requirements",
	)

	// Account-related errors
	ErrAccountAlreadyExists = NewBaseError(
		KindConflict,
		http.StatusConflict,
		"ACCOUNT_ALREADY_EXISTS",
		"User with this email already exists",
	)

	ErrAccountNotFound = NewBaseError(
		KindNotFound,
		http.StatusNotFound,
		"ACCOUNT_NOT_FOUND",
		"Account not found",
	)

	ErrAccountCreationFailed = NewBaseError(
		KindInternal,
		http.StatusInternalServerError,
		"ACCOUNT_CREATION_FAILED",
		"Failed to create account",
	)

	ErrAccountUpdateFailed = NewBaseError(
		KindInternal,
		http.StatusInternalServerError,
		"ACCOUNT_UPDATE_FAILED",
		"Failed to update account",
	)

	// Authentication-related errors
	ErrInvalidCredentials = NewBaseError(
		KindInvalidCredentials,
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"Invalid email or password",
	)

	ErrAccountLocked = NewBaseError(
		KindAccountLocked,
		http.StatusLocked,
		"ACCOUNT_LOCKED",
		"Account is temporarily locked due to too many failed attempts. Please try again later.",
	)

	ErrAccountDisabled = NewBaseError(
		KindAccountDisabled,
		http.StatusForbidden,
		"ACCOUNT_DISABLED",
		"Account is deactivated. Please contact support.",
	)

	ErrUnauthenticated = NewBaseError(
		KindUnauthenticated,
		http.StatusUnauthorized,
		"UNAUTHENTICATED",
		"Access denied",
	)

	ErrTokenMissing = NewBaseError(
		KindUnauthenticated,
		http.StatusUnauthorized,
		"TOKEN_MISSING",
		"Access denied. No token provided.",
	)

	ErrTokenInvalid = NewBaseError(
		KindUnauthenticated,
		http.StatusUnauthorized,
		"TOKEN_INVALID",
		"Invalid token.",
	)

	ErrTokenExpired = NewBaseError(
		KindUnauthenticated,
		http.StatusUnauthorized,
		"TOKEN_EXPIRED",
		"Token expired.",
	)

	ErrSessionAccountGone = NewBaseError(
		KindUnauthenticated,
		http.StatusUnauthorized,
		"SESSION_ACCOUNT_NOT_FOUND",
		"User not found.",
	)

	ErrAdminKeyInvalid = NewBaseError(
		KindUnauthenticated,
		http.StatusUnauthorized,
		"ADMIN_KEY_INVALID",
		"Access denied. Invalid admin key.",
	)

	ErrPasswordHashFailed = NewBaseError(
		KindInternal,
		http.StatusInternalServerError,
		"PASSWORD_HASH_FAILED",
		"Password processing error",
	)

	// Throttling errors
	ErrTooManyRequests = NewBaseError(
		KindTooManyRequests,
		http.StatusTooManyRequests,
		"TOO_MANY_REQUESTS",
		"Too many requests from this IP, please try again later.",
	)

	ErrTooManyAuthAttempts = NewBaseError(
		KindTooManyRequests,
		http.StatusTooManyRequests,
		"TOO_MANY_AUTH_ATTEMPTS",
		"Too many authentication attempts, please try again later.",
	)

	// General errors
	ErrStoreTimeout = NewBaseError(
		KindInternal,
		http.StatusServiceUnavailable,
		"STORE_TIMEOUT",
		"Service temporarily unavailable",
	)

	ErrInternalError = NewBaseError(
		KindInternal,
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error",
	)
)

// KindOf reports the kind of the first AppError found in err's chain.
// Errors without an AppError are classified as KindInternal.
func KindOf(err error) Kind {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Kind()
	}

	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// Unwrap exposes the driver error.
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}

// Kind returns the error classification
func (e *DatabaseExecuteError) Kind() Kind {
	return KindInternal
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "Database execution failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() any {
	return e.details
}
