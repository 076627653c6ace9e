package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	domainerrors "wallet/internal/domain/errors"
)

// Error is a non-2xx answer of the server. It unwraps to the domain error
// matching its status, so callers branch with errors.Is or domainerrors.KindOf.
type Error struct {
	Status    int
	Code      string
	Message   string
	Details   json.RawMessage
	RequestID string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap maps the status, refined by the error code, onto a domain error.
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return domainerrors.ErrValidationFailed
	case http.StatusUnauthorized:
		if e.Code == domainerrors.ErrInvalidCredentials.ErrorCode() {
			return domainerrors.ErrInvalidCredentials
		}
		if e.Code == domainerrors.ErrTokenExpired.ErrorCode() {
			return domainerrors.ErrTokenExpired
		}

		return domainerrors.ErrUnauthenticated
	case http.StatusForbidden:
		return domainerrors.ErrAccountDisabled
	case http.StatusNotFound:
		return domainerrors.ErrAccountNotFound
	case http.StatusConflict:
		return domainerrors.ErrAccountAlreadyExists
	case http.StatusLocked:
		return domainerrors.ErrAccountLocked
	case http.StatusTooManyRequests:
		if e.Code == domainerrors.ErrTooManyAuthAttempts.ErrorCode() {
			return domainerrors.ErrTooManyAuthAttempts
		}

		return domainerrors.ErrTooManyRequests
	default:
		return domainerrors.ErrInternalError
	}
}

type errorBody struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

func decodeError(resp *http.Response) *Error {
	apiErr := &Error{
		Status:  resp.StatusCode,
		Message: http.StatusText(resp.StatusCode),
	}

	var body errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBodyBytes)).Decode(&body); err == nil {
		apiErr.Code = body.Error.Code
		apiErr.Details = body.Error.Details
		apiErr.RequestID = body.Meta.RequestID
		if body.Error.Message != "" {
			apiErr.Message = body.Error.Message
		}
	}

	return apiErr
}
