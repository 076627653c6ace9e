package validator

import (
	"testing"

	domainerrors "wallet/internal/domain/errors"
	"wallet/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

func TestValidator_ReportsJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Validate(&sample{Email: "nope"})
	require.Error(t, err)
	assert.Equal(t, domainerrors.KindValidationFailed, domainerrors.KindOf(err))

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	fields, ok := appErr.Details().([]domainerrors.FieldError)
	require.True(t, ok)
	require.Len(t, fields, 2)
	assert.Equal(t, "email", fields[0].Field)
	assert.Equal(t, "Please provide a valid email", fields[0].Message)
	assert.Equal(t, "password", fields[1].Field)
	assert.Equal(t, "password is required", fields[1].Message)
}

func TestValidator_Valid(t *testing.T) {
	assert.NoError(t, New().Validate(&sample{Email: "a@b.co", Password: "x"}))
}
