package handler

import (
	"net/http"

	"wallet/internal/delivery/api/response"
	domainerrors "wallet/internal/domain/errors"
	"wallet/internal/errors"
	"wallet/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AdminHandler serves the /admin routes.
type AdminHandler struct {
	uc usecase.AuthUsecase
}

// NewAdminHandler is the constructor for AdminHandler, injected by Fx.
func NewAdminHandler(uc usecase.AuthUsecase) *AdminHandler {
	return &AdminHandler{uc: uc}
}

// UnlockAccount clears the lockout state of the account in the path.
func (h *AdminHandler) UnlockAccount(c echo.Context) error {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domainerrors.ErrValidationFailed.WithDetails([]domainerrors.FieldError{
			{Field: "id", Message: "id must be a UUID"},
		})
	}

	if err := h.uc.Unlock(c.Request().Context(), accountID); err != nil {
		return errors.WithStack(err)
	}

	return response.Message(c, http.StatusOK, "Account unlocked")
}
