package handler

import (
	"net/http"

	"wallet/internal/delivery/api/response"
	deliverycontext "wallet/internal/delivery/context"
	domainerrors "wallet/internal/domain/errors"
	"wallet/internal/errors"
	"wallet/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ProfileResponse is returned by GET /user/profile.
type ProfileResponse struct {
	User *usecase.AccountView `json:"user"`
}

// UserHandler serves the /user routes.
type UserHandler struct {
	uc usecase.AuthUsecase
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(uc usecase.AuthUsecase) *UserHandler {
	return &UserHandler{uc: uc}
}

// GetProfile handles the request to get the current account's profile.
func (h *UserHandler) GetProfile(c echo.Context) error {
	accountID, ok := deliverycontext.AccountIDFrom(c)
	if !ok {
		return domainerrors.ErrUnauthenticated
	}

	profile, err := h.uc.GetProfile(c.Request().Context(), accountID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, ProfileResponse{User: profile})
}
