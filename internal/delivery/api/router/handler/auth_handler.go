// Package handler contains the HTTP handlers of the API server.
package handler

import (
	"net/http"
	"time"

	"wallet/internal/delivery/api/middleware"
	"wallet/internal/delivery/api/response"
	deliverycontext "wallet/internal/delivery/context"
	domainerrors "wallet/internal/domain/errors"
	"wallet/internal/errors"
	"wallet/internal/usecase"

	"github.com/labstack/echo/v4"
)

// RegisterRequest is the body of POST /auth/register.
// Content rules are enforced by the use case so that all field errors are reported together.
type RegisterRequest struct {
	Email           string `json:"email" validate:"max=255"`
	Password        string `json:"password" validate:"max=1024"`
	ConfirmPassword string `json:"confirmPassword" validate:"max=1024"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=1024"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message                 string               `json:"message"`
	AccessToken             string               `json:"accessToken"`
	RefreshToken            string               `json:"refreshToken"`
	ExpiresIn               string               `json:"expiresIn"`
	ExpiresInSeconds        int64                `json:"expiresInSeconds"`
	RefreshExpiresInSeconds int64                `json:"refreshExpiresInSeconds"`
	User                    *usecase.AccountView `json:"user"`
}

// VerifyResponse is returned by GET /auth/verify.
type VerifyResponse struct {
	Valid bool                 `json:"valid"`
	User  *usecase.AccountView `json:"user"`
}

// AuthHandler serves the /auth routes.
type AuthHandler struct {
	uc usecase.AuthUsecase
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// Register handles account registration.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid registration input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.Register(c.Request().Context(), &usecase.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, newAuthResponse("Registration successful", output))
}

// Login handles credential login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "Invalid login input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.Login(c.Request().Context(), &usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newAuthResponse("Login successful", output))
}

// Verify reports the account behind the bearer token. Must run after AuthMiddleware.Authenticate.
func (h *AuthHandler) Verify(c echo.Context) error {
	account, ok := middleware.AccountFrom(c)
	if !ok {
		return domainerrors.ErrUnauthenticated
	}

	return response.Success(c, http.StatusOK, VerifyResponse{Valid: true, User: account})
}

// Logout records the logout of the bearer's account.
func (h *AuthHandler) Logout(c echo.Context) error {
	accountID, ok := deliverycontext.AccountIDFrom(c)
	if !ok {
		return domainerrors.ErrUnauthenticated
	}

	if err := h.uc.Logout(c.Request().Context(), accountID); err != nil {
		return errors.WithStack(err)
	}

	return response.Message(c, http.StatusOK, "Logout successful")
}

func newAuthResponse(message string, output *usecase.AuthOutput) AuthResponse {
	return AuthResponse{
		Message:                 message,
		AccessToken:             output.AccessToken,
		RefreshToken:            output.RefreshToken,
		ExpiresIn:               output.ExpiresIn.String(),
		ExpiresInSeconds:        int64(output.ExpiresIn / time.Second),
		RefreshExpiresInSeconds: int64(output.RefreshExpiresIn / time.Second),
		User:                    output.Account,
	}
}
