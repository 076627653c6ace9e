package middleware

import (
	"strings"

	deliverycontext "wallet/internal/delivery/context"
	domainerrors "wallet/internal/domain/errors"
	"wallet/internal/errors"
	"wallet/internal/usecase"

	"github.com/labstack/echo/v4"
)

const keyAccount = "account"

// AuthMiddleware resolves bearer access tokens to accounts.
type AuthMiddleware struct {
	auth usecase.AuthUsecase
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(auth usecase.AuthUsecase) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Authenticate rejects the request unless it carries a valid access token
// for an existing account, and records that account on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return domainerrors.ErrTokenMissing
		}

		account, err := m.auth.VerifySession(c.Request().Context(), token)
		if err != nil {
			return errors.WithStack(err)
		}

		deliverycontext.SetAccountID(c, account.ID)
		c.Set(keyAccount, account)

		return next(c)
	}
}

// AccountFrom returns the account recorded by Authenticate.
func AccountFrom(c echo.Context) (*usecase.AccountView, bool) {
	account, ok := c.Get(keyAccount).(*usecase.AccountView)

	return account, ok && account != nil
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])

	return token, token != ""
}
