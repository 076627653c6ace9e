package middleware

import (
	"crypto/subtle"

	"wallet/config"
	domainerrors "wallet/internal/domain/errors"

	"github.com/labstack/echo/v4"
)

// HeaderAdminKey carries the administrative API key.
const HeaderAdminKey = "X-Admin-Key"

// AdminMiddleware guards administrative routes with a static API key.
type AdminMiddleware struct {
	key []byte
}

// NewAdminMiddleware is the constructor for AdminMiddleware.
func NewAdminMiddleware(cfg *config.Config) *AdminMiddleware {
	m := &AdminMiddleware{}
	if cfg.Admin != nil {
		m.key = []byte(cfg.Admin.APIKey)
	}

	return m
}

// Enabled reports whether an admin key is configured.
func (m *AdminMiddleware) Enabled() bool {
	return len(m.key) > 0
}

// RequireAdminKey rejects requests without the configured key.
func (m *AdminMiddleware) RequireAdminKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		given := []byte(c.Request().Header.Get(HeaderAdminKey))
		if !m.Enabled() || subtle.ConstantTimeCompare(given, m.key) != 1 {
			return domainerrors.ErrAdminKeyInvalid
		}

		return next(c)
	}
}
