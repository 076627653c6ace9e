package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"wallet/config"
	deliverycontext "wallet/internal/delivery/context"
	domainerrors "wallet/internal/domain/errors"
	"wallet/internal/domain/service"
	"wallet/internal/errors"

	"github.com/labstack/echo/v4"
)

// Rule names, also used as store key segments.
const (
	RuleAPI  = "api"
	RuleAuth = "auth"
)

// RateLimitMiddleware throttles clients by IP.
type RateLimitMiddleware struct {
	limiter service.RateLimiter
	api     service.RateLimitRule
	auth    service.RateLimitRule
	logger  *slog.Logger
}

// NewRateLimitMiddleware builds the general and auth tiers from config.
func NewRateLimitMiddleware(limiter service.RateLimiter, cfg *config.Config, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		api: service.RateLimitRule{
			Name:   RuleAPI,
			Window: cfg.RateLimit.API.Window,
			Max:    cfg.RateLimit.API.Max,
		},
		auth: service.RateLimitRule{
			Name:           RuleAuth,
			Window:         cfg.RateLimit.Auth.Window,
			Max:            cfg.RateLimit.Auth.Max,
			SkipSuccessful: true,
		},
		logger: logger,
	}
}

// General applies the api tier to every route except /health.
func (m *RateLimitMiddleware) General(next echo.HandlerFunc) echo.HandlerFunc {
	limited := m.limit(m.api, domainerrors.ErrTooManyRequests)(next)

	return func(c echo.Context) error {
		if c.Path() == "/health" {
			return next(c)
		}

		return limited(c)
	}
}

// Auth applies the auth tier. Requests answered below 400 are refunded.
func (m *RateLimitMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.limit(m.auth, domainerrors.ErrTooManyAuthAttempts)(next)
}

func (m *RateLimitMiddleware) limit(rule service.RateLimitRule, rejection *domainerrors.BaseError) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			logger := deliverycontext.GetLoggerOrDefault(ctx, m.logger)

			decision, err := m.limiter.Allow(ctx, rule, c.RealIP())
			if err != nil {
				return errors.Wrap(err, "rate limit store unavailable")
			}

			header := c.Response().Header()
			header.Set("RateLimit-Limit", strconv.Itoa(decision.Limit))
			header.Set("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			header.Set("RateLimit-Reset", strconv.Itoa(ceilSeconds(decision.ResetAfter)))

			if !decision.Allowed {
				header.Set("Retry-After", strconv.Itoa(ceilSeconds(decision.RetryAfter)))
				logger.Warn("Rate limit exceeded",
					slog.String("rule", rule.Name),
					slog.String("remote_ip", c.RealIP()),
				)

				return rejection
			}

			err = next(c)
			if !rule.SkipSuccessful {
				return err
			}

			if err != nil {
				// Render the error so its status decides the refund.
				c.Error(err)
			}
			if c.Response().Status < http.StatusBadRequest {
				if refundErr := m.limiter.Refund(ctx, decision); refundErr != nil {
					logger.Warn("Failed to refund rate limit hit", slog.String("rule", rule.Name), slog.Any("error", refundErr))
				}
			}

			return nil
		}
	}
}

func ceilSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
