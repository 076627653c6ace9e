package handler

import (
	"net/http"
	"time"

	"wallet/config"
	"wallet/internal/delivery/api/response"

	"github.com/labstack/echo/v4"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// HealthHandler reports liveness.
type HealthHandler struct {
	service string
	version string
	now     func() time.Time
}

// NewHealthHandler is the constructor for HealthHandler, injected by Fx.
func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{
		service: cfg.Env.ServiceName,
		version: cfg.Env.Version,
		now:     time.Now,
	}
}

// Check is a simple handler to check if the service is up.
func (h *HealthHandler) Check(c echo.Context) error {
	return response.Success(c, http.StatusOK, HealthResponse{
		Status:    "OK",
		Timestamp: h.now().UTC(),
		Service:   h.service,
		Version:   h.version,
	})
}
