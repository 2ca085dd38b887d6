package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"csv-proxy-go/internal/service"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	service *service.CSVService
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(svc *service.CSVService, v Version) *HealthHandler {
	return &HealthHandler{service: svc, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status returns proxy status information. The source URL itself is secret
// and only its presence is reported.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":            "ok",
		"version":           string(h.version),
		"source_configured": h.service.Configured(),
	})
}
