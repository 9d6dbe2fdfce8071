package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ServiceName is reported by the status endpoint.
const ServiceName = "CoT UDP Proxy"

// Version is a string type for dependency injection of the build version.
type Version string

type statusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// HealthHandler serves the status endpoint.
type HealthHandler struct {
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(v Version) *HealthHandler {
	return &HealthHandler{version: v}
}

// Status reports that the proxy is running, with its name and version.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{
		Status:  "running",
		Service: ServiceName,
		Version: string(h.version),
	})
}
