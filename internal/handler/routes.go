package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cot-udp-proxy/internal/config"
	"cot-udp-proxy/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
// OPTIONS preflights are answered by the CORS middleware before routing
// matters, and everything unmatched falls through to ErrorHandler as 404.
func RegisterRoutes(e *echo.Echo, relay *RelayHandler, health *HealthHandler, cfg *config.Config, m *metrics.Metrics) {
	e.GET("/", health.Status)
	e.POST("/cot", relay.Handle)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}
