package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ain9900/custom-chatbot-saas/internal/healthcheck"
)

type PingHandler struct {
	logger   *slog.Logger
	checkers []healthcheck.Checker
}

// NewPingHandler serves liveness on /ping and readiness on /health.
func NewPingHandler(log *slog.Logger, checkers ...healthcheck.Checker) *PingHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PingHandler{
		logger:   log.With(slog.String("handler", "ping")),
		checkers: checkers,
	}
}

func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
	e.GET("/health", h.Health)
	e.HEAD("/health", h.HealthHead)
}

func (h *PingHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Health godoc
// @Summary Readiness report
// @Description Returns 503 when a required dependency is down.
// @Tags system
// @Success 200 {object} healthcheck.Report
// @Failure 503 {object} healthcheck.Report
// @Router /health [get]
func (h *PingHandler) Health(c echo.Context) error {
	report := healthcheck.Run(c.Request().Context(), h.checkers...)
	if report.Status == healthcheck.StatusError {
		h.logger.Warn("readiness check failed", slog.Any("checks", report.Checks))
	}
	return c.JSON(reportCode(report), report)
}

func (h *PingHandler) HealthHead(c echo.Context) error {
	return c.NoContent(reportCode(healthcheck.Run(c.Request().Context(), h.checkers...)))
}

func reportCode(report healthcheck.Report) int {
	if report.Status == healthcheck.StatusError {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
