package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-assistant/internal/service"
)

// AnalyticsHandler serves the reporting endpoints.
type AnalyticsHandler struct {
	service *service.AnalyticsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: analyticsService}
}

// KPIs GET /analytics/kpis.
func (h *AnalyticsHandler) KPIs(c *fiber.Ctx) error {
	from, to := parseWindow(c)
	report, err := h.service.KPIs(c.UserContext(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// Escalations GET /analytics/escalations.
func (h *AnalyticsHandler) Escalations(c *fiber.Ctx) error {
	from, to := parseWindow(c)
	report, err := h.service.Escalations(c.UserContext(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// Intents GET /analytics/intents.
func (h *AnalyticsHandler) Intents(c *fiber.Ctx) error {
	from, to := parseWindow(c)
	report, err := h.service.Intents(c.UserContext(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// parseWindow reads the from and to query parameters. Absent or malformed
// values stay zero and the service applies its default window.
func parseWindow(c *fiber.Ctx) (time.Time, time.Time) {
	var from, to time.Time
	if v := parseTime(c.Query("from")); v != nil {
		from = *v
	}
	if v := parseTime(c.Query("to")); v != nil {
		to = *v
	}
	return from, to
}
