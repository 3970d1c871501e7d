package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AlertsHandler serves the system alert pages unknown or forbidden
// requests resolve to.
type AlertsHandler struct{}

// NewAlertsHandler creates the system alerts handler.
func NewAlertsHandler() *AlertsHandler {
	return &AlertsHandler{}
}

// Forbidden renders the blocked-account page.
func (h *AlertsHandler) Forbidden(c echo.Context) error {
	return c.Render(http.StatusForbidden, "system_alerts/403", echo.Map{})
}

// NotFound renders the unknown-route page.
func (h *AlertsHandler) NotFound(c echo.Context) error {
	return c.Render(http.StatusNotFound, "system_alerts/404", echo.Map{})
}
