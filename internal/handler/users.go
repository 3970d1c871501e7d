package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// UsersHandler serves the account settings area.
type UsersHandler struct {
	api Backend
}

// NewUsersHandler creates the user settings handler.
func NewUsersHandler(api Backend) *UsersHandler {
	return &UsersHandler{api: api}
}

// Settings renders the account settings page.
func (h *UsersHandler) Settings(c echo.Context) error {
	return c.Render(http.StatusOK, "users/settings", view(c, nil))
}

// UpdatePassword changes the account password through the backend and
// answers in the JSON shape the settings page consumes.
func (h *UsersHandler) UpdatePassword(c echo.Context) error {
	var body struct {
		CurrentPassword    string `json:"current_password" form:"current_password"`
		NewPassword        string `json:"new_password" form:"new_password"`
		ConfirmNewPassword string `json:"confirm_new_password" form:"confirm_new_password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusOK, echo.Map{"error": true, "errors": []string{"Solicitud invalida"}})
	}

	envelope, err := h.api.SendJSON(c.Request().Context(), "/users/update-password", nil,
		map[string]string{
			"current_password":     body.CurrentPassword,
			"new_password":         body.NewPassword,
			"confirm_new_password": body.ConfirmNewPassword,
		}, c.Request())
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{
			"error":  true,
			"errors": []string{"Servicio no disponible, intenta mas tarde"},
		})
	}

	if envelope.Error {
		return apiErrors(c, envelope)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"error":   false,
		"message": envelope.Message,
	})
}
