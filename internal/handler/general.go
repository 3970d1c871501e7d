package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// GeneralHandler serves the pages every authenticated account can
// reach regardless of its permission set: the fallback dashboard, the
// public ticket checker, company invitations and the support desk.
type GeneralHandler struct {
	api Backend
}

// NewGeneralHandler creates the general area handler.
func NewGeneralHandler(api Backend) *GeneralHandler {
	return &GeneralHandler{api: api}
}

// Home renders the dashboard of accounts without any permission.
func (h *GeneralHandler) Home(c echo.Context) error {
	return c.Render(http.StatusOK, "general/dashboard", view(c, nil))
}

// CheckTicket renders the public sale ticket checker. The lookup
// itself happens client side against the ticket code.
func (h *GeneralHandler) CheckTicket(c echo.Context) error {
	return c.Render(http.StatusOK, "general/check_ticket", echo.Map{})
}

// Invitations lists the account's pending company invitations.
func (h *GeneralHandler) Invitations(c echo.Context) error {
	invitations, _ := h.fetchInvitations(c)
	return c.Render(http.StatusOK, "general/invitations/main", view(c, echo.Map{
		"invitations": invitations,
	}))
}

// AcceptInvitation accepts one invitation. On a backend rejection the
// listing re-renders with the rejection message over a fresh list.
func (h *GeneralHandler) AcceptInvitation(c echo.Context) error {
	envelope, err := h.api.SendJSON(c.Request().Context(), "/general/invitations/accept", nil,
		map[string]string{"invitation_id": c.Param("invitation_id")}, c.Request())
	if err != nil {
		slog.WarnContext(c.Request().Context(), "invitation accept failed", "error", err)
		return redirect(c, "/invitations")
	}

	if envelope.Error {
		invitations, _ := h.fetchInvitations(c)
		return c.Render(http.StatusOK, "general/invitations/main", view(c, echo.Map{
			"errors":      []string{envelope.Message},
			"invitations": invitations,
		}))
	}

	return c.Render(http.StatusOK, "general/invitations/accepted", view(c, nil))
}

// DeclineInvitation acknowledges a declined invitation.
func (h *GeneralHandler) DeclineInvitation(c echo.Context) error {
	return c.JSON(http.StatusOK, c.Param("invitation_id"))
}

func (h *GeneralHandler) fetchInvitations(c echo.Context) (any, error) {
	envelope, err := h.api.FetchJSON(c.Request().Context(), "/general/invitations", nil, c.Request())
	if err != nil {
		slog.WarnContext(c.Request().Context(), "invitation listing failed", "error", err)
		return nil, err
	}
	return envelope.Data["invitations"], nil
}

// Support renders the support desk landing page.
func (h *GeneralHandler) Support(c echo.Context) error {
	return c.Render(http.StatusOK, "general/support/main", view(c, nil))
}

// SupportTicketForm renders the new ticket form.
func (h *GeneralHandler) SupportTicketForm(c echo.Context) error {
	return c.Render(http.StatusOK, "general/support/tickets/create", view(c, nil))
}

// SupportTickets lists the account's support tickets.
func (h *GeneralHandler) SupportTickets(c echo.Context) error {
	envelope, err := h.api.FetchJSON(c.Request().Context(), "/general/support/tickets", nil, c.Request())
	if err != nil || envelope.Error {
		return redirect(c, "/platform")
	}

	return c.Render(http.StatusOK, "general/support/tickets/main", view(c, echo.Map{
		"tickets": envelope.Data["tickets"],
	}))
}

// SupportTicket renders one of the account's tickets with its
// response thread.
func (h *GeneralHandler) SupportTicket(c echo.Context) error {
	envelope, err := h.api.FetchJSON(c.Request().Context(),
		"/general/support/tickets/get/"+c.Param("ticket_id"), nil, c.Request())
	if err != nil || envelope.Error {
		return redirect(c, "/support")
	}

	return c.Render(http.StatusOK, "general/support/tickets/read", view(c, echo.Map{
		"ticket": envelope.Data["ticket"],
	}))
}

// CreateSupportTicket opens a ticket and answers with its code.
func (h *GeneralHandler) CreateSupportTicket(c echo.Context) error {
	var body struct {
		Category    string `json:"category" form:"category"`
		Priority    string `json:"priority" form:"priority"`
		Title       string `json:"title" form:"title"`
		Description string `json:"description" form:"description"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusOK, echo.Map{"error": true, "errors": []string{"Solicitud invalida"}})
	}

	envelope, err := h.api.SendJSON(c.Request().Context(), "/general/support/tickets/create", nil,
		map[string]string{
			"category":    body.Category,
			"priority":    body.Priority,
			"title":       body.Title,
			"description": body.Description,
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
		"error": false,
		"code":  envelope.Data["ticket_code"],
	})
}

// CreateSupportResponse appends a response to one of the account's
// tickets.
func (h *GeneralHandler) CreateSupportResponse(c echo.Context) error {
	var body struct {
		TicketID    string `json:"ticket_id" form:"ticket_id"`
		Description string `json:"description" form:"description"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusOK, echo.Map{"success": false, "message": "Solicitud invalida"})
	}

	envelope, err := h.api.SendJSON(c.Request().Context(),
		"/general/support/tickets/"+body.TicketID+"/response/create", nil,
		map[string]string{"description": body.Description}, c.Request())
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{
			"success": false,
			"message": "Servicio no disponible, intenta mas tarde",
		})
	}

	if envelope.Error {
		return c.JSON(http.StatusOK, echo.Map{
			"success": false,
			"message": envelope.Message,
			"errors":  envelope.Details,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
