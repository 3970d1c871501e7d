package handler

import (
	"log/slog"
	"net/http"

	"nexo-frontend/internal/permission"

	"github.com/labstack/echo/v4"
)

// PlatformHandler serves the operator console. Every route sits behind
// the platform scope gate; individual pages additionally check the
// capability they expose.
type PlatformHandler struct {
	api Backend
}

// NewPlatformHandler creates the platform area handler.
func NewPlatformHandler(api Backend) *PlatformHandler {
	return &PlatformHandler{api: api}
}

// Dashboard renders the operator dashboard.
func (h *PlatformHandler) Dashboard(c echo.Context) error {
	return c.Render(http.StatusOK, "platform/dashboard", view(c, nil))
}

// Companies lists every registered company.
func (h *PlatformHandler) Companies(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.PlatformCompaniesRead) {
		return redirect(c, "/")
	}

	envelope, err := h.api.FetchJSON(c.Request().Context(), "/platform/companies", nil, c.Request())
	if err != nil || envelope.Error {
		return redirect(c, "/platform")
	}

	return c.Render(http.StatusOK, "platform/companies/main", view(c, echo.Map{
		"companies": envelope.Data["companies"],
	}))
}

// CreateCompanyForm renders the company creation form with the
// assignable owner roles.
func (h *PlatformHandler) CreateCompanyForm(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.PlatformCompaniesCreate) {
		return redirect(c, "/")
	}

	roles, err := h.companyRoles(c)
	if err != nil {
		return redirect(c, "/platform/companies")
	}

	return c.Render(http.StatusOK, "platform/companies/create", view(c, echo.Map{
		"roles": roles,
		"name":  "",
		"email": "",
		"notes": "",
	}))
}

// CreateCompany registers a company and lands on its detail page. A
// backend rejection re-renders the form with the submitted values.
func (h *PlatformHandler) CreateCompany(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.PlatformCompaniesCreate) {
		return redirect(c, "/")
	}

	name := c.FormValue("name")
	email := c.FormValue("email")
	roleID := c.FormValue("role_id")
	notes := orDefault(c.FormValue("notes"), "Empty")

	envelope, err := h.api.SendJSON(c.Request().Context(), "/platform/companies/create", nil,
		map[string]string{
			"name":    name,
			"email":   email,
			"role_id": roleID,
			"notes":   notes,
		}, c.Request())
	if err != nil {
		slog.WarnContext(c.Request().Context(), "company creation failed", "error", err)
		return redirect(c, "/platform/companies")
	}

	if envelope.Error {
		roles, err := h.companyRoles(c)
		if err != nil {
			return redirect(c, "/platform/companies")
		}
		return c.Render(http.StatusOK, "platform/companies/create", view(c, echo.Map{
			"errors":  []string{envelope.Message},
			"roles":   roles,
			"name":    name,
			"email":   email,
			"role_id": roleID,
			"notes":   notes,
		}))
	}

	return redirect(c, "/platform/companies/view/"+stringValue(envelope.Data["company_id"]))
}

func (h *PlatformHandler) companyRoles(c echo.Context) (any, error) {
	envelope, err := h.api.FetchJSON(c.Request().Context(), "/platform/companies/get_roles", nil, c.Request())
	if err != nil {
		return nil, err
	}
	if envelope.Error {
		return nil, errEnvelope
	}
	return envelope.Data["roles"], nil
}

// Users lists every registered account.
func (h *PlatformHandler) Users(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.PlatformUsersRead) {
		return redirect(c, "/")
	}

	envelope, err := h.api.FetchJSON(c.Request().Context(), "/platform/users/", nil, c.Request())
	if err != nil || envelope.Error {
		return redirect(c, "/platform")
	}

	return c.Render(http.StatusOK, "platform/users/main", view(c, echo.Map{
		"users": envelope.Data["users"],
	}))
}

// Roles lists the platform roles.
func (h *PlatformHandler) Roles(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.PlatformRolesRead) {
		return redirect(c, "/")
	}

	envelope, err := h.api.FetchJSON(c.Request().Context(), "/platform/roles", nil, c.Request())
	if err != nil || envelope.Error {
		return redirect(c, "/platform")
	}

	return c.Render(http.StatusOK, "platform/roles/main", view(c, echo.Map{
		"roles": envelope.Data["roles"],
	}))
}

// CreateRoleForm renders the role creation form with the grantable
// permission catalog.
func (h *PlatformHandler) CreateRoleForm(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.PlatformRolesCreate) {
		return redirect(c, "/")
	}

	envelope, err := h.api.FetchJSON(c.Request().Context(), "/platform/roles/get-permissions", nil, c.Request())
	if err != nil || envelope.Error {
		return redirect(c, "/platform/roles")
	}

	return c.Render(http.StatusOK, "platform/roles/create", view(c, echo.Map{
		"permissions_data": envelope.Data["permissions"],
	}))
}

// CreateRole registers a role and lands on its detail page.
func (h *PlatformHandler) CreateRole(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.PlatformRolesCreate) {
		return redirect(c, "/")
	}

	form, err := c.FormParams()
	if err != nil {
		return redirect(c, "/platform/roles")
	}

	envelope, err := h.api.SendJSON(c.Request().Context(), "/platform/roles/create", nil,
		map[string]any{
			"permissions": form["permissions_data"],
			"role_name":   c.FormValue("role_name"),
			"description": orDefault(c.FormValue("description"), "No hay descripcion"),
		}, c.Request())
	if err != nil {
		slog.WarnContext(c.Request().Context(), "role creation failed", "error", err)
		return redirect(c, "/platform/roles")
	}

	if envelope.Error {
		return c.Render(http.StatusOK, "platform/roles/main", view(c, echo.Map{
			"errors": []string{envelope.Message},
		}))
	}

	return redirect(c, "/platform/roles/view/"+stringValue(envelope.Data["role_id"]))
}

// UpdateRoleForm renders the role editor with the catalog and the
// role's currently selected permissions.
func (h *PlatformHandler) UpdateRoleForm(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.PlatformRolesUpdate) {
		return redirect(c, "/")
	}

	roleID := c.Param("role_id")
	envelope, err := h.api.FetchJSON(c.Request().Context(), "/platform/roles/get/"+roleID, nil, c.Request())
	if err != nil || envelope.Error {
		return redirect(c, "/platform/roles")
	}

	return c.Render(http.StatusOK, "platform/roles/update", view(c, echo.Map{
		"role_id":                   roleID,
		"permissions_data":          envelope.Data["permissions"],
		"permissions_selected_data": envelope.Data["permissions_selected"],
	}))
}

// UpdateRole saves a role edit. Reached as a PUT through the form
// method override.
func (h *PlatformHandler) UpdateRole(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.PlatformRolesUpdate) {
		return redirect(c, "/")
	}

	roleID := c.Param("role_id")
	form, err := c.FormParams()
	if err != nil {
		return redirect(c, "/platform/roles")
	}

	envelope, err := h.api.SendJSON(c.Request().Context(), "/platform/roles/update/"+roleID, nil,
		map[string]any{
			"permissions": form["permissions_data"],
			"role_name":   c.FormValue("role_name"),
			"description": orDefault(c.FormValue("description"), "No hay descripcion"),
		}, c.Request())
	if err != nil {
		slog.WarnContext(c.Request().Context(), "role update failed", "error", err)
		return redirect(c, "/platform/roles")
	}

	if envelope.Error {
		fresh, err := h.api.FetchJSON(c.Request().Context(), "/platform/roles/get/"+roleID, nil, c.Request())
		if err != nil || fresh.Error {
			return redirect(c, "/platform/roles")
		}
		return c.Render(http.StatusOK, "platform/roles/update", view(c, echo.Map{
			"errors":                    []string{envelope.Message},
			"role_id":                   roleID,
			"permissions_data":          fresh.Data["permissions"],
			"permissions_selected_data": fresh.Data["permissions_selected"],
		}))
	}

	return redirect(c, "/platform/roles/read/"+roleID)
}

// Analytics renders the platform analytics page.
func (h *PlatformHandler) Analytics(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.PlatformAnalyticsRead) {
		return redirect(c, "/")
	}
	return c.Render(http.StatusOK, "platform/analytics/main", view(c, nil))
}

// Support renders the operator support desk.
func (h *PlatformHandler) Support(c echo.Context) error {
	if !auth(c).Permissions.Has(permission.PlatformSupportRead) {
		return redirect(c, "/system-alert/403")
	}
	return c.Render(http.StatusOK, "platform/support/main", view(c, nil))
}

// SupportTicket renders one support ticket with its full thread.
func (h *PlatformHandler) SupportTicket(c echo.Context) error {
	if !auth(c).Permissions.HasAny(permission.PlatformSupportTicketsRead, permission.PlatformSupportTicketsManage) {
		return redirect(c, "/system-alert/403")
	}

	envelope, err := h.api.FetchJSON(c.Request().Context(),
		"/platform/support/tickets/get/"+c.Param("ticket_id"), nil, c.Request())
	if err != nil || envelope.Error {
		return redirect(c, "/platform/support")
	}

	return c.Render(http.StatusOK, "platform/support/read", view(c, echo.Map{
		"ticket": envelope.Data["ticket"],
	}))
}

// SupportTicketsAPI answers the filtered ticket listing the support
// desk polls.
func (h *PlatformHandler) SupportTicketsAPI(c echo.Context) error {
	if !auth(c).Permissions.HasAny(permission.PlatformSupportTicketsRead, permission.PlatformSupportTicketsManage) {
		return redirect(c, "/system-alert/403")
	}

	params := createParams(map[string]string{
		"q":        c.QueryParam("q"),
		"priority": c.QueryParam("priority"),
		"category": c.QueryParam("category"),
		"page":     c.QueryParam("page"),
		"limit":    c.QueryParam("limit"),
	})

	envelope, err := h.api.FetchJSON(c.Request().Context(), "/platform/support/tickets"+params, nil, c.Request())
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

	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"tickets":    envelope.Data["tickets"],
		"pagination": envelope.Data["pagination"],
	})
}

// CreateSupportResponseAPI appends an operator response, optionally
// marked internal, to a ticket.
func (h *PlatformHandler) CreateSupportResponseAPI(c echo.Context) error {
	if !auth(c).Permissions.HasAny(permission.PlatformSupportTicketsResponse, permission.PlatformSupportTicketsManage) {
		return redirect(c, "/system-alert/403")
	}

	var body struct {
		TicketID    string `json:"ticket_id" form:"ticket_id"`
		Description string `json:"description" form:"description"`
		Internal    string `json:"internal" form:"internal"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusOK, echo.Map{"success": false, "message": "Solicitud invalida"})
	}

	internal := "0"
	if body.Internal != "" {
		internal = "1"
	}

	envelope, err := h.api.SendJSON(c.Request().Context(),
		"/platform/support/tickets/"+body.TicketID+"/response/create", nil,
		map[string]string{
			"description": body.Description,
			"internal":    internal,
		}, c.Request())
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
