package handler

import (
	"log/slog"
	"net/http"

	"nexo-frontend/internal/middleware"

	"github.com/labstack/echo/v4"
)

// AuthHandler serves the authentication pages and proxies credential
// operations to the backend. The backend, not this layer, is the
// source of truth for session issuance; we only re-propagate the
// cookies it sets.
type AuthHandler struct {
	api            Backend
	oauthProviders map[string]string
}

// NewAuthHandler creates the authentication handler. oauthProviders
// maps provider name to client id for the login page.
func NewAuthHandler(api Backend, oauthProviders map[string]string) *AuthHandler {
	return &AuthHandler{
		api:            api,
		oauthProviders: oauthProviders,
	}
}

// loginView builds the login page data with every field the template
// references.
func (h *AuthHandler) loginView(errors []string, email, expire string) echo.Map {
	return echo.Map{
		"errors": errors,
		"email":  email,
		"expire": expire,
		"oauth":  h.oauthProviders,
	}
}

// LoginForm renders the login page.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, "auth/login", h.loginView(nil, "", ""))
}

// Login proxies the credentials to the backend. On success the
// backend-issued session cookie is propagated and the caller lands on
// the root; on a validation error the form re-renders with the details
// and the submitted values, the password never echoed.
func (h *AuthHandler) Login(c echo.Context) error {
	email := c.FormValue("email")
	password := c.FormValue("password")
	expire := c.FormValue("expire")

	expires := "0"
	if expire != "" {
		expires = "1"
	}

	envelope, err := h.api.SendJSON(c.Request().Context(), "/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
		"expires":  expires,
	}, nil)
	if err != nil {
		slog.WarnContext(c.Request().Context(), "login call failed", "error", err)
		return c.Render(http.StatusOK, "auth/login",
			h.loginView([]string{"Servicio no disponible, intenta mas tarde"}, email, expire))
	}

	if envelope.Error {
		return c.Render(http.StatusOK, "auth/login",
			h.loginView(envelope.Errors(), email, expire))
	}

	if cookie, ok := envelope.CookieValue(); ok {
		c.Response().Header().Add("Set-Cookie", cookie)
	}
	return redirect(c, "/")
}

// registerView builds the register page data.
func registerView(errors []string, values map[string]string) echo.Map {
	data := echo.Map{
		"errors":   errors,
		"username": "",
		"fullname": "",
		"email":    "",
		"birth":    "",
	}
	for key, value := range values {
		data[key] = value
	}
	return data
}

// RegisterForm renders the registration page.
func (h *AuthHandler) RegisterForm(c echo.Context) error {
	return c.Render(http.StatusOK, "auth/register", registerView(nil, nil))
}

// Register proxies a new account to the backend and sends the caller
// back to the login page on success.
func (h *AuthHandler) Register(c echo.Context) error {
	values := map[string]string{
		"username": c.FormValue("username"),
		"fullname": c.FormValue("fullname"),
		"email":    c.FormValue("email"),
		"birth":    c.FormValue("birth"),
	}

	envelope, err := h.api.SendJSON(c.Request().Context(), "/auth/register", nil, map[string]string{
		"username":         values["username"],
		"fullname":         values["fullname"],
		"email":            values["email"],
		"birth":            values["birth"],
		"password":         c.FormValue("password"),
		"confirm_password": c.FormValue("confirm_password"),
	}, nil)
	if err != nil {
		slog.WarnContext(c.Request().Context(), "register call failed", "error", err)
		return c.Render(http.StatusOK, "auth/register",
			registerView([]string{"Servicio no disponible, intenta mas tarde"}, values))
	}

	if envelope.Error {
		return c.Render(http.StatusOK, "auth/register",
			registerView(envelope.Errors(), values))
	}

	return redirect(c, "/auth")
}

// ForgotPassword acknowledges a password recovery request.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	return c.JSON(http.StatusOK, "ok")
}

// Logout proxies the logout to the backend, propagates the expiring
// session cookie it issues and drops the cached tenant context.
func (h *AuthHandler) Logout(c echo.Context) error {
	envelope, err := h.api.SendJSON(c.Request().Context(), "/auth/logout", nil,
		map[string]string{}, c.Request())
	if err != nil {
		slog.WarnContext(c.Request().Context(), "logout call failed", "error", err)
	} else if cookie, ok := envelope.CookieValue(); ok {
		c.Response().Header().Add("Set-Cookie", cookie)
	}

	c.SetCookie(&http.Cookie{
		Name:   middleware.TenantCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	return redirect(c, "/")
}
