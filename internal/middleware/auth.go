// Package middleware implements the per-request authentication and
// authorization layer executed before every protected route.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"nexo-frontend/internal/client"
	"nexo-frontend/internal/domain"
	"nexo-frontend/internal/permission"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/singleflight"
)

// Backend is the subset of the API client the middleware depends on.
type Backend interface {
	FetchJSON(ctx context.Context, endpoint string, headers map[string]string, in *http.Request) (*client.Envelope, error)
	SendJSON(ctx context.Context, endpoint string, headers map[string]string, body any, in *http.Request) (*client.Envelope, error)
}

// authContextKey is the Echo context key the resolved AuthContext is
// attached under. Handlers read it through AuthFrom only.
const authContextKey = "nexo.auth"

// Authenticator resolves the caller's identity and tenant context from
// the session token and the cached company selection, on every request.
type Authenticator struct {
	api       Backend
	tokenName string
	identity  singleflight.Group
}

// NewAuthenticator creates the auth middleware. tokenName is the
// deployment-configured session cookie name.
func NewAuthenticator(api Backend, tokenName string) *Authenticator {
	return &Authenticator{
		api:       api,
		tokenName: tokenName,
	}
}

// AuthFrom returns the AuthContext resolved by RequireAuth, or nil when
// the request did not pass through it.
func AuthFrom(c echo.Context) *domain.AuthContext {
	auth, _ := c.Get(authContextKey).(*domain.AuthContext)
	return auth
}

// RequireAuth is the main gate. It resolves identity from the session
// cookie, validates the tenant selection when the route names one,
// rejects blocked users, and attaches the AuthContext for downstream
// handlers. Every failure path resolves to a redirect.
func (a *Authenticator) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := c.Cookie(a.tokenName)
			if err != nil || token.Value == "" {
				return c.Redirect(http.StatusFound, "/auth")
			}

			envelope, err := a.resolveIdentity(c, token.Value)
			if err != nil {
				slog.WarnContext(c.Request().Context(), "identity resolution failed",
					"error", err)
				return c.Redirect(http.StatusFound, "/auth")
			}

			user, err := domain.UserFromData(envelope.Data)
			if err != nil || user == nil {
				clearCookie(c, a.tokenName)
				return c.Redirect(http.StatusFound, "/auth/logout")
			}

			permissions := domain.PermissionsFromData(envelope.Data)
			invitations := domain.InvitationsFromData(envelope.Data)

			var company *domain.Company
			if requested := c.Param("company_id"); requested != "" {
				resolution, err := a.resolveTenant(c, requested)
				if err != nil {
					slog.WarnContext(c.Request().Context(), "tenant validation failed",
						"company_id", requested,
						"error", err)
					clearCookie(c, TenantCookieName)
					return c.Redirect(http.StatusFound, "/")
				}

				switch resolution.Status {
				case TenantRejected:
					clearCookie(c, TenantCookieName)
					return c.Redirect(http.StatusFound, "/")
				case TenantRevalidated:
					// The validated context becomes cacheable through the
					// cookie; the retried request hits the fresh branch.
					setTenantCookie(c, resolution.Company)
					return c.Redirect(http.StatusFound, c.Request().RequestURI)
				case TenantFresh:
					company = resolution.Company
				}
			}

			if user.IsBlocked {
				return c.Redirect(http.StatusFound, "/system-alert/403")
			}

			c.Set(authContextKey, &domain.AuthContext{
				User:        *user,
				Permissions: permissions,
				Scopes:      permission.DeriveScopes(permissions),
				Invitations: invitations,
				Company:     company,
			})

			return next(c)
		}
	}
}

// resolveIdentity queries the backend for the caller's identity.
// Concurrent requests carrying the same token coalesce into a single
// backend call; nothing is cached across requests.
func (a *Authenticator) resolveIdentity(c echo.Context, token string) (*client.Envelope, error) {
	// Detached from the request context so a coalesced caller hanging
	// up does not fail the shared call. The client timeout still binds.
	ctx := context.WithoutCancel(c.Request().Context())

	result, err, _ := a.identity.Do(token, func() (any, error) {
		return a.api.FetchJSON(ctx, "/auth/user", nil, c.Request())
	})
	if err != nil {
		return nil, err
	}
	return result.(*client.Envelope), nil
}

// PlatformMod continues only for platform-scoped callers; everyone else
// lands in the company area. Compose after RequireAuth.
func (a *Authenticator) PlatformMod() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := AuthFrom(c)
			if auth == nil {
				return c.Redirect(http.StatusFound, "/auth")
			}
			if auth.Scopes.Platform {
				return next(c)
			}
			return c.Redirect(http.StatusFound, "/companies")
		}
	}
}

// NoPermissions sends scoped callers to their area and lets only
// scope-less identities through; used by the neutral landing page.
func (a *Authenticator) NoPermissions() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := AuthFrom(c)
			if auth == nil {
				return c.Redirect(http.StatusFound, "/auth")
			}
			if auth.Scopes.Platform {
				return c.Redirect(http.StatusFound, "/platform")
			}
			if auth.Scopes.Company {
				return c.Redirect(http.StatusFound, "/companies")
			}
			return next(c)
		}
	}
}

// AtLeastCompany continues for platform- or company-scoped callers.
func (a *Authenticator) AtLeastCompany() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := AuthFrom(c)
			if auth == nil {
				return c.Redirect(http.StatusFound, "/auth")
			}
			if auth.Scopes.Platform || auth.Scopes.Company {
				return next(c)
			}
			return c.Redirect(http.StatusFound, "/dashboard")
		}
	}
}

// AlreadyLogin keeps authenticated callers off the login page. It only
// inspects the cookie; no backend call is made.
func (a *Authenticator) AlreadyLogin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token, err := c.Cookie(a.tokenName); err == nil && token.Value != "" {
				return c.Redirect(http.StatusFound, "/platform")
			}
			return next(c)
		}
	}
}

// clearCookie expires a cookie on the outgoing response.
func clearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:   name,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
