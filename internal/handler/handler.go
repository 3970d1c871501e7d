// Package handler implements the route dispatch layer: every handler
// gates on a capability, mediates between the incoming request and the
// backend API, and resolves to a rendered view or a redirect.
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"nexo-frontend/internal/client"
	"nexo-frontend/internal/domain"
	"nexo-frontend/internal/middleware"

	"github.com/labstack/echo/v4"
)

// Backend is the API client surface handlers depend on.
type Backend interface {
	FetchJSON(ctx context.Context, endpoint string, headers map[string]string, in *http.Request) (*client.Envelope, error)
	SendJSON(ctx context.Context, endpoint string, headers map[string]string, body any, in *http.Request) (*client.Envelope, error)
	SendForm(ctx context.Context, endpoint string, headers map[string]string, body io.Reader, contentType string, in *http.Request) (*client.Envelope, error)
}

// redirect issues the 302 every failure path in this layer resolves to.
func redirect(c echo.Context, location string) error {
	return c.Redirect(http.StatusFound, location)
}

// view merges the auth locals every template may reference into the
// page data, mirroring what the middleware resolved for this request.
func view(c echo.Context, data echo.Map) echo.Map {
	if data == nil {
		data = echo.Map{}
	}

	auth := middleware.AuthFrom(c)
	if auth == nil {
		return data
	}

	data["user"] = auth.User
	data["permissions"] = auth.Permissions
	data["scopes"] = auth.Scopes
	data["user_companies"] = auth.User.UserCompanies
	data["invitations_sidebar"] = auth.Invitations

	if auth.Company != nil {
		data["company_information"] = *auth.Company
	} else {
		data["company_information"] = domain.Company{}
	}

	return data
}

// auth returns the request's resolved AuthContext. Routes behind
// RequireAuth always have one.
func auth(c echo.Context) *domain.AuthContext {
	return middleware.AuthFrom(c)
}

// companyID returns the tenant id the middleware validated for this
// request.
func companyID(c echo.Context) string {
	if a := middleware.AuthFrom(c); a != nil && a.Company != nil {
		return a.Company.ID
	}
	return c.Param("company_id")
}

// createParams builds a query string from the non-empty entries, in
// stable key order.
func createParams(values map[string]string) string {
	params := url.Values{}
	keys := make([]string, 0, len(values))
	for key, value := range values {
		if value == "" {
			continue
		}
		keys = append(keys, key)
		params.Set(key, value)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	return "?" + params.Encode()
}

// orDefault substitutes fallback for an empty form value.
func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// checkbox translates an HTML checkbox value into the backend's "0"/"1"
// convention.
func checkbox(value string) string {
	if value == "on" {
		return "1"
	}
	return "0"
}

// errEnvelope marks a backend-reported failure where only the control
// flow matters to the caller.
var errEnvelope = errors.New("backend rejected the request")

// stringValue renders a decoded JSON scalar as its string form. Ids
// arrive either as strings or as integral JSON numbers.
func stringValue(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(value)
	}
}

// apiErrors is the JSON error shape of the XHR-style endpoints.
func apiErrors(c echo.Context, envelope *client.Envelope) error {
	return c.JSON(http.StatusOK, echo.Map{
		"error":  true,
		"errors": envelope.Errors(),
	})
}
