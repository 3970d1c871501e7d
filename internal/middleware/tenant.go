package middleware

import (
	"encoding/json"
	"net/http"
	"net/url"

	"nexo-frontend/internal/domain"

	"github.com/labstack/echo/v4"
)

// TenantCookieName is the cookie holding the validated company context.
// It is deliberately readable by client-side scripting.
const TenantCookieName = "company_id"

// TenantStatus names the outcome of tenant resolution.
type TenantStatus int

const (
	// TenantFresh means the cached context matched the requested id and
	// was reused without a backend call.
	TenantFresh TenantStatus = iota
	// TenantRevalidated means the backend confirmed access to the
	// requested company; the caller must cache it and retry the URL.
	TenantRevalidated
	// TenantRejected means the backend denied the requested company.
	TenantRejected
)

// TenantResolution is the result of the two-phase tenant resolver.
type TenantResolution struct {
	Status  TenantStatus
	Company *domain.Company
}

// Decision is the pure first phase of tenant resolution.
type Decision int

const (
	// DecisionFresh: the cached context is trusted as-is.
	DecisionFresh Decision = iota
	// DecisionRevalidate: the backend must confirm the requested id.
	DecisionRevalidate
)

// Decide compares the cached tenant context against the requested
// company id. A cached context is trusted only while its id matches;
// any mismatch or absence forces revalidation.
func Decide(cached *domain.Company, requested string) Decision {
	if cached != nil && cached.ID == requested {
		return DecisionFresh
	}
	return DecisionRevalidate
}

// resolveTenant runs both phases: the pure decision against the tenant
// cookie, then, when required, the backend validation call. A transport
// failure is returned as an error; a backend denial is TenantRejected.
func (a *Authenticator) resolveTenant(c echo.Context, requested string) (TenantResolution, error) {
	cached, _ := tenantFromCookie(c)

	if Decide(cached, requested) == DecisionFresh {
		return TenantResolution{Status: TenantFresh, Company: cached}, nil
	}

	envelope, err := a.api.SendJSON(c.Request().Context(), "/company/companies/validate_company_id", nil,
		map[string]string{"company_id": requested}, c.Request())
	if err != nil {
		return TenantResolution{}, err
	}

	if envelope.Error {
		return TenantResolution{Status: TenantRejected}, nil
	}

	company, err := domain.CompanyFromData(envelope.Data)
	if err != nil {
		return TenantResolution{}, err
	}

	return TenantResolution{Status: TenantRevalidated, Company: company}, nil
}

// tenantFromCookie reads the cached tenant context. A missing or
// undecodable cookie reads as absent.
func tenantFromCookie(c echo.Context) (*domain.Company, bool) {
	cookie, err := c.Cookie(TenantCookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}

	decoded, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil, false
	}

	var company domain.Company
	if err := json.Unmarshal([]byte(decoded), &company); err != nil {
		return nil, false
	}
	return &company, true
}

// setTenantCookie caches a validated company context on the client.
func setTenantCookie(c echo.Context, company *domain.Company) {
	encoded, err := json.Marshal(company)
	if err != nil {
		return
	}

	c.SetCookie(&http.Cookie{
		Name:     TenantCookieName,
		Value:    url.QueryEscape(string(encoded)),
		Path:     "/",
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
}
