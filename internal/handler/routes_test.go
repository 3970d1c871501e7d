package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"nexo-frontend/internal/client"
	"nexo-frontend/internal/domain"
	"nexo-frontend/internal/middleware"
	"nexo-frontend/internal/renderer"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testTokenName = "nexo_token"

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) FetchJSON(ctx context.Context, endpoint string, headers map[string]string, in *http.Request) (*client.Envelope, error) {
	args := m.Called(ctx, endpoint, headers, in)
	if envelope := args.Get(0); envelope != nil {
		return envelope.(*client.Envelope), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBackend) SendJSON(ctx context.Context, endpoint string, headers map[string]string, body any, in *http.Request) (*client.Envelope, error) {
	args := m.Called(ctx, endpoint, headers, body, in)
	if envelope := args.Get(0); envelope != nil {
		return envelope.(*client.Envelope), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBackend) SendForm(ctx context.Context, endpoint string, headers map[string]string, body io.Reader, contentType string, in *http.Request) (*client.Envelope, error) {
	args := m.Called(ctx, endpoint, headers, body, contentType, in)
	if envelope := args.Get(0); envelope != nil {
		return envelope.(*client.Envelope), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestApp(t *testing.T, backend *MockBackend) *echo.Echo {
	t.Helper()

	e := echo.New()
	views, err := renderer.New()
	require.NoError(t, err)
	e.Renderer = views

	authn := middleware.NewAuthenticator(backend, testTokenName)
	Register(e, authn, Handlers{
		Auth:     NewAuthHandler(backend, map[string]string{"google": "client-123"}),
		OAuth:    NewOAuthHandler(backend, "client-123", "http://localhost/oauth/google", "state-secret", map[string]string{"google": "client-123"}),
		General:  NewGeneralHandler(backend),
		Users:    NewUsersHandler(backend),
		Platform: NewPlatformHandler(backend),
		Company:  NewCompanyHandler(backend),
		Alerts:   NewAlertsHandler(),
	}, Limits{
		Credentials: middleware.NewRateLimiter(600, 100),
		API:         middleware.NewRateLimiter(600, 100),
	})
	return e
}

func identityEnvelope(perms ...string) *client.Envelope {
	list := make([]any, 0, len(perms))
	for _, p := range perms {
		list = append(list, p)
	}
	return &client.Envelope{
		Data: map[string]any{
			"user": map[string]any{
				"id":       "u1",
				"username": "marta",
				"fullname": "Marta Quispe",
				"email":    "marta@example.com",
			},
			"permissions": list,
			"invitations": map[string]any{"exist": false, "quantity": float64(0)},
		},
	}
}

func sessionCookie() *http.Cookie {
	return &http.Cookie{Name: testTokenName, Value: "session-token"}
}

func tenantCookie(id, name string) *http.Cookie {
	encoded, _ := json.Marshal(domain.Company{ID: id, Name: name})
	return &http.Cookie{Name: middleware.TenantCookieName, Value: url.QueryEscape(string(encoded))}
}

func TestLogin(t *testing.T) {
	form := url.Values{
		"email":    []string{"marta@example.com"},
		"password": []string{"hunter2"},
		"expire":   []string{"on"},
	}

	post := func(e *echo.Echo) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	t.Run("success propagates the session cookie and lands on root", func(t *testing.T) {
		backend := new(MockBackend)
		backend.On("SendJSON", mock.Anything, "/auth/login", mock.Anything,
			mock.MatchedBy(func(body any) bool {
				payload, ok := body.(map[string]string)
				return ok && payload["email"] == "marta@example.com" && payload["expires"] == "1"
			}), mock.Anything).
			Return(&client.Envelope{Data: map[string]any{
				"cookie_value": testTokenName + "=abc123; Path=/; HttpOnly",
			}}, nil)

		rec := post(newTestApp(t, backend))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
		assert.Contains(t, rec.Header().Values("Set-Cookie"), testTokenName+"=abc123; Path=/; HttpOnly")
		backend.AssertExpectations(t)
	})

	t.Run("rejection re-renders with details and the email, never the password", func(t *testing.T) {
		backend := new(MockBackend)
		backend.On("SendJSON", mock.Anything, "/auth/login", mock.Anything, mock.Anything, mock.Anything).
			Return(&client.Envelope{
				Error:   true,
				Message: "Error de validacion",
				Details: []string{"Credenciales invalidas"},
			}, nil)

		rec := post(newTestApp(t, backend))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Credenciales invalidas")
		assert.Contains(t, rec.Body.String(), `value="marta@example.com"`)
		assert.NotContains(t, rec.Body.String(), "hunter2")
	})

	t.Run("unreachable backend re-renders with a generic message", func(t *testing.T) {
		backend := new(MockBackend)
		backend.On("SendJSON", mock.Anything, "/auth/login", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, context.DeadlineExceeded)

		rec := post(newTestApp(t, backend))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Servicio no disponible")
	})
}

func TestLoginPageRedirectsAuthenticated(t *testing.T) {
	backend := new(MockBackend)
	e := newTestApp(t, backend)

	req := httptest.NewRequest(http.MethodGet, "/auth", nil)
	req.AddCookie(sessionCookie())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/platform", rec.Header().Get(echo.HeaderLocation))
	backend.AssertNotCalled(t, "FetchJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHomeRoutesByScope(t *testing.T) {
	cases := []struct {
		name     string
		perms    []string
		location string
	}{
		{"platform scope lands on the console", []string{"platform.users.read"}, "/platform"},
		{"company scope lands on the company area", []string{"company.read"}, "/companies"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := new(MockBackend)
			backend.On("FetchJSON", mock.Anything, "/auth/user", mock.Anything, mock.Anything).
				Return(identityEnvelope(tc.perms...), nil)

			e := newTestApp(t, backend)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(sessionCookie())
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tc.location, rec.Header().Get(echo.HeaderLocation))
		})
	}
}

func TestProductsListing(t *testing.T) {
	t.Run("missing capability redirects without touching the backend listing", func(t *testing.T) {
		backend := new(MockBackend)
		backend.On("FetchJSON", mock.Anything, "/auth/user", mock.Anything, mock.Anything).
			Return(identityEnvelope("company.read"), nil)

		e := newTestApp(t, backend)
		req := httptest.NewRequest(http.MethodGet, "/companies/7/products", nil)
		req.AddCookie(sessionCookie())
		req.AddCookie(tenantCookie("7", "Bodega Central"))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/system-alert/403", rec.Header().Get(echo.HeaderLocation))
		backend.AssertNumberOfCalls(t, "FetchJSON", 1)
	})

	t.Run("renders the inventory page", func(t *testing.T) {
		backend := new(MockBackend)
		backend.On("FetchJSON", mock.Anything, "/auth/user", mock.Anything, mock.Anything).
			Return(identityEnvelope("company.read", "company.products.read"), nil)
		backend.On("FetchJSON", mock.Anything, "/company/products?page=1", mock.Anything, mock.Anything).
			Return(&client.Envelope{Data: map[string]any{
				"items_quantity": float64(2),
				"products": []any{
					map[string]any{"name": "Cafe molido", "sku": "CAF-01", "stock": float64(12)},
				},
				"stock_value": float64(340),
			}}, nil)

		e := newTestApp(t, backend)
		req := httptest.NewRequest(http.MethodGet, "/companies/7/products", nil)
		req.AddCookie(sessionCookie())
		req.AddCookie(tenantCookie("7", "Bodega Central"))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Cafe molido")
		backend.AssertExpectations(t)
	})
}

func TestTenantMismatchRevalidatesAndRetries(t *testing.T) {
	backend := new(MockBackend)
	backend.On("FetchJSON", mock.Anything, "/auth/user", mock.Anything, mock.Anything).
		Return(identityEnvelope("company.read"), nil)
	backend.On("SendJSON", mock.Anything, "/company/companies/validate_company_id", mock.Anything,
		map[string]string{"company_id": "9"}, mock.Anything).
		Return(&client.Envelope{Data: map[string]any{
			"company": map[string]any{"id": "9", "name": "Sucursal Sur", "taxes": true},
		}}, nil)

	e := newTestApp(t, backend)
	req := httptest.NewRequest(http.MethodGet, "/companies/9", nil)
	req.AddCookie(sessionCookie())
	req.AddCookie(tenantCookie("7", "Bodega Central"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/companies/9", rec.Header().Get(echo.HeaderLocation))

	cookies := rec.Result().Cookies()
	var updated *http.Cookie
	for _, cookie := range cookies {
		if cookie.Name == middleware.TenantCookieName {
			updated = cookie
		}
	}
	require.NotNil(t, updated)
	decoded, err := url.QueryUnescape(updated.Value)
	require.NoError(t, err)
	assert.Contains(t, decoded, `"id":"9"`)
	backend.AssertExpectations(t)
}

func TestCloseCashAPI(t *testing.T) {
	backend := new(MockBackend)
	backend.On("FetchJSON", mock.Anything, "/auth/user", mock.Anything, mock.Anything).
		Return(identityEnvelope("company.read", "company.cash.close"), nil)
	backend.On("SendJSON", mock.Anything, "/company/cash/close", mock.Anything,
		map[string]string{"amount": "150.50", "description": "No description"}, mock.Anything).
		Return(&client.Envelope{Data: map[string]any{
			"difference":          float64(-2),
			"invalid_description": false,
		}}, nil)

	e := newTestApp(t, backend)
	body := strings.NewReader(`{"amount":"150.50"}`)
	req := httptest.NewRequest(http.MethodPost, "/companies/7/api/cash/close", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(sessionCookie())
	req.AddCookie(tenantCookie("7", "Bodega Central"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, false, response["error"])
	assert.Equal(t, float64(-2), response["difference"])
	backend.AssertExpectations(t)
}

func TestUnknownRouteRedirects(t *testing.T) {
	backend := new(MockBackend)
	e := newTestApp(t, backend)

	req := httptest.NewRequest(http.MethodGet, "/no-such-page", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/system-alert/404", rec.Header().Get(echo.HeaderLocation))
}

func TestCreateSupportTicketAPI(t *testing.T) {
	backend := new(MockBackend)
	backend.On("FetchJSON", mock.Anything, "/auth/user", mock.Anything, mock.Anything).
		Return(identityEnvelope(), nil)
	backend.On("SendJSON", mock.Anything, "/general/support/tickets/create", mock.Anything,
		map[string]string{
			"category":    "billing",
			"priority":    "high",
			"title":       "Cobro duplicado",
			"description": "Se cobro dos veces la misma venta",
		}, mock.Anything).
		Return(&client.Envelope{Data: map[string]any{"ticket_code": "TK-0042"}}, nil)

	e := newTestApp(t, backend)
	body := strings.NewReader(`{"category":"billing","priority":"high","title":"Cobro duplicado","description":"Se cobro dos veces la misma venta"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/support/tickets/create", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(sessionCookie())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "TK-0042")
	backend.AssertExpectations(t)
}
