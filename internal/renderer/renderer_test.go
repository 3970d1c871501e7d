package renderer

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParsesEmbeddedViews(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	// A few views that must exist for the route surface.
	for _, name := range []string{
		"auth/login",
		"auth/register",
		"general/dashboard",
		"platform/dashboard",
		"companies/products/main",
		"system_alerts/403",
		"system_alerts/404",
	} {
		assert.Contains(t, r.templates, name, "missing view %s", name)
	}
}

func TestRender(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/auth", nil), httptest.NewRecorder())

	t.Run("renders a view with data", func(t *testing.T) {
		var out strings.Builder
		err := r.Render(&out, "auth/login", echo.Map{
			"errors": []string{"credenciales invalidas"},
			"email":  "a@b.c",
			"expire": "on",
			"oauth":  map[string]string{"google": "client-123"},
		}, c)

		require.NoError(t, err)
		assert.Contains(t, out.String(), "credenciales invalidas")
		assert.Contains(t, out.String(), `value="a@b.c"`)
		assert.Contains(t, out.String(), "/oauth/google/start")
	})

	t.Run("unknown view is an error", func(t *testing.T) {
		var out strings.Builder
		err := r.Render(&out, "companies/nope", nil, c)
		assert.Error(t, err)
	})

	t.Run("escapes injected values", func(t *testing.T) {
		var out strings.Builder
		err := r.Render(&out, "auth/login", echo.Map{
			"errors": []string{`<script>alert(1)</script>`},
			"email":  "",
			"expire": "",
			"oauth":  map[string]string{},
		}, c)

		require.NoError(t, err)
		assert.NotContains(t, out.String(), "<script>alert(1)</script>")
	})
}

func TestUpdateQueryFunc(t *testing.T) {
	update := viewFuncs()["update_query"].(func(url.Values, map[string]any) string)

	query := url.Values{"page": []string{"1"}, "q": []string{"cafe"}}

	t.Run("sets and keeps keys", func(t *testing.T) {
		got := update(query, map[string]any{"page": 2})
		assert.Contains(t, got, "page=2")
		assert.Contains(t, got, "q=cafe")
		assert.True(t, strings.HasPrefix(got, "?"))
	})

	t.Run("nil deletes a key", func(t *testing.T) {
		got := update(query, map[string]any{"q": nil})
		assert.NotContains(t, got, "q=")
	})

	t.Run("empty result has no question mark", func(t *testing.T) {
		got := update(url.Values{}, map[string]any{})
		assert.Equal(t, "", got)
	})
}
