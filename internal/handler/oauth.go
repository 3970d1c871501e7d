package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const googleAuthorizeURL = "https://accounts.google.com/o/oauth2/v2/auth"

// stateTTL bounds how long an OAuth round trip may take.
const stateTTL = 10 * time.Minute

// OAuthHandler drives the Google OAuth flow. The authorization code is
// exchanged by the backend; this layer only carries it over, protected
// by a signed state token against login CSRF.
type OAuthHandler struct {
	api            Backend
	clientID       string
	redirectURL    string
	stateSecret    string
	oauthProviders map[string]string
}

// NewOAuthHandler creates the OAuth handler.
func NewOAuthHandler(api Backend, clientID, redirectURL, stateSecret string, oauthProviders map[string]string) *OAuthHandler {
	return &OAuthHandler{
		api:            api,
		clientID:       clientID,
		redirectURL:    redirectURL,
		stateSecret:    stateSecret,
		oauthProviders: oauthProviders,
	}
}

// stateClaims is the signed state parameter of the OAuth round trip.
type stateClaims struct {
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// newStateToken issues a short-lived signed state token.
func (h *OAuthHandler) newStateToken() (string, error) {
	now := time.Now()
	claims := stateClaims{
		Nonce: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.stateSecret))
}

// verifyStateToken checks the state returned by Google.
func (h *OAuthHandler) verifyStateToken(token string) error {
	parsed, err := jwt.ParseWithClaims(token, &stateClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(h.stateSecret), nil
	})
	if err != nil {
		return fmt.Errorf("invalid state token: %w", err)
	}
	if !parsed.Valid {
		return fmt.Errorf("invalid state token")
	}
	return nil
}

// Start redirects to Google's consent screen with a signed state.
func (h *OAuthHandler) Start(c echo.Context) error {
	if h.clientID == "" {
		return redirect(c, "/auth")
	}

	state, err := h.newStateToken()
	if err != nil {
		slog.ErrorContext(c.Request().Context(), "failed to sign oauth state", "error", err)
		return redirect(c, "/auth")
	}

	params := url.Values{}
	params.Set("client_id", h.clientID)
	params.Set("redirect_uri", h.redirectURL)
	params.Set("response_type", "code")
	params.Set("scope", "openid email profile")
	params.Set("state", state)

	return redirect(c, googleAuthorizeURL+"?"+params.Encode())
}

// Callback verifies the state, hands the authorization code to the
// backend and propagates the session cookie it issues.
func (h *OAuthHandler) Callback(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return c.String(http.StatusBadRequest, "No se recibio el codigo de Google")
	}

	if state := c.QueryParam("state"); state != "" || h.stateSecret != "" {
		if err := h.verifyStateToken(state); err != nil {
			slog.WarnContext(c.Request().Context(), "oauth state rejected", "error", err)
			return c.Render(http.StatusOK, "auth/login", echo.Map{
				"errors": []string{"La sesion de Google expiro, intenta de nuevo"},
				"email":  "",
				"expire": "",
				"oauth":  h.oauthProviders,
			})
		}
	}

	envelope, err := h.api.SendJSON(c.Request().Context(), "/oauth/google", nil,
		map[string]string{"code": code}, c.Request())
	if err != nil {
		slog.WarnContext(c.Request().Context(), "oauth exchange failed", "error", err)
		return redirect(c, "/auth")
	}

	if envelope.Error {
		return c.Render(http.StatusOK, "auth/login", echo.Map{
			"errors": []string{envelope.Message},
			"email":  "",
			"expire": "",
			"oauth":  h.oauthProviders,
		})
	}

	if cookie, ok := envelope.CookieValue(); ok {
		c.Response().Header().Add("Set-Cookie", cookie)
	}
	return redirect(c, "/")
}
