// Package client provides the HTTP client for communicating with the
// backend API. Every call is normalized into the same response
// envelope, regardless of how the backend shaped its reply.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Envelope is the uniform shape every backend call resolves to. A
// backend-reported validation error (status marker 400) sets Error with
// the flattened Details; transport failures never produce an Envelope.
type Envelope struct {
	Error   bool
	Message string
	Details []string
	Data    map[string]any
}

// CookieValue returns the Set-Cookie header captured from a write call,
// if the backend issued one.
func (e *Envelope) CookieValue() (string, bool) {
	value, ok := e.Data["cookie_value"].(string)
	return value, ok && value != ""
}

// Errors returns the messages to surface on a re-rendered form: the
// field-level details when present, otherwise the single message.
func (e *Envelope) Errors() []string {
	if len(e.Details) > 0 {
		return e.Details
	}
	return []string{e.Message}
}

// backendPayload is the wire shape of backend responses.
type backendPayload struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Details []struct {
		Message string `json:"message"`
	} `json:"details"`
	Data map[string]any `json:"data"`
}

// Client calls the backend API over JSON HTTP. It forwards the caller's
// session cookie and locale so identity propagates implicitly through
// every proxied call.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a backend API client. Every call is bounded by the given
// timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient creates a backend API client with a custom HTTP
// client.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// FetchJSON performs a GET against the backend and normalizes the
// response. Headers from the incoming request (cookie, locale) are
// forwarded when in is non-nil.
func (c *Client) FetchJSON(ctx context.Context, endpoint string, headers map[string]string, in *http.Request) (*Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(endpoint), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend request: %w", err)
	}
	c.setHeaders(req, headers, in)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend call failed: %w", err)
	}
	defer resp.Body.Close()

	return normalize(resp, false)
}

// SendJSON performs a POST with a JSON body against the backend and
// normalizes the response. A Set-Cookie response header is captured
// into Data["cookie_value"] so the caller can re-propagate
// backend-issued cookies.
func (c *Client) SendJSON(ctx context.Context, endpoint string, headers map[string]string, body any, in *http.Request) (*Envelope, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(endpoint), bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to create backend request: %w", err)
	}
	c.setHeaders(req, headers, in)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend call failed: %w", err)
	}
	defer resp.Body.Close()

	return normalize(resp, true)
}

// SendForm performs a multipart POST against the backend. The caller
// builds the multipart body and passes its content type. Unlike the
// JSON variants, a non-2xx HTTP status is also treated as an error
// envelope.
func (c *Client) SendForm(ctx context.Context, endpoint string, headers map[string]string, body io.Reader, contentType string, in *http.Request) (*Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend request: %w", err)
	}

	forwardRequestHeaders(req, in)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend call failed: %w", err)
	}
	defer resp.Body.Close()

	envelope, err := normalize(resp, true)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		envelope.Error = true
	}
	return envelope, nil
}

func (c *Client) buildURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "/") {
		return c.baseURL + endpoint
	}
	return c.baseURL + "/" + endpoint
}

// setHeaders applies the JSON content type, caller-supplied headers and
// the forwarded headers of the incoming request.
func (c *Client) setHeaders(req *http.Request, headers map[string]string, in *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	forwardRequestHeaders(req, in)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
}

// forwardRequestHeaders propagates the session cookie and locale of the
// incoming request onto the backend call.
func forwardRequestHeaders(req *http.Request, in *http.Request) {
	if in == nil {
		return
	}
	if cookie := in.Header.Get("Cookie"); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	if lang := in.Header.Get("Accept-Language"); lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
}

// normalize translates a backend response into the uniform envelope.
func normalize(resp *http.Response, captureCookie bool) (*Envelope, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read backend response: %w", err)
	}

	var payload backendPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode backend response: %w", err)
	}

	envelope := &Envelope{
		Message: payload.Message,
		Details: []string{},
		Data:    map[string]any{},
	}

	// The backend signals validation/business errors with a status
	// marker inside the body, not the HTTP status line.
	if payload.Status == http.StatusBadRequest {
		envelope.Error = true
		for _, detail := range payload.Details {
			envelope.Details = append(envelope.Details, detail.Message)
		}
		return envelope, nil
	}

	if captureCookie {
		if cookie := resp.Header.Get("Set-Cookie"); cookie != "" {
			envelope.Data["cookie_value"] = cookie
		}
	}

	for key, value := range payload.Data {
		envelope.Data[key] = value
	}

	return envelope, nil
}
