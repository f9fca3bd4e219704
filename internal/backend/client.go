package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// API defines the backend calls brickview makes. It is implemented by
// *Client and can be replaced in tests.
type API interface {
	FetchPhotos(ctx context.Context) ([]Photo, error)
	FetchState(ctx context.Context) (*StateResponse, error)
	FetchPhotoBytes(ctx context.Context, filename string) ([]byte, error)
	FetchHealth(ctx context.Context) (*HealthResponse, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the photo backend over HTTP.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIBase        = "http://127.0.0.1:5001"
	defaultUserAgent      = "brickview/0.1"
	defaultRequestTimeout = 10 * time.Second

	// TunnelHeader suppresses the tunnel's browser warning page. Without it
	// every request is answered with HTML instead of JSON.
	TunnelHeader = "ngrok-skip-browser-warning"
	// RequestIDHeader carries a per-request id to correlate client and
	// server logs.
	RequestIDHeader = "X-Request-ID"

	maxJSONBody  = 8 << 20
	maxPhotoBody = 32 << 20
)

// NewClient builds a Client for the backend at apiBase. A zero timeout uses
// the default.
func NewClient(apiBase string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(apiBase)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the normalised backend address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchPhotos retrieves the full photo collection.
func (c *Client) FetchPhotos(ctx context.Context) ([]Photo, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []Photo
	if err := c.getJSON(ctx, "/api/photos", &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchState retrieves the lightweight summary used for polling.
func (c *Client) FetchState(ctx context.Context) (*StateResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload StateResponse
	if err := c.getJSON(ctx, "/api/state", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchHealth calls the backend health probe.
func (c *Client) FetchHealth(ctx context.Context) (*HealthResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload HealthResponse
	if err := c.getJSON(ctx, "/health", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// PhotoURL returns where the binary for filename lives. Filenames that are
// already absolute URLs (cloud storage) are returned unchanged.
func (c *Client) PhotoURL(filename string) string {
	name := strings.TrimSpace(filename)
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return name
	}
	rel := &url.URL{Path: "/api/photos/" + name}
	return c.baseURL.ResolveReference(rel).String()
}

// FetchPhotoBytes downloads the binary content of a photo.
func (c *Client) FetchPhotoBytes(ctx context.Context, filename string) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(filename) == "" {
		return nil, fmt.Errorf("filename required")
	}
	target := c.PhotoURL(filename)
	resp, reqID, err := c.get(ctx, target, "image/*")
	if err != nil {
		return nil, &FetchError{Op: "GET", URL: target, RequestID: reqID, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBody))
	if err != nil {
		return nil, &FetchError{Op: "GET", URL: target, RequestID: reqID, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Op: "GET", URL: target, Status: resp.StatusCode, RequestID: reqID, Err: ErrBadStatus}
	}
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "text/html") {
		return nil, &FetchError{Op: "GET", URL: target, RequestID: reqID, Err: interstitialError(body)}
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	target := c.baseURL.ResolveReference(&url.URL{Path: path}).String()
	resp, reqID, err := c.get(ctx, target, "application/json")
	if err != nil {
		return &FetchError{Op: "GET", URL: target, RequestID: reqID, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONBody))
	if err != nil {
		return &FetchError{Op: "GET", URL: target, RequestID: reqID, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &FetchError{Op: "GET", URL: target, Status: resp.StatusCode, RequestID: reqID, Err: ErrBadStatus}
	}
	if looksLikeHTML(resp.Header.Get("Content-Type"), body) {
		return &FetchError{Op: "GET", URL: target, RequestID: reqID, Err: interstitialError(body)}
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &FetchError{Op: "GET", URL: target, RequestID: reqID, Err: fmt.Errorf("decode response: %w: %v", ErrNotJSON, err)}
	}
	return nil
}

func (c *Client) get(ctx context.Context, target, accept string) (*http.Response, string, error) {
	reqID := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, reqID, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(TunnelHeader, "true")
	req.Header.Set(RequestIDHeader, reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, reqID, fmt.Errorf("execute request: %w", err)
	}
	return resp, reqID, nil
}

func interstitialError(body []byte) error {
	if title := describeHTML(body); title != "" {
		return fmt.Errorf("%w: %q", ErrInterstitial, title)
	}
	return ErrInterstitial
}

func parseBaseURL(apiBase string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBase)
	if trimmed == "" {
		trimmed = defaultAPIBase
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_base %q: %w", apiBase, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_base %q: missing host", apiBase)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
