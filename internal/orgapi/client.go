// Package orgapi talks to the organization service over JSON/HTTP.
package orgapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultOrganizationsPath is the collection endpoint on the service.
	DefaultOrganizationsPath = "/api/organizations"
	// DefaultRequestIDHeader carries a per-request correlation id.
	DefaultRequestIDHeader = "X-Request-ID"
	// DefaultUserAgent identifies the client to the service.
	DefaultUserAgent = "orgdesk"
)

var (
	// ErrNotFound matches 404 replies from the read endpoints.
	ErrNotFound = errors.New("orgapi: organization not found")
	// ErrMalformedResponse wraps bodies that are not valid JSON.
	ErrMalformedResponse = errors.New("orgapi: malformed response")
)

// Client calls the organization service.
type Client struct {
	baseURL           *url.URL
	organizationsPath string
	requestIDHeader   string
	userAgent         string
	httpClient        *http.Client
	newRequestID      func() string
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. The default has no timeout: a
// create request runs until the service answers or the transport fails.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithOrganizationsPath overrides the collection endpoint path.
func WithOrganizationsPath(path string) Option {
	return func(c *Client) {
		path = strings.TrimSpace(path)
		if path != "" {
			c.organizationsPath = "/" + strings.Trim(path, "/")
		}
	}
}

// WithRequestIDHeader sets the header used for request ids. An empty name
// disables the header.
func WithRequestIDHeader(header string) Option {
	return func(c *Client) {
		c.requestIDHeader = strings.TrimSpace(header)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRequestIDGenerator lets tests pin request ids.
func WithRequestIDGenerator(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newRequestID = fn
		}
	}
}

// NewClient validates baseURL and prepares a client.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("orgapi: invalid base url %q", baseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("orgapi: unsupported scheme %q", u.Scheme)
	}
	c := &Client{
		baseURL:           u,
		organizationsPath: DefaultOrganizationsPath,
		requestIDHeader:   DefaultRequestIDHeader,
		userAgent:         DefaultUserAgent,
		httpClient:        &http.Client{},
		newRequestID:      uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BaseURL returns the service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// CreateOrganization posts one creation request. The body is decoded whatever
// the status code; the returned error is non-nil only when the request could
// not be sent or the body is not JSON.
func (c *Client) CreateOrganization(ctx context.Context, req CreateOrganizationRequest) (Reply, error) {
	status, env, err := c.doJSON(ctx, http.MethodPost, c.organizationsPath, req)
	if err != nil {
		return Reply{StatusCode: status}, fmt.Errorf("orgapi: create organization: %w", err)
	}
	return Reply{StatusCode: status, Body: env}, nil
}

// ListOrganizations fetches every organization visible to the client.
func (c *Client) ListOrganizations(ctx context.Context) ([]Organization, error) {
	status, env, err := c.doJSON(ctx, http.MethodGet, c.organizationsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("orgapi: list organizations: %w", err)
	}
	if status < 200 || status >= 300 {
		return nil, &APIError{StatusCode: status, Message: replyMessage(status, env)}
	}
	return env.Organizations, nil
}

// GetOrganization fetches one organization by id.
func (c *Client) GetOrganization(ctx context.Context, id string) (Organization, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Organization{}, fmt.Errorf("orgapi: organization id is required")
	}
	path := strings.TrimRight(c.organizationsPath, "/") + "/" + url.PathEscape(id)
	status, env, err := c.doJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return Organization{}, fmt.Errorf("orgapi: get organization: %w", err)
	}
	if status < 200 || status >= 300 {
		return Organization{}, &APIError{StatusCode: status, Message: replyMessage(status, env)}
	}
	if env.Organization == nil {
		return Organization{}, &APIError{StatusCode: http.StatusNotFound, Message: "organization missing from reply"}
	}
	return *env.Organization, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, reqBody any) (int, Envelope, error) {
	u := *c.baseURL
	u.RawPath = strings.TrimRight(u.EscapedPath(), "/") + path
	unescaped, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return 0, Envelope{}, fmt.Errorf("build url: %w", err)
	}
	u.Path = unescaped

	var body io.Reader
	if reqBody != nil {
		buf, err := json.Marshal(reqBody)
		if err != nil {
			return 0, Envelope{}, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return 0, Envelope{}, err
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.requestIDHeader != "" {
		req.Header.Set(c.requestIDHeader, c.newRequestID())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, Envelope{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, Envelope{}, fmt.Errorf("read response: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return resp.StatusCode, Envelope{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return resp.StatusCode, env, nil
}

func replyMessage(status int, env Envelope) string {
	if msg := strings.TrimSpace(env.Error); msg != "" {
		return msg
	}
	return http.StatusText(status)
}
