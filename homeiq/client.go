package homeiq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// Doer issues HTTP requests. *http.Client satisfies it; tests substitute
// their own.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is a non-2xx response from the HomeIQ API, carrying the server's
// user-facing message. Business-rule rejections (e.g. deleting a tenant with
// an active lease) arrive as this type and are surfaced verbatim.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("homeiq: api error %d: %s", e.Status, e.Message)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDoer substitutes the HTTP transport.
func WithDoer(d Doer) ClientOption {
	return func(c *Client) { c.doer = d }
}

// WithToken sets a static bearer token.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = func() string { return token } }
}

// WithTokenFunc sets a bearer token source, called per request. Use this when
// tokens rotate.
func WithTokenFunc(fn func() string) ClientOption {
	return func(c *Client) { c.token = fn }
}

// Client talks to the HomeIQ API: base URL handling, bearer-token injection,
// JSON bodies, and structured errors. It performs no caching; the engine sits
// in front of it.
type Client struct {
	base  *url.URL
	doer  Doer
	token func() string
}

// NewClient builds a client for the given base URL (e.g.
// "https://api.homeiq.example/api/v1").
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("homeiq: parse base url: %w", err)
	}
	c := &Client{
		base: base,
		doer: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Properties returns the typed service for the property collection.
func (c *Client) Properties() *PropertyService { return &PropertyService{c: c} }

// Units returns the typed service for the unit collection.
func (c *Client) Units() *UnitService { return &UnitService{c: c} }

// Tenants returns the typed service for the tenant collection.
func (c *Client) Tenants() *TenantService { return &TenantService{c: c} }

// do issues one request. Path segments are escaped individually, so raw ids
// are safe to pass.
func (c *Client) do(ctx context.Context, method string, segments []string, query url.Values, body, out any) error {
	u := c.base.JoinPath(segments...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("homeiq: encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("homeiq: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return fmt.Errorf("homeiq: %s %s: %w", method, u.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("homeiq: decode response: %w", err)
	}
	return nil
}

// decodeAPIError reads the server's {"message": ...} body; when the body is
// not in that shape the HTTP status text stands in.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload); err == nil && payload.Message != "" {
		apiErr.Message = payload.Message
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// listEnvelope is the API's paging wrapper.
type listEnvelope[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func pagingQuery(q url.Values, page, pageSize int) {
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}
}
