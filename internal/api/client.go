// Package api is the HTTP/JSON client for the spendings REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"spendings/internal/core"
)

// DefaultBaseURL is the collection endpoint of a locally running API.
const DefaultBaseURL = "http://localhost:5000/api/v1/spendings"

// RequestIDHeader is sent with every request.
const RequestIDHeader = "X-Request-ID"

// UpdateMode controls how unset fields of a core.SpendingUpdate are sent.
type UpdateMode string

const (
	// UpdateOmitUnset leaves nil fields out of the PUT body.
	UpdateOmitUnset UpdateMode = "omit"
	// UpdateExplicitNull always sends all four keys, nil ones as null.
	UpdateExplicitNull UpdateMode = "null"
)

// IsValid returns true if the mode is known.
func (m UpdateMode) IsValid() bool {
	return m == UpdateOmitUnset || m == UpdateExplicitNull
}

// Client talks to the spendings API. Requests are made exactly once: no
// retries and no timeout other than the http.Client's own.
type Client struct {
	baseURL    string
	httpClient *http.Client
	updateMode UpdateMode
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets a timeout on a copy of the underlying http.Client, so a
// shared client such as http.DefaultClient is left untouched. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithUpdateMode selects the PUT payload shape.
func WithUpdateMode(m UpdateMode) Option {
	return func(c *Client) {
		if m.IsValid() {
			c.updateMode = m
		}
	}
}

// NewClient creates a client for the collection at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		updateMode: UpdateOmitUnset,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the collection endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List fetches one page of spendings matching the truthy filters.
func (c *Client) List(ctx context.Context, filters core.Filters, page int) (core.Page, error) {
	var out core.Page
	url := c.baseURL + "?" + core.ListQuery(filters, page)
	if err := c.do(ctx, "list", http.MethodGet, url, nil, &out); err != nil {
		return core.Page{}, err
	}
	return out, nil
}

// Get fetches a single spending.
func (c *Client) Get(ctx context.Context, id int64) (core.Spending, error) {
	var out core.Spending
	if err := c.do(ctx, "get", http.MethodGet, c.itemURL(id), nil, &out); err != nil {
		return core.Spending{}, err
	}
	return out, nil
}

// Create posts a new spending and returns the stored record.
func (c *Client) Create(ctx context.Context, s core.NewSpending) (core.Spending, error) {
	var out core.Spending
	if err := c.do(ctx, "create", http.MethodPost, c.baseURL, s, &out); err != nil {
		return core.Spending{}, err
	}
	return out, nil
}

// Update sends userid, count, type and model for id and returns the stored
// record. Unset fields are handled according to the client's UpdateMode.
func (c *Client) Update(ctx context.Context, id int64, u core.SpendingUpdate) (core.Spending, error) {
	var out core.Spending
	if err := c.do(ctx, "update", http.MethodPut, c.itemURL(id), c.updatePayload(u), &out); err != nil {
		return core.Spending{}, err
	}
	return out, nil
}

// Delete removes a spending. The response body is ignored.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, "delete", http.MethodDelete, c.itemURL(id), nil, nil)
}

func (c *Client) itemURL(id int64) string {
	return c.baseURL + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) updatePayload(u core.SpendingUpdate) map[string]any {
	payload := make(map[string]any, 4)
	put := func(key string, isSet bool, v any) {
		switch {
		case isSet:
			payload[key] = v
		case c.updateMode == UpdateExplicitNull:
			payload[key] = nil
		}
	}
	put(core.ParamUserID, u.UserID != nil, u.UserID)
	put("count", u.Count != nil, u.Count)
	put(core.ParamType, u.Type != nil, u.Type)
	put(core.ParamModel, u.Model != nil, u.Model)
	return payload
}

func (c *Client) do(ctx context.Context, op, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return wrapError(KindEncode, op, fmt.Errorf("marshal request: %w", err))
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return wrapError(KindTransport, op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "API request failed",
			"operation", op,
			"method", method,
			"url", url,
			"request_id", requestID,
			"error", err)
		return wrapError(KindTransport, op, err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "API request completed",
		"operation", op,
		"method", method,
		"url", url,
		"request_id", requestID,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp.StatusCode, readErrorDetail(resp.Body))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return wrapError(KindDecode, op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// readErrorDetail extracts {"error": "..."} from an error body, if present.
func readErrorDetail(r io.Reader) string {
	var body struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(data))
}
