// Package portalclient is a typed client for the member portal survey API.
package portalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config holds the client configuration
type Config struct {
	BaseURL    string        // Portal URL, e.g. https://portal.example.com
	APIKey     string        // Member or admin key; empty for anonymous access
	Timeout    time.Duration // Per-request timeout (default: 30 seconds)
	HTTPClient *http.Client  // Optional; overrides Timeout
}

// Client calls the portal API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a new client
func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}

	hc := config.HTTPClient
	if hc == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		http:    hc,
	}, nil
}

// APIError is a non-2xx response. Problem holds the decoded RFC 7807 body
// when the server sent one.
type APIError struct {
	StatusCode int
	Problem    *Problem
}

func (e *APIError) Error() string {
	if e.Problem != nil && e.Problem.Detail != "" {
		return fmt.Sprintf("portal API %d: %s", e.StatusCode, e.Problem.Detail)
	}
	return fmt.Sprintf("portal API %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Filter narrows cohort queries.
type Filter struct {
	Status string
	Limit  int
}

func (f Filter) values(v url.Values) url.Values {
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	return v
}

// do sends an authenticated request and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var p Problem
		if err := json.NewDecoder(resp.Body).Decode(&p); err == nil && p.Status != 0 {
			apiErr.Problem = &p
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func yearPath(year int, rest string) string {
	return "/api/v1/surveys/" + strconv.Itoa(year) + rest
}

// Health returns the server health
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Surveys lists the supported survey years.
func (c *Client) Surveys(ctx context.Context) (*SurveysResponse, error) {
	var out SurveysResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/surveys", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Sections returns the section layout of year with question labels.
func (c *Client) Sections(ctx context.Context, year int) (*SectionsResponse, error) {
	var out SectionsResponse
	if err := c.do(ctx, http.MethodGet, yearPath(year, "/sections"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResponseSections returns one response composed for the caller's role.
func (c *Client) ResponseSections(ctx context.Context, year int, id string) (*ResponseSectionsResponse, error) {
	var out ResponseSectionsResponse
	path := yearPath(year, "/responses/"+url.PathEscape(id)+"/sections")
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ImportResponse stores a response row. Requires an admin key.
func (c *Client) ImportResponse(ctx context.Context, year int, req ImportResponseRequest) (*ImportResponseResult, error) {
	var out ImportResponseResult
	if err := c.do(ctx, http.MethodPost, yearPath(year, "/responses"), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Distribution returns the answer buckets of field.
func (c *Client) Distribution(ctx context.Context, year int, field string, filter Filter) (*DistributionResponse, error) {
	var out DistributionResponse
	q := filter.values(url.Values{"field": {field}})
	if err := c.do(ctx, http.MethodGet, yearPath(year, "/analytics/distribution"), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// NumericStats returns the numeric summary of field.
func (c *Client) NumericStats(ctx context.Context, year int, field string, filter Filter) (*NumericStatsResponse, error) {
	var out NumericStatsResponse
	q := filter.values(url.Values{"field": {field}})
	if err := c.do(ctx, http.MethodGet, yearPath(year, "/analytics/stats"), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Summary returns the cohort report of every field the caller may see.
func (c *Client) Summary(ctx context.Context, year int, filter Filter) (*CohortReport, error) {
	var out CohortReport
	q := filter.values(url.Values{})
	if err := c.do(ctx, http.MethodGet, yearPath(year, "/analytics/summary"), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReportLink returns a presigned URL of the last published report.
func (c *Client) ReportLink(ctx context.Context, year int) (*ReportLinkResponse, error) {
	var out ReportLinkResponse
	if err := c.do(ctx, http.MethodGet, yearPath(year, "/report"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Visibility returns the visibility matrix. Requires an admin key.
func (c *Client) Visibility(ctx context.Context) ([]FieldVisibility, error) {
	var out VisibilityResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/visibility", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// UpdateVisibility upserts matrix entries. Requires an admin key.
func (c *Client) UpdateVisibility(ctx context.Context, entries []FieldVisibility) (int, error) {
	var out VisibilityUpdateResult
	if err := c.do(ctx, http.MethodPut, "/api/v1/visibility", nil, VisibilityUpdateRequest{Entries: entries}, &out); err != nil {
		return 0, err
	}
	return out.Updated, nil
}
