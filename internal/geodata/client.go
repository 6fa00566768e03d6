// Package geodata queries an Overpass-style map-feature backend and
// normalizes tagged features into candidate business records.
package geodata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://overpass-api.de/api/interpreter"

// Response bodies above this size are cut off; a bounded city query stays far
// below it.
const maxResponseBytes = 32 << 20

var (
	// ErrRateLimited indicates the backend turned the query away with 429.
	ErrRateLimited = errors.New("geodata backend rate limited")

	// ErrInvalidResponse indicates a 200 response whose body was not the
	// expected JSON. Overpass serves HTML error pages with a success status
	// when a query times out server-side.
	ErrInvalidResponse = errors.New("geodata backend returned non-JSON response")
)

// StatusError reports a non-2xx, non-429 HTTP failure.
type StatusError struct {
	Status int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("geodata backend returned status %d", e.Status)
}

// Element is one tagged map feature from the backend. Ways and relations
// carry their coordinates in Center; nodes carry Lat/Lon directly.
type Element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat,omitempty"`
	Lon    float64           `json:"lon,omitempty"`
	Center *Coordinates      `json:"center,omitempty"`
	Tags   map[string]string `json:"tags"`
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ExternalID returns the stable "type/id" identifier used for deduplication.
func (e Element) ExternalID() string {
	return fmt.Sprintf("%s/%d", e.Type, e.ID)
}

// Position resolves the element's coordinates, preferring the computed center.
func (e Element) Position() (float64, float64, bool) {
	if e.Center != nil {
		return e.Center.Lat, e.Center.Lon, true
	}
	if e.Lat != 0 || e.Lon != 0 {
		return e.Lat, e.Lon, true
	}
	return 0, 0, false
}

// Client posts query-language bodies to the geodata backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient builds a geodata client. A nil httpClient gets a 60s timeout,
// sized for Overpass queries that can legitimately run long.
func NewClient(httpClient *http.Client, baseURL, userAgent string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{httpClient: httpClient, baseURL: baseURL, userAgent: userAgent}
}

// Query executes one query and returns the raw elements.
func (c *Client) Query(ctx context.Context, query string) ([]Element, error) {
	form := url.Values{"data": {query}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create geodata request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geodata request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read geodata response: %w", err)
	}

	var payload struct {
		Elements []Element `json:"elements"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, ErrInvalidResponse
	}

	return payload.Elements, nil
}
