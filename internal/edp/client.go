// Package edp is the gateway to the EDP SimpleWastePickup upstream: address
// search and schedule lookup for the municipality.
package edp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/alvasen/sophamtning-ale/internal/schedule"
)

const (
	// DefaultBaseURL is the municipal scheduling API for Ale kommun.
	DefaultBaseURL = "https://edp.ale.se/FutureWeb/SimpleWastePickup"

	SearchPath   = "/SearchAdress" // upstream spells it this way
	SchedulePath = "/GetWastePickupSchedule"

	defaultTimeout  = 15 * time.Second
	maxResponseSize = 2 << 20 // 2 MiB cap on upstream payloads
)

// StatusError carries a non-success upstream HTTP status so callers acting
// as a proxy can relay it unchanged.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("edp: upstream returned status %d", e.StatusCode)
}

// SearchResponse is the upstream address search payload.
type SearchResponse struct {
	Succeeded bool     `json:"Succeeded"`
	Buildings []string `json:"Buildings"`
}

// Client talks to the EDP upstream. It performs no retries: a failed call
// is reported once and handled by the caller's cache fallback.
type Client struct {
	baseURL string
	httpc   *http.Client
	limiter *RateLimiter
}

// NewClient builds a gateway client. httpc may carry the offline-cache
// transport; nil gets a plain client with the default timeout. minInterval
// of zero disables rate limiting.
func NewClient(baseURL string, httpc *http.Client, minInterval time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: baseURL,
		httpc:   httpc,
		limiter: NewRateLimiter(minInterval),
	}
}

// SearchAddress queries the upstream for addresses matching the text.
func (c *Client) SearchAddress(ctx context.Context, text string) (*SearchResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]string{"searchText": text})
	if err != nil {
		return nil, fmt.Errorf("edp: encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+SearchPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("edp: building search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp SearchResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSchedule fetches the raw pickup schedule for an address.
func (c *Client) GetSchedule(ctx context.Context, address string) (*schedule.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + SchedulePath + "?address=" + url.QueryEscape(address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("edp: building schedule request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var resp schedule.Response
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("edp: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("edp: closing response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode}
	}

	body := io.LimitReader(resp.Body, maxResponseSize)
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("edp: decoding response: %w", err)
	}
	return nil
}
