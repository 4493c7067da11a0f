package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const pushoverAPI = "https://api.pushover.net/1/messages.json"

// Pushover delivers notifications through the Pushover message API.
type Pushover struct {
	Token string
	User  string

	// HTTPClient may be overridden in tests; nil uses a default client.
	HTTPClient *http.Client
	// APIURL may be overridden in tests; empty uses the real endpoint.
	APIURL string
}

func NewPushover(token, user string) *Pushover {
	return &Pushover{Token: token, User: user}
}

func (c *Pushover) Send(ctx context.Context, n Notification) error {
	params := url.Values{}
	params.Set("token", c.Token)
	params.Set("user", c.User)
	params.Set("title", n.Title)
	params.Set("message", n.Body)
	if n.URL != "" {
		params.Set("url", n.URL)
		params.Set("url_title", n.Title)
	}

	endpoint := c.APIURL
	if endpoint == "" {
		endpoint = pushoverAPI
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("notify: building pushover request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpc := c.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return fmt.Errorf("notify: sending pushover message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("notify: pushover api error: status %s, body %s", resp.Status, string(body))
	}
	return nil
}
