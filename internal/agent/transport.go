package agent

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alvasen/sophamtning-ale/internal/cache"
)

// Transport is an http.RoundTripper applying the offline interception
// policy: network first, cache as fallback. Only GET requests are
// intercepted; everything else passes through untouched.
type Transport struct {
	Base   http.RoundTripper
	Bucket *cache.Bucket
}

// RequestKey is the cache key for a request: method plus full URL.
func RequestKey(req *http.Request) string {
	return req.Method + " " + req.URL.String()
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return t.base().RoundTrip(req)
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		// Offline or unreachable: serve the best stored match, if any.
		cached, cerr := t.Bucket.Match(req.Context(), RequestKey(req))
		if cerr != nil {
			return nil, err // surface the network error, not the cache miss
		}
		slog.Debug("agent: serving response from offline cache", "url", req.URL.String())
		return cached.HTTP(req), nil
	}

	if storable(req, resp.StatusCode) {
		body, rerr := io.ReadAll(resp.Body)
		closeErr := resp.Body.Close()
		if rerr != nil {
			return nil, rerr
		}
		if closeErr != nil {
			slog.Warn("agent: closing upstream body", "error", closeErr)
		}

		entry := &cache.Response{
			Status: resp.StatusCode,
			Header: resp.Header.Clone(),
			Body:   body,
		}
		// A failed cache write must never fail the live response.
		if err := t.Bucket.Put(req.Context(), RequestKey(req), entry); err != nil {
			slog.Warn("agent: storing response", "url", req.URL.String(), "error", err)
		}
		resp.Body = io.NopCloser(strings.NewReader(string(body)))
	}
	return resp, nil
}

// storable decides whether a completed response is cached: API paths cache
// any completed response, everything else only a plain 200.
func storable(req *http.Request, status int) bool {
	if isAPIPath(req.URL.Path) {
		return true
	}
	return status == http.StatusOK
}

func isAPIPath(path string) bool {
	return strings.Contains(path, "/api/") ||
		strings.Contains(path, "/SimpleWastePickup/")
}
