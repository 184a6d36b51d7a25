// Package linda is a thin client for the l1nda scheduling feed. It only
// fetches week payloads; all month logic lives in the rooster package.
package linda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"factuur/internal/core"
)

// DefaultBaseURL is the production feed endpoint.
const DefaultBaseURL = "https://denieuweanita.l1nda.nl"

var (
	// ErrAuthMissing is returned when no session cookie is configured.
	ErrAuthMissing = errors.New("no l1nda session cookie configured")
	// ErrMalformedPayload is returned when a response cannot be decoded
	// into the week payload shape.
	ErrMalformedPayload = errors.New("malformed week payload")
)

// Client fetches week payloads using an opaque session cookie. The cookie
// is passed in explicitly; the client never reads process environment.
type Client struct {
	baseURL    string
	authCookie string
	httpClient *http.Client
}

func New(baseURL, authCookie string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		authCookie: authCookie,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchWeek calls GET {base}/week/{year}/{week}?xhr=true and decodes the
// response. It performs no retries; transport failures are the caller's
// problem to surface.
func (c *Client) FetchWeek(ctx context.Context, year, week int) (core.Week, error) {
	if c.authCookie == "" {
		return core.Week{}, ErrAuthMissing
	}

	url := fmt.Sprintf("%s/week/%d/%d?xhr=true", c.baseURL, year, week)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return core.Week{}, fmt.Errorf("build week request: %w", err)
	}
	req.Header.Set("Cookie", c.authCookie)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.Week{}, fmt.Errorf("fetch week %d/%d: %w", year, week, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return core.Week{}, fmt.Errorf("fetch week %d/%d: status %d: %s", year, week, resp.StatusCode, body)
	}

	var payload core.Week
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return core.Week{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	return payload, nil
}
