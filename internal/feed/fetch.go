package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	requestTimeout = 15 * time.Second
	maxPayloadSize = 4 << 20 // 4 MiB, feeds are small
	userAgent      = "prism/1.0 (+feed reader)"
)

// Client fetches raw feed payloads over HTTP. One shared client serves all
// sources; a global limiter keeps the fan-out polite.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a fetch client. requestsPerSecond <= 0 disables the
// limiter.
func NewClient(requestsPerSecond float64) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), int(requestsPerSecond)+1)
	}
	return &Client{
		http:    &http.Client{Timeout: requestTimeout},
		limiter: limiter,
	}
}

// Fetch downloads one feed payload. Errors are scoped to the one source
// being fetched; callers log and continue.
func (c *Client) Fetch(ctx context.Context, feedURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", feedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", feedURL, resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", feedURL, err)
	}
	return payload, nil
}
