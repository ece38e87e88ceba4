// pkg/source/client.go
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const userAgent = "reponere/0.1"

// Client downloads source archives over HTTP(S)
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a client with the default timeout
func NewClient() *Client {
	return NewClientWithTimeout(10 * time.Minute)
}

// NewClientWithTimeout creates a client with a custom timeout
func NewClientWithTimeout(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: userAgent,
	}
}

// Get performs an HTTP GET request. Any status other than 200 is an error.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}
	return resp, nil
}

// Download copies the body of url into w
func (c *Client) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		return written, fmt.Errorf("copying data: %w", err)
	}
	return written, nil
}
