// Package upstream wraps http.Client with the request shaping the video
// platforms expect: browser headers, per-request timeouts, and the
// compressed-payload mode iQiyi's bullet endpoint uses.
package upstream

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DesktopUA mimics the Chrome build the platform web players ship with.
// Several endpoints reject unknown user agents outright.
const DesktopUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Client is a thin wrapper over http.Client shared by all protocol clients.
type Client struct {
	httpc *http.Client
}

// New constructs a Client. A nil httpc gets a default with the given timeout.
func New(httpc *http.Client, timeout time.Duration) *Client {
	if httpc == nil {
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpc = &http.Client{Timeout: timeout}
	}
	return &Client{httpc: httpc}
}

// Response carries the body plus the header fields some clients need
// (Youku reads Etag and Set-Cookie from its auxiliary endpoints).
type Response struct {
	Body       []byte
	Header     http.Header
	StatusCode int
}

// Get issues a GET with browser defaults; extra headers override them.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, "", nil, headers)
}

// GetJSON issues a GET and decodes the response body into v.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, v any) error {
	resp, err := c.Get(ctx, url, headers)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// GetInflate issues a GET and zlib-inflates the response body.
func (c *Client) GetInflate(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	resp, err := c.Get(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	zr, err := zlib.NewReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("inflate %s: %w", url, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflate %s: %w", url, err)
	}
	return out, nil
}

// PostForm issues a POST with a urlencoded body.
func (c *Client) PostForm(ctx context.Context, url, body string, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodPost, url, "application/x-www-form-urlencoded", strings.NewReader(body), headers)
}

func (c *Client) do(ctx context.Context, method, url, contentType string, body io.Reader, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", DesktopUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, url, err)
	}
	return &Response{Body: data, Header: resp.Header, StatusCode: resp.StatusCode}, nil
}
