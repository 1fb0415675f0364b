package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// HTTP fetches documents from a base URL with GET <base>/<page>. No client
// timeout is set; callers cancel through the context.
type HTTP struct {
	baseURL    string
	apiKey     string
	maxBytes   int64
	httpClient *http.Client
}

func NewHTTP(baseURL, apiKey string, maxBytes int64) *HTTP {
	return &HTTP{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		maxBytes:   maxBytes,
		httpClient: &http.Client{},
	}
}

func (c *HTTP) Fetch(ctx context.Context, page string) ([]byte, error) {
	name, err := CleanPage(page)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+escapePath(name), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", page, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("get document %s: status %d: %s", page, resp.StatusCode, string(respBody))
	}

	data, err := readLimited(resp.Body, c.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", page, err)
	}
	return data, nil
}

// Close releases idle connections.
func (c *HTTP) Close() {
	c.httpClient.CloseIdleConnections()
}

func escapePath(name string) string {
	segs := strings.Split(name, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
