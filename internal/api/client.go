// Package api is the HTTP client the browse UI uses to talk to a
// running timelane server.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/timelane/timelane/internal/timeline"
)

// Client fetches catalog data from a timelane server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL, e.g.
// "http://127.0.0.1:8448".
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// listResponse mirrors the server's /api/files payload.
type listResponse struct {
	Items      []timeline.FileRecord `json:"items"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// FetchFiles retrieves one page of files matching the filters. It
// satisfies the loader's fetcher contract.
func (c *Client) FetchFiles(ctx context.Context, f timeline.Filters) (*timeline.Dataset, error) {
	q := url.Values{}
	if f.Query != "" {
		q.Set("q", f.Query)
	}
	if f.Ext != "" {
		q.Set("ext", f.Ext)
	}
	if f.DateFrom != nil {
		q.Set("date_from", f.DateFrom.UTC().Format(time.RFC3339))
	}
	if f.DateTo != nil {
		q.Set("date_to", f.DateTo.UTC().Format(time.RFC3339))
	}
	if f.MinSize != nil {
		q.Set("min_size", strconv.FormatInt(*f.MinSize, 10))
	}
	if f.MaxSize != nil {
		q.Set("max_size", strconv.FormatInt(*f.MaxSize, 10))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(f.PageSize))
	}

	var res listResponse
	if err := c.getJSON(ctx, "/api/files?"+q.Encode(), &res); err != nil {
		return nil, err
	}

	return timeline.NewDataset(res.Items, f, res.Total), nil
}

// Preview downloads a file's content for inline display. The returned
// mime comes from the response header.
func (c *Client) Preview(ctx context.Context, id string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/files/"+url.PathEscape(id)+"/preview", nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch preview: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("preview %s: %s", id, resp.Status)
	}

	// Previews render in a terminal pane; cap what we pull down.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, "", fmt.Errorf("read preview: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// ServerConfig is the subset of server settings the UI cares about.
type ServerConfig struct {
	FilesRoot    string   `json:"files_root"`
	EnableUpload bool     `json:"enable_upload"`
	AllowedExt   []string `json:"allowed_ext"`
	PageSize     int      `json:"page_size"`
	Theme        string   `json:"theme"`
}

// Config fetches the server's advertised configuration.
func (c *Client) Config(ctx context.Context) (ServerConfig, error) {
	var cfg ServerConfig
	if err := c.getJSON(ctx, "/api/config", &cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// Health probes the server and returns the indexed file count.
func (c *Client) Health(ctx context.Context) (int, error) {
	var res struct {
		Status string `json:"status"`
		Files  int    `json:"files"`
	}
	if err := c.getJSON(ctx, "/health", &res); err != nil {
		return 0, err
	}
	if res.Status != "ok" {
		return 0, fmt.Errorf("server unhealthy: %s", res.Status)
	}
	return res.Files, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", path, apiErr.Error)
		}
		return fmt.Errorf("%s: %s", path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
