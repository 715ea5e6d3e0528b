package mediamtx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/smazurov/doorbell/internal/logging"
)

// ErrPathNotFound is returned when MediaMTX does not know a path
var ErrPathNotFound = errors.New("path not found")

// Client is an HTTP client for the MediaMTX control API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// PathInfo represents information about a MediaMTX path
type PathInfo struct {
	Name   string `json:"name"`
	Source *struct {
		Type string `json:"type"`
	} `json:"source"`
	Ready     bool     `json:"ready"`
	Tracks    []string `json:"tracks"`
	ReadyTime *string  `json:"readyTime"`
}

// PathListResponse represents the response from the paths list endpoint
type PathListResponse struct {
	ItemCount int         `json:"itemCount"`
	Items     []*PathInfo `json:"items"`
}

// NewClient creates a new MediaMTX API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logging.GetLogger("mediamtx"),
	}
}

// Available checks if the MediaMTX API is reachable
func (c *Client) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := c.ListPaths(ctx)
	return err == nil
}

// ListPaths returns all paths currently in MediaMTX
func (c *Client) ListPaths(ctx context.Context) ([]*PathInfo, error) {
	var pathList PathListResponse
	if err := c.get(ctx, "/v3/paths/list", &pathList); err != nil {
		return nil, fmt.Errorf("failed to list paths: %w", err)
	}
	return pathList.Items, nil
}

// GetPath returns the state of a single path
func (c *Client) GetPath(ctx context.Context, name string) (*PathInfo, error) {
	var info PathInfo
	if err := c.get(ctx, "/v3/paths/get/"+url.PathEscape(name), &info); err != nil {
		return nil, fmt.Errorf("failed to get path %s: %w", name, err)
	}
	return &info, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("MediaMTX API unreachable", "url", req.URL.String(), "error", err)
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrPathNotFound
	default:
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
