// Package client talks to a running memstress server over HTTP.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is a client for the memstress HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new client for the given server base URL
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("server URL cannot be empty")
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}, nil
}

// Status is the server's status reply
type Status struct {
	AllocatedMB int `json:"allocated_mb"`
	Groups      int `json:"groups"`
	RSSMB       int `json:"rss_mb,omitempty"`
}

// OpResult is the server's reply to a mutating operation
type OpResult struct {
	OK             bool   `json:"ok"`
	AddedMB        int    `json:"added_mb,omitempty"`
	ChunkMB        int    `json:"chunk_mb,omitempty"`
	FreedRequestMB int    `json:"freed_request_mb,omitempty"`
	TotalMB        int    `json:"total_mb"`
	Note           string `json:"note,omitempty"`
}

// errorResponse is the server's error reply shape
type errorResponse struct {
	Error string `json:"error"`
}

// Status fetches the current pool totals
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var status Status
	if err := c.do(ctx, http.MethodGet, "/", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Add grows the pool by mb mebibytes. A chunk of 0 uses the server default.
func (c *Client) Add(ctx context.Context, mb, chunk int) (*OpResult, error) {
	params := url.Values{"mb": {strconv.Itoa(mb)}}
	if chunk > 0 {
		params.Set("chunk", strconv.Itoa(chunk))
	}
	var result OpResult
	if err := c.do(ctx, http.MethodPost, "/mem/add", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Set converges the pool to an absolute target
func (c *Client) Set(ctx context.Context, mb int) (*OpResult, error) {
	params := url.Values{"mb": {strconv.Itoa(mb)}}
	var result OpResult
	if err := c.do(ctx, http.MethodPost, "/mem/set", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Free shrinks the pool by up to mb mebibytes
func (c *Client) Free(ctx context.Context, mb int) (*OpResult, error) {
	params := url.Values{"mb": {strconv.Itoa(mb)}}
	var result OpResult
	if err := c.do(ctx, http.MethodPost, "/mem/free", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Clear releases everything the pool holds
func (c *Client) Clear(ctx context.Context) (*OpResult, error) {
	var result OpResult
	if err := c.do(ctx, http.MethodPost, "/mem/clear", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health checks server liveness
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

// do sends a request and decodes the JSON reply into out
func (c *Client) do(ctx context.Context, method, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server error: %s", errResp.Error)
		}
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
