// Package client is a small Go client for the timeline dashboard HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/your-org/agent-timeline/pkg/timeline"
)

var ErrMissingBaseURL = errors.New("client: base url is empty")

// Client talks to one timeline daemon.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrMissingBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}, nil
}

// Frame fetches the current layout frame.
func (c *Client) Frame(ctx context.Context) (timeline.Frame, error) {
	body, err := c.do(ctx, http.MethodGet, "/frame", nil)
	if err != nil {
		return timeline.Frame{}, err
	}
	var frame timeline.Frame
	if err := json.Unmarshal(body, &frame); err != nil {
		return timeline.Frame{}, fmt.Errorf("parse frame: %w", err)
	}
	return frame, nil
}

// Sessions lists sessions active inside the window.
func (c *Client) Sessions(ctx context.Context, window timeline.Window) ([]string, error) {
	path := "/sessions"
	if window != "" {
		path += "?window=" + string(window)
	}
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Sessions []string `json:"sessions"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse sessions: %w", err)
	}
	return parsed.Sessions, nil
}

// Control sends one action against the daemon's view state.
func (c *Client) Control(ctx context.Context, action string, fields map[string]any) error {
	payload := map[string]any{"action": action}
	for k, v := range fields {
		payload[k] = v
	}
	_, err := c.do(ctx, http.MethodPost, "/control", payload)
	return err
}

// Convenience wrappers for the common actions.

func (c *Client) ZoomIn(ctx context.Context) error  { return c.Control(ctx, "zoom_in", nil) }
func (c *Client) ZoomOut(ctx context.Context) error { return c.Control(ctx, "zoom_out", nil) }

func (c *Client) Pan(ctx context.Context, dx, dy float64) error {
	return c.Control(ctx, "pan", map[string]any{"dx": dx, "dy": dy})
}

func (c *Client) SetWindow(ctx context.Context, w timeline.Window) error {
	return c.Control(ctx, "set_window", map[string]any{"window": string(w)})
}

func (c *Client) SetFollowMode(ctx context.Context, enabled bool) error {
	return c.Control(ctx, "set_follow", map[string]any{"enabled": enabled})
}

func (c *Client) SelectAgent(ctx context.Context, id string) error {
	return c.Control(ctx, "select_agent", map[string]any{"agent_id": id})
}

func (c *Client) SetSession(ctx context.Context, id string) error {
	return c.Control(ctx, "set_session", map[string]any{"session_id": id})
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(b))
		req.ContentLength = int64(len(b))
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("daemon returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
