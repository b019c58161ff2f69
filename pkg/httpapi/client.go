package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/lyrisync/lyrisync/pkg/bridge"
	"github.com/lyrisync/lyrisync/pkg/config"
)

// Client drives a running lyrisync instance through its control API. Used
// by the send/clear/overlay/record/status commands.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient returns a Client for the local instance on the given port.
func NewClient(port int) *Client {
	return NewClientURL(fmt.Sprintf("http://127.0.0.1:%d", port))
}

// NewClientURL returns a Client for an explicit base URL.
func NewClientURL(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 5 * time.Second},
	}
}

type apiResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Status fetches the bridge state.
func (c *Client) Status(ctx context.Context) (*bridge.State, error) {
	var state bridge.State
	if err := c.get(ctx, "/api/status", &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Roles fetches the configured deck roles.
func (c *Client) Roles(ctx context.Context) ([]config.Role, error) {
	var payload struct {
		Roles []config.Role `json:"roles"`
	}
	if err := c.get(ctx, "/api/roles", &payload); err != nil {
		return nil, err
	}
	return payload.Roles, nil
}

// Send stores new lyrics text and shows it.
func (c *Client) Send(ctx context.Context, text string) error {
	return c.post(ctx, "/api/show_lyrics", map[string]string{"text": text})
}

// Show re-sends whatever lyrics the instance currently holds.
func (c *Client) Show(ctx context.Context) error {
	return c.post(ctx, "/api/show_lyrics", nil)
}

// Clear blanks the output.
func (c *Client) Clear(ctx context.Context) error {
	return c.post(ctx, "/api/clear_lyrics", nil)
}

// ToggleOverlay toggles the configured overlay channel.
func (c *Client) ToggleOverlay(ctx context.Context) error {
	return c.post(ctx, "/api/toggle_overlay", nil)
}

// StartRecording starts recording.
func (c *Client) StartRecording(ctx context.Context) error {
	return c.post(ctx, "/api/start_recording", nil)
}

// StopRecording stops recording.
func (c *Client) StopRecording(ctx context.Context) error {
	return c.post(ctx, "/api/stop_recording", nil)
}

// Do dispatches an arbitrary action by name.
func (c *Client) Do(ctx context.Context, action string) error {
	return c.post(ctx, "/api/action", map[string]string{"action": action})
}

// Deck resolves a deck button through the instance's roles and runs it.
func (c *Client) Deck(ctx context.Context, deck int, key string) error {
	return c.post(ctx, "/api/deck", map[string]any{"deck": deck, "key": key})
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "no lyrisync instance reachable at %s", c.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("%s returned HTTP %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to parse %s response", path)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return errors.Wrap(err, "failed to encode request body")
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "no lyrisync instance reachable at %s", c.baseURL)
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return errors.Errorf("%s returned HTTP %d", path, resp.StatusCode)
	}
	if !parsed.Success {
		if parsed.Error != "" {
			return errors.Errorf("%s failed: %s", path, parsed.Error)
		}
		return errors.Errorf("%s returned HTTP %d", path, resp.StatusCode)
	}
	return nil
}
