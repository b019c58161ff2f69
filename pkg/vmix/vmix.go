package vmix

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultTimeout bounds every request to the vMix HTTP API. vMix answers on
// the local network, so anything slower is treated as unreachable.
const DefaultTimeout = 4 * time.Second

// Overlay actions accepted by TriggerOverlay. vMix treats In as a toggle on
// the overlay channel, On/Off force the state.
const (
	OverlayIn  = "In"
	OverlayOut = "Out"
	OverlayOn  = "On"
	OverlayOff = "Off"
)

// Client drives one vMix instance through its HTTP API
// (http://host:8088/api).
type Client struct {
	apiURL string
	httpc  *http.Client
}

// NewClient returns a Client for the given API URL. A trailing slash on the
// URL is tolerated.
func NewClient(apiURL string) *Client {
	return &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
		httpc:  &http.Client{Timeout: DefaultTimeout},
	}
}

// APIURL reports the endpoint this client talks to.
func (c *Client) APIURL() string {
	return c.apiURL
}

// SetTitleText sets one text field of a title input. An empty text is valid
// and blanks the field.
func (c *Client) SetTitleText(ctx context.Context, input, field, text string) error {
	params := url.Values{}
	params.Set("Function", "SetText")
	params.Set("Input", input)
	params.Set("SelectedName", field)
	params.Set("Value", text)
	return c.call(ctx, params)
}

// TriggerOverlay fires an overlay function on the given channel. The channel
// is clamped to 1..4 and unknown actions fall back to In.
func (c *Client) TriggerOverlay(ctx context.Context, channel int, action string) error {
	channel = min(max(channel, 1), 4)
	switch action {
	case OverlayIn, OverlayOut, OverlayOn, OverlayOff:
	default:
		action = OverlayIn
	}
	params := url.Values{}
	params.Set("Function", fmt.Sprintf("OverlayInput%d%s", channel, action))
	return c.call(ctx, params)
}

// StartRecording starts recording on the vMix instance.
func (c *Client) StartRecording(ctx context.Context) error {
	return c.callFunction(ctx, "StartRecording")
}

// StopRecording stops recording on the vMix instance.
func (c *Client) StopRecording(ctx context.Context) error {
	return c.callFunction(ctx, "StopRecording")
}

// Close releases idle connections held by the underlying HTTP client.
func (c *Client) Close() {
	c.httpc.CloseIdleConnections()
}

func (c *Client) callFunction(ctx context.Context, name string) error {
	params := url.Values{}
	params.Set("Function", name)
	return c.call(ctx, params)
}

func (c *Client) call(ctx context.Context, params url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "failed to create vmix request")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "vmix request failed: %s", c.apiURL)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("vmix returned HTTP %d for %s", resp.StatusCode, params.Get("Function"))
	}
	return nil
}
