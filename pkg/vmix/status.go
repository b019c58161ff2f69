package vmix

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Status is the slice of the vMix state XML the bridge cares about.
type Status struct {
	Recording bool
	Overlays  [4]bool
}

// OverlayActive reports whether the given overlay channel (1..4) is live.
func (s *Status) OverlayActive(channel int) bool {
	channel = min(max(channel, 1), 4)
	return s.Overlays[channel-1]
}

// Input is one entry of the vMix input list. Fields holds the names of the
// text fields a title input exposes.
type Input struct {
	Name   string
	Fields []string
}

type stateXML struct {
	Recording string     `xml:"recording"`
	Overlay1  string     `xml:"overlay1"`
	Overlay2  string     `xml:"overlay2"`
	Overlay3  string     `xml:"overlay3"`
	Overlay4  string     `xml:"overlay4"`
	Inputs    []inputXML `xml:"inputs>input"`
}

type inputXML struct {
	Title      string    `xml:"title,attr"`
	ShortTitle string    `xml:"shortTitle,attr"`
	Number     string    `xml:"number,attr"`
	Data       *dataXML  `xml:"data"`
	Texts      []textXML `xml:"text"`
}

type dataXML struct {
	Texts []textXML `xml:"text"`
}

type textXML struct {
	Name string `xml:"name,attr"`
}

// Status fetches and parses the vMix state XML.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	state, err := c.fetchState(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{
		Recording: isTrue(state.Recording),
		Overlays: [4]bool{
			isTrue(state.Overlay1),
			isTrue(state.Overlay2),
			isTrue(state.Overlay3),
			isTrue(state.Overlay4),
		},
	}, nil
}

// DiscoverInputs lists the inputs of the vMix instance in document order,
// deduplicated by name. Title inputs carry the names of their text fields,
// which is what connection mappings point at.
func (c *Client) DiscoverInputs(ctx context.Context) ([]Input, error) {
	state, err := c.fetchState(ctx)
	if err != nil {
		return nil, err
	}

	var inputs []Input
	index := make(map[string]int)
	for _, node := range state.Inputs {
		name := node.Title
		if name == "" {
			name = node.ShortTitle
		}
		if name == "" {
			name = node.Number
		}
		if name == "" {
			name = "Unknown"
		}

		i, seen := index[name]
		if !seen {
			inputs = append(inputs, Input{Name: name})
			i = len(inputs) - 1
			index[name] = i
		}

		texts := node.Texts
		if node.Data != nil {
			texts = append(texts, node.Data.Texts...)
		}
		for _, txt := range texts {
			if txt.Name != "" && !slices.Contains(inputs[i].Fields, txt.Name) {
				inputs[i].Fields = append(inputs[i].Fields, txt.Name)
			}
		}
	}
	return inputs, nil
}

func (c *Client) fetchState(ctx context.Context) (*stateXML, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create vmix request")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "vmix request failed: %s", c.apiURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, errors.Errorf("vmix returned HTTP %d for state query", resp.StatusCode)
	}

	var state stateXML
	if err := xml.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, errors.Wrap(err, "failed to parse vmix state XML")
	}
	return &state, nil
}

func isTrue(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}
