package config

import (
	"net/url"
	"slices"
	"strconv"
)

const (
	defaultOpenLPHost = "localhost"
	defaultOpenLPPort = 4317
)

// Bundles resolves the effective connection list. Each connection gets its
// blanks filled from settings, and configs written before multi-connection
// support (a single ws URL under settings) get one synthesized connection,
// so the bridge always has at least one endpoint to listen on.
func (c *Config) Bundles() []Connection {
	if len(c.Connections) > 0 {
		out := make([]Connection, len(c.Connections))
		for i, conn := range c.Connections {
			out[i] = c.fillConnection(conn)
		}
		return out
	}

	host, port := parseWSURL(c.Settings.OpenLPWSURL)
	return []Connection{{
		Name:       "Default",
		OpenLPIP:   host,
		WSPort:     port,
		VMixAPIURL: c.Settings.VMixAPIURL,
		Mappings: []Mapping{{
			Input: c.Settings.VMixTitleInput,
			Field: c.Settings.VMixTitleField,
		}},
	}}
}

// fillConnection applies the settings-level fallbacks to a single connection.
func (c *Config) fillConnection(conn Connection) Connection {
	if conn.Name == "" {
		conn.Name = "Connection"
	}
	if conn.OpenLPIP == "" {
		conn.OpenLPIP = "127.0.0.1"
	}
	if conn.WSPort == 0 {
		conn.WSPort = defaultOpenLPPort
	}
	if conn.VMixAPIURL == "" {
		conn.VMixAPIURL = c.Settings.VMixAPIURL
	}
	mappings := make([]Mapping, len(conn.Mappings))
	for i, m := range conn.Mappings {
		if m.Input == "" {
			m.Input = c.Settings.VMixTitleInput
		}
		if m.Field == "" {
			m.Field = c.Settings.VMixTitleField
		}
		mappings[i] = m
	}
	conn.Mappings = mappings
	return conn
}

// parseWSURL extracts host and port from a legacy ws://host:port value.
// Anything malformed falls back to the stock OpenLP endpoint.
func parseWSURL(raw string) (string, int) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "ws" || u.Hostname() == "" {
		return defaultOpenLPHost, defaultOpenLPPort
	}
	port := defaultOpenLPPort
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return defaultOpenLPHost, defaultOpenLPPort
		}
		port = n
	}
	return u.Hostname(), port
}

// ActionForKey resolves a deck button press to a bridge action name via the
// configured roles. The first role claiming the deck and key wins.
func (c *Config) ActionForKey(deck int, key string) (string, bool) {
	for _, role := range c.Roles {
		if !slices.Contains(role.Decks, deck) {
			continue
		}
		if action, ok := role.Buttons[key]; ok && action != "" {
			return action, true
		}
	}
	return "", false
}
