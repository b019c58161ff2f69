package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// connectionsDoc is the JSON exchange format shared with the desktop build:
// {"connections": [...]}. Import also accepts a bare array.
type connectionsDoc struct {
	Connections []Connection `json:"connections"`
}

// ImportConnections reads a connection list from a JSON file.
func ImportConnections(path string) ([]Connection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read connections file: %s", path)
	}

	var doc connectionsDoc
	if err := json.Unmarshal(data, &doc); err == nil && doc.Connections != nil {
		return doc.Connections, nil
	}

	var conns []Connection
	if err := json.Unmarshal(data, &conns); err != nil {
		return nil, errors.Wrapf(err, "failed to parse connections file: %s", path)
	}
	return conns, nil
}

// ExportConnections writes the connection list as {"connections": [...]}.
func ExportConnections(path string, conns []Connection) error {
	if conns == nil {
		conns = []Connection{}
	}
	data, err := json.MarshalIndent(connectionsDoc{Connections: conns}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal connections")
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write connections file: %s", path)
	}
	return nil
}
