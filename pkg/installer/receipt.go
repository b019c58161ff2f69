package installer

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ReceiptName is the install record written into the target directory.
// Uninstall removes exactly what the receipt lists, nothing else.
const ReceiptName = "install-receipt.yaml"

// Receipt records one completed install.
type Receipt struct {
	App         string    `yaml:"app"`
	Version     string    `yaml:"version"`
	InstalledAt time.Time `yaml:"installed_at"`
	ConfigFile  string    `yaml:"config_file,omitempty"`
	Files       []string  `yaml:"files"`
}

// WriteReceipt stores the receipt in targetDir.
func WriteReceipt(targetDir string, r *Receipt) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "failed to marshal install receipt")
	}
	path := filepath.Join(targetDir, ReceiptName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// ReadReceipt loads the receipt from targetDir.
func ReadReceipt(targetDir string) (*Receipt, error) {
	path := filepath.Join(targetDir, ReceiptName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	var r Receipt
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return &r, nil
}

// HasReceipt reports whether targetDir holds a managed install.
func HasReceipt(targetDir string) bool {
	_, err := os.Stat(filepath.Join(targetDir, ReceiptName))
	return err == nil
}
