package pack

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ManifestName is the payload descriptor carried at the staging root.
const ManifestName = "payload.yaml"

// Manifest describes a staged payload: what app it is and exactly which
// files it ships. The install engine consumes it verbatim.
type Manifest struct {
	App       string         `yaml:"app"`
	Version   string         `yaml:"version"`
	CreatedAt time.Time      `yaml:"created_at"`
	TotalSize int64          `yaml:"total_size"`
	Files     []ManifestFile `yaml:"files"`
}

// ManifestFile is one payload file, with a forward-slash path relative to
// the staging root.
type ManifestFile struct {
	Path   string `yaml:"path"`
	Size   int64  `yaml:"size"`
	SHA256 string `yaml:"sha256"`
}

// BuildManifest hashes every file under payloadDir into a Manifest. The
// manifest file itself is excluded, so rebuilding over an existing staging
// directory is stable.
func BuildManifest(payloadDir, app, version string) (*Manifest, error) {
	m := &Manifest{
		App:       app,
		Version:   version,
		CreatedAt: time.Now().UTC(),
	}

	err := filepath.WalkDir(payloadDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(payloadDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == ManifestName {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		sum, err := ComputeFileSHA256(path)
		if err != nil {
			return err
		}
		m.Files = append(m.Files, ManifestFile{Path: rel, Size: info.Size(), SHA256: sum})
		m.TotalSize += info.Size()
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build manifest for %s", payloadDir)
	}
	if len(m.Files) == 0 {
		return nil, errors.Errorf("no files to package under %s", payloadDir)
	}

	sort.Slice(m.Files, func(i, j int) bool { return m.Files[i].Path < m.Files[j].Path })
	return m, nil
}

// WriteManifest writes m as payload.yaml at the staging root.
func WriteManifest(payloadDir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "failed to marshal manifest")
	}
	path := filepath.Join(payloadDir, ManifestName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// ReadManifest loads payload.yaml from dir.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return &m, nil
}
