package pack

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// SumsName is the checksum file written beside the archive.
const SumsName = "SHA256SUMS"

// ComputeFileSHA256 returns the hex SHA-256 of a file.
func ComputeFileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrapf(err, "failed to hash %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteSums writes a SHA256SUMS file covering the given files. Entries use
// the "<hash>  <filename>" layout shasum tools expect.
func WriteSums(sumsPath string, files ...string) error {
	var b strings.Builder
	for _, file := range files {
		sum, err := ComputeFileSHA256(file)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "%s  %s\n", sum, filepath.Base(file))
	}
	if err := os.WriteFile(sumsPath, []byte(b.String()), 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", sumsPath)
	}
	return nil
}

// VerifySums recomputes every entry of a SHA256SUMS file against the files
// in its directory.
func VerifySums(sumsPath string) error {
	data, err := os.ReadFile(sumsPath)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", sumsPath)
	}

	entries := parseSums(string(data))
	if len(entries) == 0 {
		return errors.Errorf("no checksum entries in %s", sumsPath)
	}

	dir := filepath.Dir(sumsPath)
	for filename, want := range entries {
		got, err := ComputeFileSHA256(filepath.Join(dir, filename))
		if err != nil {
			return err
		}
		if got != want {
			return errors.Errorf("checksum mismatch for %s: expected %s, got %s", filename, want, got)
		}
	}
	return nil
}

// parseSums parses "<hash> [*]<filename>" lines into a map.
func parseSums(content string) map[string]string {
	sums := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		sums[strings.TrimPrefix(parts[1], "*")] = parts[0]
	}
	return sums
}
