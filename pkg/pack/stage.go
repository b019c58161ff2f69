package pack

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/pkg/errors"
)

// Stage copies the built application tree at sourceDir into payloadDir.
// Only regular files travel; symlinks and other irregular entries are
// skipped with a warning. payloadDir is derived output and gets wiped
// before staging.
func Stage(sourceDir, payloadDir string) error {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return errors.Wrapf(err, "source directory not found: %s", sourceDir)
	}
	if !info.IsDir() {
		return errors.Errorf("source is not a directory: %s", sourceDir)
	}
	if empty, err := isEmptyTree(sourceDir); err != nil {
		return err
	} else if empty {
		return errors.Errorf("source directory contains no files: %s", sourceDir)
	}

	if err := os.RemoveAll(payloadDir); err != nil {
		return errors.Wrapf(err, "failed to clean payload directory: %s", payloadDir)
	}
	if err := os.MkdirAll(payloadDir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create payload directory: %s", payloadDir)
	}

	return filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return errors.Wrap(err, "failed to resolve relative path")
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(payloadDir, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0755)
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return errors.Wrapf(err, "failed to stat %s", path)
			}
			return copyFile(path, target, info.Mode().Perm())
		default:
			log.Warnf("skipping irregular file: %s", rel)
			return nil
		}
	})
}

// isEmptyTree reports whether dir holds no regular files at any depth.
func isEmptyTree(dir string) (bool, error) {
	empty := true
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			empty = false
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to scan source directory: %s", dir)
	}
	return empty, nil
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", src)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Wrapf(err, "failed to create parent directory for %s", dst)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", dst)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "failed to copy %s", src)
	}
	return out.Close()
}
