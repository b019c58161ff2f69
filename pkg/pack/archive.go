package pack

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ArchiveName builds the distributable file name:
// <AppNameSansSpace>_<version>_windows_<arch>.zip
func ArchiveName(appName, version, arch string) string {
	return fmt.Sprintf("%s_%s_windows_%s.zip", strings.ReplaceAll(appName, " ", ""), version, arch)
}

// Archive zips payloadDir into zipPath. Entries are written in sorted path
// order so the same payload always produces the same archive layout.
func Archive(payloadDir, zipPath string) error {
	var files []string
	err := filepath.WalkDir(payloadDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "failed to scan payload directory: %s", payloadDir)
	}
	if len(files) == 0 {
		return errors.Errorf("nothing to archive under %s", payloadDir)
	}
	sort.Strings(files)

	if err := os.MkdirAll(filepath.Dir(zipPath), 0755); err != nil {
		return errors.Wrapf(err, "failed to create output directory for %s", zipPath)
	}
	out, err := os.Create(zipPath)
	if err != nil {
		return errors.Wrapf(err, "failed to create archive: %s", zipPath)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	for _, path := range files {
		if err := addToZip(w, payloadDir, path); err != nil {
			w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "failed to finalize archive: %s", zipPath)
	}
	return out.Close()
}

func addToZip(w *zip.Writer, root, path string) error {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return errors.Wrap(err, "failed to resolve archive entry name")
	}

	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "failed to stat %s", path)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return errors.Wrapf(err, "failed to build header for %s", path)
	}
	header.Name = filepath.ToSlash(rel)
	header.Method = zip.Deflate

	entry, err := w.CreateHeader(header)
	if err != nil {
		return errors.Wrapf(err, "failed to add %s to archive", rel)
	}
	in, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	defer in.Close()

	if _, err := io.Copy(entry, in); err != nil {
		return errors.Wrapf(err, "failed to compress %s", rel)
	}
	return nil
}

// ExtractZip unpacks a payload archive into destDir.
func ExtractZip(zipPath, destDir string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return errors.Wrapf(err, "failed to open archive: %s", zipPath)
	}
	defer reader.Close()

	destDir = filepath.Clean(destDir)
	for _, file := range reader.File {
		target := filepath.Join(destDir, filepath.FromSlash(file.Name))
		// Reject entries that escape the destination.
		if target != destDir && !strings.HasPrefix(target, destDir+string(os.PathSeparator)) {
			return errors.Errorf("invalid path in archive: %s", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return errors.Wrapf(err, "failed to create directory: %s", target)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return errors.Wrapf(err, "failed to create parent directory for %s", target)
		}

		if err := extractFile(file, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(file *zip.File, target string) error {
	in, err := file.Open()
	if err != nil {
		return errors.Wrapf(err, "failed to open archive entry: %s", file.Name)
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, file.Mode().Perm())
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", target)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "failed to extract %s", file.Name)
	}
	return out.Close()
}
