package installer

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/apex/log"
	goversion "github.com/hashicorp/go-version"
	"github.com/pkg/errors"

	"github.com/lyrisync/lyrisync/pkg/config"
	"github.com/lyrisync/lyrisync/pkg/pack"
)

// Options configures one install run. Exactly one of ZipPath or PayloadDir
// supplies the payload.
type Options struct {
	ZipPath    string
	PayloadDir string
	TargetDir  string // default: platform application directory for the app
	Verify     bool   // check the SHA256SUMS beside the archive first
	Force      bool   // proceed even when a newer version is installed
	Packaging  config.Packaging
}

// Install lays the payload down in the target directory, preserving any user
// config already there, and records a receipt for uninstall.
func Install(opts Options) (*Receipt, error) {
	payloadDir, cleanup, err := resolvePayload(opts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	manifest, err := loadManifest(payloadDir, opts.Packaging)
	if err != nil {
		return nil, err
	}
	app := firstNonEmpty(manifest.App, opts.Packaging.AppName)
	if app == "" {
		return nil, errors.New("application name missing from both manifest and packaging config")
	}
	ver := firstNonEmpty(manifest.Version, opts.Packaging.Version)

	targetDir, err := ResolveTargetDir(opts.TargetDir, app)
	if err != nil {
		return nil, err
	}
	if err := checkUpgrade(targetDir, ver, opts.Force); err != nil {
		return nil, err
	}

	configFile := firstNonEmpty(opts.Packaging.ConfigFile, config.DefaultFileName)

	log.Infof("installing %s %s to %s", app, ver, targetDir)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", targetDir)
	}

	installed := make([]string, 0, len(manifest.Files))
	for _, f := range manifest.Files {
		rel := f.Path
		src := filepath.Join(payloadDir, filepath.FromSlash(rel))
		dst := filepath.Join(targetDir, filepath.FromSlash(rel))

		// Never clobber the user's config; park the bundled copy beside it.
		if rel == configFile && fileExists(dst) {
			rel += ".new"
			dst += ".new"
			log.Infof("preserving existing %s, bundled copy saved as %s", configFile, rel)
		}
		if err := installFile(src, dst); err != nil {
			return nil, err
		}
		installed = append(installed, rel)
	}

	receipt := &Receipt{
		App:         app,
		Version:     ver,
		InstalledAt: time.Now().UTC(),
		ConfigFile:  configFile,
		Files:       installed,
	}
	if err := WriteReceipt(targetDir, receipt); err != nil {
		return nil, err
	}

	if err := installHooks(opts.Packaging, receipt, targetDir, manifest.TotalSize); err != nil {
		log.Warnf("system registration incomplete: %v", err)
	}
	return receipt, nil
}

// resolvePayload hands back the directory holding the files to install,
// extracting an archive to a temp dir when one was given.
func resolvePayload(opts Options) (string, func(), error) {
	nop := func() {}
	switch {
	case opts.ZipPath != "" && opts.PayloadDir != "":
		return "", nop, errors.New("archive and payload directory are mutually exclusive")
	case opts.ZipPath != "":
		if opts.Verify {
			sums := filepath.Join(filepath.Dir(opts.ZipPath), pack.SumsName)
			if err := pack.VerifySums(sums); err != nil {
				return "", nop, err
			}
			log.Infof("checksums verified against %s", sums)
		}
		tmp, err := os.MkdirTemp("", "lyrisync-install-*")
		if err != nil {
			return "", nop, errors.Wrap(err, "failed to create staging directory")
		}
		if err := pack.ExtractZip(opts.ZipPath, tmp); err != nil {
			os.RemoveAll(tmp)
			return "", nop, err
		}
		return tmp, func() { os.RemoveAll(tmp) }, nil
	case opts.PayloadDir != "":
		if opts.Verify {
			log.Warnf("checksum verification applies to archives only, skipping")
		}
		return opts.PayloadDir, nop, nil
	default:
		return "", nop, errors.New("either a payload directory or an archive is required")
	}
}

// loadManifest reads payload.yaml, or hashes the tree when the payload
// carries none.
func loadManifest(payloadDir string, pkg config.Packaging) (*pack.Manifest, error) {
	if _, err := os.Stat(filepath.Join(payloadDir, pack.ManifestName)); err == nil {
		return pack.ReadManifest(payloadDir)
	}
	log.Warnf("no %s in payload, hashing the tree instead", pack.ManifestName)
	return pack.BuildManifest(payloadDir, pkg.AppName, pkg.Version)
}

// ResolveTargetDir resolves the installation directory, handling the
// platform default and expansions.
func ResolveTargetDir(dir, appName string) (string, error) {
	if dir == "" {
		if env := os.Getenv("LYRISYNC_INSTALL_DIR"); env != "" {
			dir = env
		} else if appName == "" {
			return "", errors.New("could not determine install directory without an application name")
		} else if runtime.GOOS == "windows" {
			pf := os.Getenv("ProgramFiles")
			if pf == "" {
				pf = `C:\Program Files`
			}
			dir = filepath.Join(pf, appName)
		} else {
			dir = filepath.Join("/opt", strings.ToLower(strings.ReplaceAll(appName, " ", "-")))
		}
	}
	dir = expandPath(dir)

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve install directory")
	}
	return abs, nil
}

// expandPath expands ~ and environment variables in a path.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home := os.Getenv("HOME"); home != "" {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

// checkUpgrade refuses to replace a newer installed version unless forced.
func checkUpgrade(targetDir, incoming string, force bool) error {
	existing, err := ReadReceipt(targetDir)
	if err != nil {
		return nil
	}
	have, err1 := goversion.NewVersion(existing.Version)
	want, err2 := goversion.NewVersion(incoming)
	if err1 != nil || err2 != nil {
		log.Warnf("cannot compare versions %q and %q, proceeding", existing.Version, incoming)
		return nil
	}
	if have.GreaterThan(want) {
		if force {
			log.Warnf("downgrading %s to %s", existing.Version, incoming)
			return nil
		}
		return errors.Errorf("installed version %s is newer than %s, refusing to downgrade", existing.Version, incoming)
	}
	return nil
}

// installFile copies src to dst through a temp file in the destination
// directory, so a crash never leaves a half-written file in place.
func installFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "failed to open payload file %s", src)
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return errors.Wrapf(err, "failed to stat %s", src)
	}

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+"-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary file")
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to copy %s", src)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to set permissions")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temporary file")
	}

	if err := atomicReplace(tmpPath, dst); err != nil {
		return err
	}
	success = true
	return nil
}

// atomicReplace renames src over dst, falling back to remove-then-rename
// where rename cannot replace an existing file.
func atomicReplace(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if runtime.GOOS == "windows" || os.IsExist(err) {
		if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to remove existing %s", dst)
		}
		if err := os.Rename(src, dst); err != nil {
			return errors.Wrapf(err, "failed to install %s", dst)
		}
		return nil
	}
	return errors.Wrapf(err, "failed to install %s", dst)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
