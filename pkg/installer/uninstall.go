package installer

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/pkg/errors"
)

// UninstallOptions configures removal of a managed install.
type UninstallOptions struct {
	TargetDir string
	AppName   string // used to resolve the default target directory
	Purge     bool   // also remove the preserved user config
}

// Uninstall removes exactly what the install receipt lists plus the receipt
// itself. The user config survives unless Purge is set.
func Uninstall(opts UninstallOptions) error {
	if opts.TargetDir == "" && opts.AppName == "" {
		return errors.New("either a target directory or an application name is required")
	}
	targetDir, err := ResolveTargetDir(opts.TargetDir, opts.AppName)
	if err != nil {
		return err
	}

	receipt, err := ReadReceipt(targetDir)
	if err != nil {
		return errors.Errorf("%s holds no install receipt, nothing to uninstall", targetDir)
	}
	log.Infof("uninstalling %s %s from %s", receipt.App, receipt.Version, targetDir)

	for _, rel := range receipt.Files {
		if !opts.Purge && rel == receipt.ConfigFile {
			log.Infof("keeping user config %s", rel)
			continue
		}
		full := filepath.Join(targetDir, filepath.FromSlash(rel))
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to remove %s", full)
		}
	}
	if err := os.Remove(filepath.Join(targetDir, ReceiptName)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove install receipt")
	}

	removeEmptyDirs(targetDir, receipt.Files)

	if err := uninstallHooks(firstNonEmpty(receipt.App, opts.AppName)); err != nil {
		log.Warnf("system deregistration incomplete: %v", err)
	}
	return nil
}

// removeEmptyDirs prunes the directories the receipt's files lived in,
// deepest first, then the target itself. Non-empty directories stay.
func removeEmptyDirs(targetDir string, files []string) {
	seen := make(map[string]bool)
	var dirs []string
	for _, rel := range files {
		for d := path.Dir(rel); d != "." && d != "/"; d = path.Dir(d) {
			if !seen[d] {
				seen[d] = true
				dirs = append(dirs, d)
			}
		}
	}
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], "/") > strings.Count(dirs[j], "/")
	})
	for _, d := range dirs {
		os.Remove(filepath.Join(targetDir, filepath.FromSlash(d)))
	}
	os.Remove(targetDir)
}
