//go:build !windows

package installer

import "github.com/lyrisync/lyrisync/pkg/config"

// Registry entries and shell shortcuts only exist on Windows.

func installHooks(pkg config.Packaging, rec *Receipt, targetDir string, totalSize int64) error {
	return nil
}

func uninstallHooks(app string) error {
	return nil
}
