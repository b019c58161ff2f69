//go:build windows

package installer

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows/registry"

	"github.com/lyrisync/lyrisync/pkg/config"
)

const uninstallRoot = `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`

// installHooks registers the app with Add/Remove Programs and lays down
// the shortcuts.
func installHooks(pkg config.Packaging, rec *Receipt, targetDir string, totalSize int64) error {
	if err := writeUninstallKey(pkg, rec, targetDir, totalSize); err != nil {
		return err
	}
	return createShortcuts(pkg, rec.App, targetDir)
}

// uninstallHooks removes the registry entry and any shortcuts.
func uninstallHooks(app string) error {
	if app == "" {
		return nil
	}
	if err := registry.DeleteKey(registry.LOCAL_MACHINE, uninstallRoot+`\`+app); err != nil && err != registry.ErrNotExist {
		return errors.Wrap(err, "failed to delete uninstall registry key")
	}
	for _, lnk := range []string{startMenuShortcut(app), desktopShortcut(app)} {
		if err := os.Remove(lnk); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to remove shortcut %s", lnk)
		}
	}
	return nil
}

func writeUninstallKey(pkg config.Packaging, rec *Receipt, targetDir string, totalSize int64) error {
	key, _, err := registry.CreateKey(registry.LOCAL_MACHINE, uninstallRoot+`\`+rec.App, registry.ALL_ACCESS)
	if err != nil {
		return errors.Wrap(err, "failed to create uninstall registry key")
	}
	defer key.Close()

	values := map[string]string{
		"DisplayName":     rec.App,
		"DisplayVersion":  rec.Version,
		"Publisher":       pkg.Publisher,
		"InstallLocation": targetDir,
		"InstallDate":     time.Now().Format("20060102"),
	}
	if pkg.ExeName != "" {
		exe := filepath.Join(targetDir, pkg.ExeName)
		uninstall := fmt.Sprintf(`"%s" uninstall --target "%s"`, exe, targetDir)
		values["UninstallString"] = uninstall
		values["QuietUninstallString"] = uninstall + " --quiet"
		values["DisplayIcon"] = exe
	}
	for name, value := range values {
		if value == "" {
			continue
		}
		if err := key.SetStringValue(name, value); err != nil {
			return errors.Wrapf(err, "failed to set registry value %s", name)
		}
	}

	dwords := map[string]uint32{
		"NoModify": 1,
		"NoRepair": 1,
	}
	if totalSize > 0 {
		dwords["EstimatedSize"] = uint32(totalSize / 1024)
	}
	for name, value := range dwords {
		if err := key.SetDWordValue(name, value); err != nil {
			return errors.Wrapf(err, "failed to set registry value %s", name)
		}
	}
	return nil
}

func createShortcuts(pkg config.Packaging, app, targetDir string) error {
	if pkg.ExeName == "" {
		return nil
	}
	exe := filepath.Join(targetDir, pkg.ExeName)
	paths := []string{startMenuShortcut(app)}
	if pkg.DesktopShortcut {
		paths = append(paths, desktopShortcut(app))
	}
	for _, lnk := range paths {
		if err := createShortcut(lnk, exe, targetDir); err != nil {
			return err
		}
	}
	return nil
}

// createShortcut shells out to PowerShell; WScript.Shell is the only .lnk
// writer the platform ships.
func createShortcut(lnkPath, target, workDir string) error {
	script := fmt.Sprintf(
		"$s = (New-Object -ComObject WScript.Shell).CreateShortcut(%s); $s.TargetPath = %s; $s.WorkingDirectory = %s; $s.Save()",
		psQuote(lnkPath), psQuote(target), psQuote(workDir),
	)
	out, err := exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "failed to create shortcut %s: %s", lnkPath, strings.TrimSpace(string(out)))
	}
	return nil
}

// psQuote single-quotes a string for PowerShell.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func startMenuShortcut(app string) string {
	programData := os.Getenv("ProgramData")
	if programData == "" {
		programData = `C:\ProgramData`
	}
	return filepath.Join(programData, `Microsoft\Windows\Start Menu\Programs`, app+".lnk")
}

func desktopShortcut(app string) string {
	public := os.Getenv("PUBLIC")
	if public == "" {
		public = `C:\Users\Public`
	}
	return filepath.Join(public, "Desktop", app+".lnk")
}
