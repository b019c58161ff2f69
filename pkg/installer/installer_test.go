package installer

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lyrisync/lyrisync/pkg/config"
	"github.com/lyrisync/lyrisync/pkg/pack"
)

const configName = "lyrisync_config.yaml"

func testPackaging() config.Packaging {
	return config.Packaging{
		AppName:    "LyriSync+",
		ExeName:    "LyriSyncPlus.exe",
		Version:    "2.0.1",
		Publisher:  "Example AV",
		ConfigFile: configName,
	}
}

// buildPayload writes a payload tree with a manifest, returning its path.
func buildPayload(t *testing.T, version string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"LyriSyncPlus.exe": "binary bits",
		configName:         "settings:\n  api_port: 5000\n",
		"assets/app.ico":   "icon",
	}
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	m, err := pack.BuildManifest(dir, "LyriSync+", version)
	if err != nil {
		t.Fatal(err)
	}
	if err := pack.WriteManifest(dir, m); err != nil {
		t.Fatal(err)
	}
	return dir
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestInstallFromPayloadDir(t *testing.T) {
	payload := buildPayload(t, "2.0.1")
	target := filepath.Join(t.TempDir(), "app")

	receipt, err := Install(Options{
		PayloadDir: payload,
		TargetDir:  target,
		Packaging:  testPackaging(),
	})
	if err != nil {
		t.Fatalf("Install returned error: %v", err)
	}

	if receipt.App != "LyriSync+" || receipt.Version != "2.0.1" {
		t.Errorf("receipt identity = %q %q, want LyriSync+ 2.0.1", receipt.App, receipt.Version)
	}
	wantFiles := []string{"LyriSyncPlus.exe", "assets/app.ico", configName}
	if diff := cmp.Diff(wantFiles, receipt.Files); diff != "" {
		t.Errorf("receipt files mismatch (-want +got):\n%s", diff)
	}

	if got := mustRead(t, filepath.Join(target, "LyriSyncPlus.exe")); got != "binary bits" {
		t.Errorf("installed binary content = %q", got)
	}
	if got := mustRead(t, filepath.Join(target, "assets", "app.ico")); got != "icon" {
		t.Errorf("installed asset content = %q", got)
	}

	stored, err := ReadReceipt(target)
	if err != nil {
		t.Fatalf("ReadReceipt returned error: %v", err)
	}
	if diff := cmp.Diff(receipt, stored); diff != "" {
		t.Errorf("stored receipt mismatch (-want +got):\n%s", diff)
	}
}

func TestInstallPreservesUserConfig(t *testing.T) {
	payload := buildPayload(t, "2.0.1")
	target := filepath.Join(t.TempDir(), "app")

	userConfig := "settings:\n  api_port: 9999\n# hand-tuned\n"
	if err := os.MkdirAll(target, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(target, configName), []byte(userConfig), 0644); err != nil {
		t.Fatal(err)
	}

	receipt, err := Install(Options{
		PayloadDir: payload,
		TargetDir:  target,
		Packaging:  testPackaging(),
	})
	if err != nil {
		t.Fatalf("Install returned error: %v", err)
	}

	if got := mustRead(t, filepath.Join(target, configName)); got != userConfig {
		t.Errorf("user config was clobbered:\n%s", got)
	}
	if got := mustRead(t, filepath.Join(target, configName+".new")); got != "settings:\n  api_port: 5000\n" {
		t.Errorf("bundled config not parked as .new:\n%s", got)
	}

	for _, f := range receipt.Files {
		if f == configName {
			t.Error("receipt lists the preserved user config")
		}
	}
	found := false
	for _, f := range receipt.Files {
		if f == configName+".new" {
			found = true
		}
	}
	if !found {
		t.Error("receipt misses the parked bundled config")
	}
}

func TestInstallFromZipWithVerify(t *testing.T) {
	payload := buildPayload(t, "2.0.1")
	outDir := t.TempDir()
	zipPath := filepath.Join(outDir, pack.ArchiveName("LyriSync+", "2.0.1", "amd64"))
	if err := pack.Archive(payload, zipPath); err != nil {
		t.Fatal(err)
	}
	if err := pack.WriteSums(filepath.Join(outDir, pack.SumsName), zipPath); err != nil {
		t.Fatal(err)
	}

	target := filepath.Join(t.TempDir(), "app")
	if _, err := Install(Options{
		ZipPath:   zipPath,
		TargetDir: target,
		Verify:    true,
		Packaging: testPackaging(),
	}); err != nil {
		t.Fatalf("Install returned error: %v", err)
	}

	if got := mustRead(t, filepath.Join(target, "LyriSyncPlus.exe")); got != "binary bits" {
		t.Errorf("installed binary content = %q", got)
	}
}

func TestInstallRejectsTamperedArchive(t *testing.T) {
	payload := buildPayload(t, "2.0.1")
	outDir := t.TempDir()
	zipPath := filepath.Join(outDir, "bundle.zip")
	if err := pack.Archive(payload, zipPath); err != nil {
		t.Fatal(err)
	}
	if err := pack.WriteSums(filepath.Join(outDir, pack.SumsName), zipPath); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(zipPath, []byte("tampered"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Install(Options{
		ZipPath:   zipPath,
		TargetDir: filepath.Join(t.TempDir(), "app"),
		Verify:    true,
		Packaging: testPackaging(),
	})
	if err == nil {
		t.Fatal("expected checksum error, got nil")
	}
	if !strings.Contains(err.Error(), "mismatch") {
		t.Errorf("error = %v, want checksum mismatch", err)
	}
}

func TestInstallSynthesizesMissingManifest(t *testing.T) {
	payload := buildPayload(t, "2.0.1")
	if err := os.Remove(filepath.Join(payload, pack.ManifestName)); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(t.TempDir(), "app")

	receipt, err := Install(Options{
		PayloadDir: payload,
		TargetDir:  target,
		Packaging:  testPackaging(),
	})
	if err != nil {
		t.Fatalf("Install returned error: %v", err)
	}
	if receipt.App != "LyriSync+" || receipt.Version != "2.0.1" {
		t.Errorf("receipt identity = %q %q, want packaging fallback", receipt.App, receipt.Version)
	}
	if len(receipt.Files) != 3 {
		t.Errorf("receipt files = %v, want 3 entries", receipt.Files)
	}
}

func TestInstallUpgradeRule(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		force    bool
		wantErr  bool
	}{
		{name: "upgrade allowed", incoming: "2.1.0"},
		{name: "same version reinstalls", incoming: "2.0.1"},
		{name: "downgrade refused", incoming: "1.9.0", wantErr: true},
		{name: "forced downgrade allowed", incoming: "1.9.0", force: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := filepath.Join(t.TempDir(), "app")
			if _, err := Install(Options{
				PayloadDir: buildPayload(t, "2.0.1"),
				TargetDir:  target,
				Packaging:  testPackaging(),
			}); err != nil {
				t.Fatal(err)
			}

			_, err := Install(Options{
				PayloadDir: buildPayload(t, tt.incoming),
				TargetDir:  target,
				Force:      tt.force,
				Packaging:  testPackaging(),
			})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected downgrade refusal, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Install returned error: %v", err)
			}
			receipt, err := ReadReceipt(target)
			if err != nil {
				t.Fatal(err)
			}
			if receipt.Version != tt.incoming {
				t.Errorf("receipt version = %s, want %s", receipt.Version, tt.incoming)
			}
		})
	}
}

func TestUninstallPreservesUserConfig(t *testing.T) {
	target := filepath.Join(t.TempDir(), "app")
	if _, err := Install(Options{
		PayloadDir: buildPayload(t, "2.0.1"),
		TargetDir:  target,
		Packaging:  testPackaging(),
	}); err != nil {
		t.Fatal(err)
	}

	if err := Uninstall(UninstallOptions{TargetDir: target}); err != nil {
		t.Fatalf("Uninstall returned error: %v", err)
	}

	for _, gone := range []string{
		"LyriSyncPlus.exe",
		filepath.Join("assets", "app.ico"),
		"assets",
		ReceiptName,
	} {
		if _, err := os.Stat(filepath.Join(target, gone)); !os.IsNotExist(err) {
			t.Errorf("%s still present after uninstall", gone)
		}
	}
	if _, err := os.Stat(filepath.Join(target, configName)); err != nil {
		t.Errorf("user config did not survive uninstall: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("target directory should remain while the config does: %v", err)
	}
}

func TestUninstallPurge(t *testing.T) {
	target := filepath.Join(t.TempDir(), "app")
	if _, err := Install(Options{
		PayloadDir: buildPayload(t, "2.0.1"),
		TargetDir:  target,
		Packaging:  testPackaging(),
	}); err != nil {
		t.Fatal(err)
	}

	if err := Uninstall(UninstallOptions{TargetDir: target, Purge: true}); err != nil {
		t.Fatalf("Uninstall returned error: %v", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Error("target directory still present after purge")
	}
}

func TestUninstallWithoutReceipt(t *testing.T) {
	err := Uninstall(UninstallOptions{TargetDir: t.TempDir()})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "no install receipt") {
		t.Errorf("error = %v, want receipt complaint", err)
	}
}

func TestResolveTargetDir(t *testing.T) {
	explicit, err := ResolveTargetDir(filepath.Join(t.TempDir(), "custom"), "LyriSync+")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(explicit) || !strings.HasSuffix(explicit, "custom") {
		t.Errorf("explicit dir resolved to %s", explicit)
	}

	t.Run("environment override", func(t *testing.T) {
		override := t.TempDir()
		t.Setenv("LYRISYNC_INSTALL_DIR", override)
		got, err := ResolveTargetDir("", "LyriSync+")
		if err != nil {
			t.Fatal(err)
		}
		if got != override {
			t.Errorf("ResolveTargetDir = %s, want %s", got, override)
		}
	})

	t.Run("platform default", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("unix default only")
		}
		t.Setenv("LYRISYNC_INSTALL_DIR", "")
		got, err := ResolveTargetDir("", "LyriSync+")
		if err != nil {
			t.Fatal(err)
		}
		if got != "/opt/lyrisync+" {
			t.Errorf("ResolveTargetDir = %s, want /opt/lyrisync+", got)
		}
	})

	t.Run("no name no dir", func(t *testing.T) {
		t.Setenv("LYRISYNC_INSTALL_DIR", "")
		if _, err := ResolveTargetDir("", ""); err == nil {
			t.Error("expected error, got nil")
		}
	})
}
