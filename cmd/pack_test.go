package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lyrisync/lyrisync/pkg/installer"
	"github.com/lyrisync/lyrisync/pkg/pack"
)

func resetPipelineFlags(tmpDir string) {
	configFile = filepath.Join(tmpDir, "lyrisync_config.yaml")
	packArch = "amd64"
	installZip = ""
	installPayload = ""
	installTarget = ""
	installVerify = false
	installForce = false
	uninstallTarget = ""
	uninstallPurge = false
	buildAppName = ""
	buildExeName = ""
	buildVersion = ""
	buildPublisher = ""
	buildGUID = ""
	buildIcon = ""
	buildSourceDir = ""
	buildOutputDir = ""
}

// writeSourceTree lays out a fake onedir build the way PyInstaller leaves
// one behind: the executable, an asset, and a bundled default config.
func writeSourceTree(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"LyriSyncPlus.exe":     "binary payload",
		"assets/app.ico":       "icon bytes",
		"lyrisync_config.yaml": "settings:\n  api_port: 5000\n",
	}
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create source dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write source file: %v", err)
		}
	}
}

func TestPackCommandProducesArtifacts(t *testing.T) {
	tmpDir := t.TempDir()
	sourceDir := filepath.Join(tmpDir, "build")
	outputDir := filepath.Join(tmpDir, "dist")
	writeSourceTree(t, sourceDir)

	resetPipelineFlags(tmpDir)
	buildVersion = "2.0.1"
	buildSourceDir = sourceDir
	buildOutputDir = outputDir

	if err := PackCommand.RunE(PackCommand, []string{}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	wantFiles := []string{
		filepath.Join("payload", "LyriSyncPlus.exe"),
		filepath.Join("payload", pack.ManifestName),
		"LyriSync+_2.0.1_windows_amd64.zip",
		pack.SumsName,
	}
	for _, rel := range wantFiles {
		if _, err := os.Stat(filepath.Join(outputDir, rel)); err != nil {
			t.Errorf("Expected artifact %s: %v", rel, err)
		}
	}

	// The checksum file must verify against the archive it covers.
	if err := pack.VerifySums(filepath.Join(outputDir, pack.SumsName)); err != nil {
		t.Errorf("Checksums did not verify: %v", err)
	}
}

func TestPackCommandRequiresVersionAndSource(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(tmpDir string)
		wantErr string
	}{
		{
			name:    "missing version",
			setup:   func(tmpDir string) { buildSourceDir = tmpDir },
			wantErr: "--app-version",
		},
		{
			name:    "missing source dir",
			setup:   func(tmpDir string) { buildVersion = "2.0.1" },
			wantErr: "--source-dir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			resetPipelineFlags(tmpDir)
			buildOutputDir = filepath.Join(tmpDir, "dist")
			tt.setup(tmpDir)

			err := PackCommand.RunE(PackCommand, []string{})
			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error mentioning %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestInstallCommandFullPipeline(t *testing.T) {
	tmpDir := t.TempDir()
	sourceDir := filepath.Join(tmpDir, "build")
	outputDir := filepath.Join(tmpDir, "dist")
	targetDir := filepath.Join(tmpDir, "apps", "LyriSync+")
	writeSourceTree(t, sourceDir)

	resetPipelineFlags(tmpDir)
	buildVersion = "2.0.1"
	buildSourceDir = sourceDir
	buildOutputDir = outputDir

	if err := PackCommand.RunE(PackCommand, []string{}); err != nil {
		t.Fatalf("pack failed: %v", err)
	}

	// Simulate a user who edited the config from a previous install.
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		t.Fatalf("Failed to create target: %v", err)
	}
	userConfig := "settings:\n  api_port: 5099\n"
	if err := os.WriteFile(filepath.Join(targetDir, "lyrisync_config.yaml"), []byte(userConfig), 0644); err != nil {
		t.Fatalf("Failed to write user config: %v", err)
	}

	installZip = filepath.Join(outputDir, "LyriSync+_2.0.1_windows_amd64.zip")
	installVerify = true
	installTarget = targetDir

	if err := InstallCommand.RunE(InstallCommand, []string{}); err != nil {
		t.Fatalf("install failed: %v", err)
	}

	// The edited config survives and the bundled copy lands beside it.
	got, err := os.ReadFile(filepath.Join(targetDir, "lyrisync_config.yaml"))
	if err != nil {
		t.Fatalf("Failed to read user config: %v", err)
	}
	if string(got) != userConfig {
		t.Error("Install overwrote the user config")
	}
	if _, err := os.Stat(filepath.Join(targetDir, "lyrisync_config.yaml.new")); err != nil {
		t.Errorf("Expected bundled config beside the user one: %v", err)
	}
	if _, err := os.Stat(filepath.Join(targetDir, "LyriSyncPlus.exe")); err != nil {
		t.Errorf("Expected installed executable: %v", err)
	}
	receipt, err := installer.ReadReceipt(targetDir)
	if err != nil {
		t.Fatalf("Expected an install receipt: %v", err)
	}
	if receipt.Version != "2.0.1" {
		t.Errorf("Receipt version = %q, want 2.0.1", receipt.Version)
	}

	uninstallTarget = targetDir
	if err := UninstallCommand.RunE(UninstallCommand, []string{}); err != nil {
		t.Fatalf("uninstall failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(targetDir, "LyriSyncPlus.exe")); !os.IsNotExist(err) {
		t.Error("Expected the executable to be removed")
	}
	if _, err := os.Stat(filepath.Join(targetDir, "lyrisync_config.yaml")); err != nil {
		t.Errorf("Expected the user config to survive uninstall: %v", err)
	}
}

func TestInstallCommandFallsBackToStagedPayload(t *testing.T) {
	tmpDir := t.TempDir()
	sourceDir := filepath.Join(tmpDir, "build")
	outputDir := filepath.Join(tmpDir, "dist")
	targetDir := filepath.Join(tmpDir, "target")
	writeSourceTree(t, sourceDir)

	resetPipelineFlags(tmpDir)
	buildVersion = "2.0.1"
	buildSourceDir = sourceDir
	buildOutputDir = outputDir

	if err := PackCommand.RunE(PackCommand, []string{}); err != nil {
		t.Fatalf("pack failed: %v", err)
	}

	// No --zip and no --payload: the staging directory pack left behind
	// is picked up.
	installTarget = targetDir
	if err := InstallCommand.RunE(InstallCommand, []string{}); err != nil {
		t.Fatalf("install failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(targetDir, "LyriSyncPlus.exe")); err != nil {
		t.Errorf("Expected installed executable: %v", err)
	}
}

func TestInstallCommandNothingToInstall(t *testing.T) {
	tmpDir := t.TempDir()

	resetPipelineFlags(tmpDir)
	buildOutputDir = filepath.Join(tmpDir, "dist")
	installTarget = filepath.Join(tmpDir, "target")

	err := InstallCommand.RunE(InstallCommand, []string{})
	if err == nil {
		t.Fatal("Expected error but got none")
	}
	if !strings.Contains(err.Error(), "nothing to install") {
		t.Errorf("Expected a nothing-to-install error, got %q", err.Error())
	}
}
