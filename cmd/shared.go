package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/lyrisync/lyrisync/pkg/config"
)

// loadConfig reads the effective config for a command run. "-" reads YAML
// from stdin over the built-in defaults; a missing file yields the defaults.
func loadConfig() (*config.Config, error) {
	path := resolveConfigPath()
	if path == "-" {
		log.Debug("reading config from stdin")
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read config from stdin: %w", err)
		}
		cfg := config.Default()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config from stdin: %w", err)
		}
		cfg.Clamp()
		return cfg, nil
	}

	log.Debugf("loading config from %s", path)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// Build-time definition flags shared by pack, gen, and install. Every
// packaging variable is overridable on the command line.
var (
	buildAppName   string
	buildExeName   string
	buildVersion   string
	buildPublisher string
	buildGUID      string
	buildIcon      string
	buildSourceDir string
	buildOutputDir string
)

func addBuildFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&buildAppName, "app-name", "", "Application display name (overrides packaging.app_name)")
	f.StringVar(&buildExeName, "exe-name", "", "Executable file name (overrides packaging.exe_name)")
	f.StringVar(&buildVersion, "app-version", "", "Release version (overrides packaging.version)")
	f.StringVar(&buildPublisher, "publisher", "", "Publisher name (overrides packaging.publisher)")
	f.StringVar(&buildGUID, "guid", "", "Application GUID (overrides packaging.app_guid)")
	f.StringVar(&buildIcon, "icon", "", "Icon path (overrides packaging.icon)")
	f.StringVar(&buildSourceDir, "source-dir", "", "Pre-built application directory (overrides packaging.source_dir)")
	f.StringVar(&buildOutputDir, "output-dir", "", "Artifact directory (overrides packaging.output_dir)")
}

// effectivePackaging overlays the command-line definitions onto the
// config's packaging block.
func effectivePackaging(cfg *config.Config) config.Packaging {
	p := cfg.Packaging
	if buildAppName != "" {
		p.AppName = buildAppName
	}
	if buildExeName != "" {
		p.ExeName = buildExeName
	}
	if buildVersion != "" {
		p.Version = buildVersion
	}
	if buildPublisher != "" {
		p.Publisher = buildPublisher
	}
	if buildGUID != "" {
		p.AppGUID = buildGUID
	}
	if buildIcon != "" {
		p.Icon = buildIcon
	}
	if buildSourceDir != "" {
		p.SourceDir = buildSourceDir
	}
	if buildOutputDir != "" {
		p.OutputDir = buildOutputDir
	}
	return p
}
