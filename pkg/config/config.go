package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked for in the working directory
// when no --config flag is given.
const DefaultFileName = "lyrisync_config.yaml"

// Settings holds global bridge behavior plus the legacy single-endpoint
// fields kept for configs written before multi-connection support.
type Settings struct {
	VMixAPIURL     string `yaml:"vmix_api_url" json:"vmix_api_url"`
	OpenLPWSURL    string `yaml:"openlp_ws_url" json:"openlp_ws_url"`
	VMixTitleInput string `yaml:"vmix_title_input" json:"vmix_title_input"`
	VMixTitleField string `yaml:"vmix_title_field" json:"vmix_title_field"`

	APIPort         int `yaml:"api_port" json:"api_port"`
	PollIntervalSec int `yaml:"poll_interval_sec" json:"poll_interval_sec"`
	OverlayChannel  int `yaml:"overlay_channel" json:"overlay_channel"`

	AutoOverlayOnSend     bool `yaml:"auto_overlay_on_send" json:"auto_overlay_on_send"`
	AutoOverlayOutOnClear bool `yaml:"auto_overlay_out_on_clear" json:"auto_overlay_out_on_clear"`
	OverlayAlwaysOn       bool `yaml:"overlay_always_on" json:"overlay_always_on"`
	ClearOnBlank          bool `yaml:"clear_on_blank" json:"clear_on_blank"`

	AutoClearIdleSec int `yaml:"auto_clear_idle_sec" json:"auto_clear_idle_sec"`
	MaxCharsPerLine  int `yaml:"max_chars_per_line" json:"max_chars_per_line"`

	LogLevel string `yaml:"log_level" json:"log_level"`
}

// Mapping names one vMix title target: a GT input and the text field inside it.
type Mapping struct {
	Input string `yaml:"input" json:"input"`
	Field string `yaml:"field" json:"field"`
}

// Connection pairs one OpenLP endpoint with the vMix targets its slides feed.
type Connection struct {
	Name       string    `yaml:"name" json:"name"`
	OpenLPIP   string    `yaml:"openlp_ip" json:"openlp_ip"`
	WSPort     int       `yaml:"ws_port" json:"ws_port"`
	VMixAPIURL string    `yaml:"vmix_api_url" json:"vmix_api_url"`
	Mappings   []Mapping `yaml:"mappings" json:"mappings"`
}

// Role maps deck button keys to bridge action names.
type Role struct {
	Name    string            `yaml:"name" json:"name"`
	Decks   []int             `yaml:"decks" json:"decks"`
	Buttons map[string]string `yaml:"buttons" json:"buttons"`
}

// Packaging is the build definition consumed by the pack, gen and install
// commands. Every field can be overridden on the command line.
type Packaging struct {
	AppName         string `yaml:"app_name" json:"app_name"`
	ExeName         string `yaml:"exe_name" json:"exe_name"`
	Version         string `yaml:"version" json:"version"`
	Publisher       string `yaml:"publisher" json:"publisher"`
	AppGUID         string `yaml:"app_guid" json:"app_guid"`
	Icon            string `yaml:"icon" json:"icon"`
	SourceDir       string `yaml:"source_dir" json:"source_dir"`
	OutputDir       string `yaml:"output_dir" json:"output_dir"`
	ConfigFile      string `yaml:"config_file" json:"config_file"`
	DesktopShortcut bool   `yaml:"desktop_shortcut" json:"desktop_shortcut"`
	LicenseFile     string `yaml:"license_file" json:"license_file"`
}

// Config is the full lyrisync_config.yaml document.
type Config struct {
	Settings    Settings     `yaml:"settings" json:"settings"`
	Connections []Connection `yaml:"connections" json:"connections"`
	Roles       []Role       `yaml:"roles" json:"roles"`
	Packaging   Packaging    `yaml:"packaging" json:"packaging"`
}

// Default returns a Config populated with the stock settings. Load merges
// file content over this, so absent keys keep their defaults.
func Default() *Config {
	return &Config{
		Settings: Settings{
			VMixAPIURL:            "http://localhost:8088/api",
			OpenLPWSURL:           "ws://localhost:4317",
			VMixTitleInput:        "SongTitle",
			VMixTitleField:        "Message.Text",
			APIPort:               5000,
			PollIntervalSec:       2,
			OverlayChannel:        1,
			AutoOverlayOnSend:     true,
			AutoOverlayOutOnClear: true,
			OverlayAlwaysOn:       false,
			ClearOnBlank:          true,
			AutoClearIdleSec:      0,
			MaxCharsPerLine:       36,
			LogLevel:              "info",
		},
		Packaging: Packaging{
			AppName:         "LyriSync+",
			ExeName:         "LyriSyncPlus.exe",
			OutputDir:       "dist",
			ConfigFile:      DefaultFileName,
			DesktopShortcut: true,
		},
	}
}

// Clamp forces every numeric setting into its supported range and restores
// defaults for fields that must never be empty. Applied on load and save so
// out-of-range values never survive a round trip.
func (c *Config) Clamp() {
	s := &c.Settings
	s.APIPort = min(max(s.APIPort, 1024), 65535)
	s.PollIntervalSec = max(s.PollIntervalSec, 1)
	s.OverlayChannel = min(max(s.OverlayChannel, 1), 4)
	s.AutoClearIdleSec = max(s.AutoClearIdleSec, 0)
	s.MaxCharsPerLine = max(s.MaxCharsPerLine, 10)
	if s.VMixTitleInput == "" {
		s.VMixTitleInput = "SongTitle"
	}
	if s.VMixTitleField == "" {
		s.VMixTitleField = "Message.Text"
	}

	p := &c.Packaging
	if p.AppName == "" {
		p.AppName = "LyriSync+"
	}
	if p.ExeName == "" {
		p.ExeName = "LyriSyncPlus.exe"
	}
	if p.OutputDir == "" {
		p.OutputDir = "dist"
	}
	if p.ConfigFile == "" {
		p.ConfigFile = DefaultFileName
	}
}

// Load reads and parses a lyrisync config file from the given path, merging
// it over the defaults. A missing file is not an error: runtime commands
// start from a clean default config and the check command reports it.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.Clamp()
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "failed to read config file: %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file: %s", path)
	}
	cfg.Clamp()
	return cfg, nil
}

// Save writes cfg to path as YAML, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	cfg.Clamp()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "failed to create config directory: %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", path)
	}
	return nil
}
