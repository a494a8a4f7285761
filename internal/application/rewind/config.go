package rewind

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/penwyp/go-project-history/internal/core/patch"
	"github.com/penwyp/go-project-history/internal/core/share"
	"github.com/penwyp/go-project-history/internal/util"
	"gopkg.in/yaml.v3"
)

// RewindConfig contains configuration shared by all history commands
type RewindConfig struct {
	// Data sources
	HistoryFile string   `yaml:"history_file" env:"PROJECT_HISTORY_LOG"`
	ProjectDir  string   `yaml:"project_dir" env:"PROJECT_HISTORY_PROJECT_DIR"`
	Include     []string `yaml:"include" env:"PROJECT_HISTORY_INCLUDE" envSeparator:","`
	Exclude     []string `yaml:"exclude" env:"PROJECT_HISTORY_EXCLUDE" envSeparator:","`

	// Display settings
	Timezone   string `yaml:"timezone" env:"PROJECT_HISTORY_TIMEZONE"`
	TimeFormat string `yaml:"time_format" env:"PROJECT_HISTORY_TIME_FORMAT"`

	// Share service
	ShareBaseURL string        `yaml:"share_base_url" env:"PROJECT_HISTORY_SHARE_URL"`
	ShareTimeout time.Duration `yaml:"share_timeout" env:"PROJECT_HISTORY_SHARE_TIMEOUT"`

	// Preview surface; empty disables live preview
	SurfaceURL string `yaml:"surface_url" env:"PROJECT_HISTORY_SURFACE_URL"`

	// Version patching
	ConfigFile   string `yaml:"config_file" env:"PROJECT_HISTORY_CONFIG_FILE"`
	VersionField string `yaml:"version_field" env:"PROJECT_HISTORY_VERSION_FIELD"`

	// Snapshot merging keeps live-only files when set
	KeepLiveOnly bool `yaml:"keep_live_only" env:"PROJECT_HISTORY_KEEP_LIVE_ONLY"`

	// Reload debounce for the history watcher
	WatchDebounce time.Duration `yaml:"watch_debounce" env:"PROJECT_HISTORY_WATCH_DEBOUNCE"`
}

// LoadConfig reads the optional YAML file at path, then applies environment overrides.
// Command-line flags are applied by the caller before Validate.
func LoadConfig(path string) (*RewindConfig, error) {
	cfg := &RewindConfig{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		util.LogDebugf("Loaded config file %s", path)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate fills defaults and checks the configuration is usable
func (c *RewindConfig) Validate() error {
	if c.ProjectDir == "" {
		c.ProjectDir = "."
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.TimeFormat == "" {
		c.TimeFormat = "24h"
	}
	if c.ShareBaseURL == "" {
		c.ShareBaseURL = share.DefaultBaseURL
	}
	if c.ShareTimeout == 0 {
		c.ShareTimeout = share.DefaultTimeout
	}
	if c.ConfigFile == "" {
		c.ConfigFile = model.DefaultConfigFile
	}
	if c.VersionField == "" {
		c.VersionField = patch.DefaultVersionField
	}
	if c.WatchDebounce == 0 {
		c.WatchDebounce = 200 * time.Millisecond
	}

	if c.HistoryFile == "" {
		return fmt.Errorf("history file is required")
	}
	if c.TimeFormat != "12h" && c.TimeFormat != "24h" {
		return fmt.Errorf("invalid time format %q: expected 12h or 24h", c.TimeFormat)
	}
	if _, err := util.LoadLocation(c.Timezone); err != nil {
		return err
	}
	return nil
}
