// Package config loads server configuration from defaults, an optional TOML
// file, and PROMPT_REGISTRY_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by Load.
// PROMPT_REGISTRY_PROJECT_DIR sets project_dir, and so on.
const EnvPrefix = "PROMPT_REGISTRY_"

// DefaultFile is looked up in the working directory when no config path is given.
const DefaultFile = "promptreg.toml"

// Config is the server configuration.
type Config struct {
	ProjectDir     string        `koanf:"project_dir"`
	GlobalDir      string        `koanf:"global_dir"`
	DefaultsSrcDir string        `koanf:"defaults_src_dir"`
	SeedOnStart    bool          `koanf:"seed_on_start"`
	Watch          bool          `koanf:"watch"`
	WatchDebounce  time.Duration `koanf:"watch_debounce"`
	LogLevel       string        `koanf:"log_level"`
	ServerName     string        `koanf:"server_name"`
	ServerVersion  string        `koanf:"server_version"`
}

// Defaults returns the built-in configuration values.
// Home-relative paths use "~/" and are expanded by Load.
func Defaults() map[string]any {
	return map[string]any{
		"project_dir":      "~/.promptregistry",
		"global_dir":       "~/.promptregistry/default_prompts",
		"defaults_src_dir": "default_prompts_data",
		"seed_on_start":    true,
		"watch":            true,
		"watch_debounce":   "250ms",
		"log_level":        "info",
		"server_name":      "promptreg",
		"server_version":   "1.0.0",
	}
}

// Load builds a Config. If path is empty, DefaultFile is used when present.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %q: %w", path, err)
		}
	} else if _, err := os.Stat(DefaultFile); err == nil {
		if err := k.Load(file.Provider(DefaultFile), toml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %q: %w", DefaultFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	var err error
	if cfg.ProjectDir, err = expandHome(cfg.ProjectDir); err != nil {
		return nil, err
	}
	if cfg.GlobalDir, err = expandHome(cfg.GlobalDir); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.ProjectDir == "" {
		return errors.New("config: project_dir is required")
	}
	if c.GlobalDir != "" && filepath.Clean(c.GlobalDir) == filepath.Clean(c.ProjectDir) {
		return errors.New("config: global_dir must differ from project_dir")
	}
	if c.WatchDebounce < 0 {
		return errors.New("config: watch_debounce must not be negative")
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
