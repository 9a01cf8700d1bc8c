// Package config loads guestshell configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const appName = "guestshell"

// EnvPrefix prefixes every environment override, e.g. GUESTSHELL_BACKEND.
const EnvPrefix = "GUESTSHELL"

// Config holds all guestshell configuration.
type Config struct {
	// Backend is the handle backend name.
	Backend string `mapstructure:"backend"`

	// MaxHandles caps live handles per process (0 = unlimited).
	MaxHandles int `mapstructure:"max_handles"`

	// WorkDir is where handles create their scratch directories.
	WorkDir string `mapstructure:"work_dir"`

	// Autosync syncs drives when the shell exits.
	Autosync bool `mapstructure:"autosync"`

	// LogLevel is one of trace, debug, info, warn, error, disabled.
	LogLevel string `mapstructure:"log_level"`

	// LogNoColor disables colored console logging.
	LogNoColor bool `mapstructure:"log_no_color"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	data := filepath.Join(os.TempDir(), appName)
	if home, err := os.UserHomeDir(); err == nil {
		data = dataDir(home)
	}

	return &Config{
		Backend:    "local",
		MaxHandles: 0,
		WorkDir:    filepath.Join(data, "work"),
		Autosync:   true,
		LogLevel:   "warn",
		LogNoColor: false,
	}
}

// Load reads configuration from .env, environment, config file and defaults.
// The config and data directories are created if missing.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine home directory: %w", err)
	}
	cfgDir, data := configDir(home), dataDir(home)
	for _, dir := range []string{cfgDir, data} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	// .env in the working directory is optional; it never overrides
	// variables already present in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("backend", defaults.Backend)
	v.SetDefault("max_handles", defaults.MaxHandles)
	v.SetDefault("work_dir", defaults.WorkDir)
	v.SetDefault("autosync", defaults.Autosync)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_no_color", defaults.LogNoColor)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(cfgDir)
	v.AddConfigPath(data)

	// Environment variable support: GUESTSHELL_BACKEND, GUESTSHELL_MAX_HANDLES, etc.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configFileUsed = v.ConfigFileUsed()
	return cfg, nil
}

var configFileUsed string

// ConfigFileUsed returns the path of the config file used by the last Load, if any.
func ConfigFileUsed() string {
	return configFileUsed
}

// configDir is where config.yaml is looked up first:
// ~/Library/Application Support/guestshell on macOS, XDG_CONFIG_HOME/guestshell
// (default ~/.config/guestshell) elsewhere.
func configDir(home string) string {
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", appName)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	return filepath.Join(home, ".config", appName)
}

// dataDir holds handle scratch space and an optional fallback config.yaml.
func dataDir(home string) string {
	return filepath.Join(home, "."+appName)
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.MaxHandles < 0 {
		return fmt.Errorf("invalid config: max_handles must not be negative, got %d", c.MaxHandles)
	}
	if c.Backend == "" {
		return fmt.Errorf("invalid config: backend must not be empty")
	}
	return nil
}
