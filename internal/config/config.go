// Package config loads and validates codemap's merged configuration:
// CLI flags, environment variables, and an optional .codemap.toml project
// file, through spf13/viper with pelletier/go-toml/v2 as the TOML codec.
// Validation follows the same fail-fast-on-bad-flag style the CLI
// uses when parsing arguments.
package config

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// Config holds codemap's tunable settings. cmd/codemap passes MaxEntries,
// the two max-file-size limits, IgnoredDirGlobs and LogFormat on to the
// pipeline; the Clone* values and IgnoredFileGlobs are loaded and validated
// but not passed on, so clone detection always runs with its built-in
// constants.
type Config struct {
	MaxEntries int `mapstructure:"maxEntries" toml:"maxEntries"`

	MetricsMaxFileSize  int64 `mapstructure:"metricsMaxFileSize" toml:"metricsMaxFileSize"`
	DepGraphMaxFileSize int64 `mapstructure:"depGraphMaxFileSize" toml:"depGraphMaxFileSize"`

	CloneThreshold   float64 `mapstructure:"cloneThreshold" toml:"cloneThreshold"`
	CloneShingleSize int     `mapstructure:"cloneShingleSize" toml:"cloneShingleSize"`
	CloneWindowSize  int     `mapstructure:"cloneWindowSize" toml:"cloneWindowSize"`
	CloneMaxPairs    int     `mapstructure:"cloneMaxPairs" toml:"cloneMaxPairs"`

	IgnoredDirGlobs  []string `mapstructure:"ignoreDirGlobs" toml:"ignoreDirGlobs"`
	IgnoredFileGlobs []string `mapstructure:"ignoreFileGlobs" toml:"ignoreFileGlobs"`

	LogFormat string `mapstructure:"logFormat" toml:"logFormat"`
}

// Defaults returns the configuration used when no flags, environment
// variables, or project file override a key.
func Defaults() Config {
	return Config{
		MaxEntries:          2000,
		MetricsMaxFileSize:  512 * 1024,
		DepGraphMaxFileSize: 256 * 1024,
		CloneThreshold:      0.55,
		CloneShingleSize:    3,
		CloneWindowSize:     4,
		CloneMaxPairs:       250_000,
		LogFormat:           "text",
	}
}

// Load builds a viper instance seeded with Defaults, merges in
// configPath (a .codemap.toml file, if non-empty and present), then
// overlays CODEMAP_-prefixed environment variables, and decodes the
// result. It does not bind CLI flags itself — callers bind those onto
// the *viper.Viper they pass in, via BindPFlag before calling Load, following
// cobra/viper's usual wiring order.
func Load(v *viper.Viper, configPath string) (Config, error) {
	defaults := Defaults()
	v.SetDefault("maxEntries", defaults.MaxEntries)
	v.SetDefault("metricsMaxFileSize", defaults.MetricsMaxFileSize)
	v.SetDefault("depGraphMaxFileSize", defaults.DepGraphMaxFileSize)
	v.SetDefault("cloneThreshold", defaults.CloneThreshold)
	v.SetDefault("cloneShingleSize", defaults.CloneShingleSize)
	v.SetDefault("cloneWindowSize", defaults.CloneWindowSize)
	v.SetDefault("cloneMaxPairs", defaults.CloneMaxPairs)
	v.SetDefault("logFormat", defaults.LogFormat)

	v.SetEnvPrefix("CODEMAP")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("reading config file %s: %w", configPath, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values that would make the downstream passes behave
// nonsensically rather than let them fail obscurely later.
func (c Config) Validate() error {
	if c.MaxEntries <= 0 {
		return fmt.Errorf("maxEntries must be positive, got %d", c.MaxEntries)
	}
	if c.MetricsMaxFileSize <= 0 {
		return fmt.Errorf("metricsMaxFileSize must be positive, got %d", c.MetricsMaxFileSize)
	}
	if c.DepGraphMaxFileSize <= 0 {
		return fmt.Errorf("depGraphMaxFileSize must be positive, got %d", c.DepGraphMaxFileSize)
	}
	if c.CloneThreshold < 0 || c.CloneThreshold > 1 {
		return fmt.Errorf("cloneThreshold must be in [0,1], got %v", c.CloneThreshold)
	}
	if c.CloneShingleSize <= 0 {
		return fmt.Errorf("cloneShingleSize must be positive, got %d", c.CloneShingleSize)
	}
	if c.CloneWindowSize <= 0 {
		return fmt.Errorf("cloneWindowSize must be positive, got %d", c.CloneWindowSize)
	}
	if c.CloneMaxPairs <= 0 {
		return fmt.Errorf("cloneMaxPairs must be positive, got %d", c.CloneMaxPairs)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("logFormat must be %q or %q, got %q", "text", "json", c.LogFormat)
	}
	for _, pattern := range append(append([]string(nil), c.IgnoredDirGlobs...), c.IgnoredFileGlobs...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid ignore glob %q", pattern)
		}
	}
	return nil
}

// MarshalTOML renders a Config as a starter .codemap.toml file.
func MarshalTOML(c Config) ([]byte, error) {
	return toml.Marshal(c)
}
