// Package config defines Foreman's configuration, loaded through viper from
// a config file, environment variables, and defaults. CLI flags take
// precedence over everything here; the run command merges flag values over
// the loaded config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete Foreman configuration
type Config struct {
	Codex   CodexConfig   `mapstructure:"codex"`
	Run     RunConfig     `mapstructure:"run"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CodexConfig controls how external Codex sessions are launched
type CodexConfig struct {
	// Bin is the Codex executable to invoke. Empty means: fall back to the
	// current executable, then to "codex" on PATH.
	Bin string `mapstructure:"bin"`
	// WorkerModel is the default model passed to worker sessions (optional)
	WorkerModel string `mapstructure:"worker_model"`
	// ReviewerModel is the default model passed to review sessions (optional)
	// When empty, review sessions fall back to the worker model.
	ReviewerModel string `mapstructure:"reviewer_model"`
	// ConfigOverrides are raw -c key=value flags forwarded to every session
	ConfigOverrides []string `mapstructure:"config_overrides"`
}

// RunConfig controls workflow run behavior
type RunConfig struct {
	// ArtifactsDir overrides the default artifacts root
	// (.codex/workflows/<workflow-name> next to the manifest)
	ArtifactsDir string `mapstructure:"artifacts_dir"`
}

// LoggingConfig controls the structured run log
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR
	Level string `mapstructure:"level"`
}

// Default returns the configuration with all default values set
func Default() *Config {
	return &Config{
		Codex: CodexConfig{
			Bin:             "",
			WorkerModel:     "",
			ReviewerModel:   "",
			ConfigOverrides: nil,
		},
		Run: RunConfig{
			ArtifactsDir: "",
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("codex.bin", defaults.Codex.Bin)
	viper.SetDefault("codex.worker_model", defaults.Codex.WorkerModel)
	viper.SetDefault("codex.reviewer_model", defaults.Codex.ReviewerModel)
	viper.SetDefault("codex.config_overrides", defaults.Codex.ConfigOverrides)

	viper.SetDefault("run.artifacts_dir", defaults.Run.ArtifactsDir)

	viper.SetDefault("logging.level", defaults.Logging.Level)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	switch strings.ToUpper(c.Logging.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR", "":
	default:
		return fmt.Errorf("invalid logging.level %q (valid: DEBUG, INFO, WARN, ERROR)", c.Logging.Level)
	}
	for _, override := range c.Codex.ConfigOverrides {
		if !strings.Contains(override, "=") {
			return fmt.Errorf("invalid codex.config_overrides entry %q (expected key=value)", override)
		}
	}
	return nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "foreman")
	}
	// Fall back to ~/.config/foreman
	home, err := os.UserHomeDir()
	if err != nil {
		return ".foreman"
	}
	return filepath.Join(home, ".config", "foreman")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
