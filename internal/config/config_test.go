package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoad_Defaults(t *testing.T) {
	resetViper(t)
	SetDefaults()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("default logging level = %q, want INFO", cfg.Logging.Level)
	}
	if cfg.Codex.Bin != "" {
		t.Errorf("default codex.bin should be empty, got %q", cfg.Codex.Bin)
	}
	if cfg.Run.ArtifactsDir != "" {
		t.Errorf("default run.artifacts_dir should be empty, got %q", cfg.Run.ArtifactsDir)
	}
}

func TestLoad_OverridesFromViper(t *testing.T) {
	resetViper(t)
	SetDefaults()
	viper.Set("codex.bin", "/usr/local/bin/codex")
	viper.Set("codex.worker_model", "o4-mini")
	viper.Set("codex.config_overrides", []string{"sandbox=workspace-write"})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Codex.Bin != "/usr/local/bin/codex" {
		t.Errorf("codex.bin = %q", cfg.Codex.Bin)
	}
	if cfg.Codex.WorkerModel != "o4-mini" {
		t.Errorf("codex.worker_model = %q", cfg.Codex.WorkerModel)
	}
	if len(cfg.Codex.ConfigOverrides) != 1 || cfg.Codex.ConfigOverrides[0] != "sandbox=workspace-write" {
		t.Errorf("codex.config_overrides = %v", cfg.Codex.ConfigOverrides)
	}
}

func TestValidate_RejectsBadLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "VERBOSE"

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for bad logging level")
	}
}

func TestValidate_RejectsMalformedOverride(t *testing.T) {
	cfg := Default()
	cfg.Codex.ConfigOverrides = []string{"no-equals-sign"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for malformed override")
	}
	if !strings.Contains(err.Error(), "no-equals-sign") {
		t.Errorf("error should name the bad entry: %v", err)
	}
}

func TestGet_FallsBackToDefaults(t *testing.T) {
	resetViper(t)
	viper.Set("logging.level", "NOPE")

	cfg := Get()
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Get should fall back to defaults on invalid config, got %q", cfg.Logging.Level)
	}
}

func TestConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := ConfigDir(); got != filepath.Join("/tmp/xdg", "foreman") {
		t.Errorf("ConfigDir = %q", got)
	}
}
