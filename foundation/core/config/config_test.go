// File: config_test.go
// Title: Configuration Tests
// Description: Tests TOML and YAML loading, dotted-key access, typed getters
//              with defaults, environment overrides, and file reloading.
// Version: v0.1.0
// Created: 2025-07-13
// Modified: 2025-07-13
//
// Change History:
// - 2025-07-13 v0.1.0: Initial tests

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	formaerror "github.com/formalang/forma/foundation/core/error"
)

const tomlContent = `
[engine]
expression_capacity = 256
strict = true
timeout = "45s"

[datasource]
sqlite = "app.db"
min_score = 0.7
`

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(tomlContent), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := cfg.GetInt("engine.expression_capacity"); got != 256 {
		t.Errorf("expression_capacity = %d, want 256", got)
	}
	if !cfg.GetBool("engine.strict") {
		t.Error("strict = false, want true")
	}
	if got := cfg.GetString("datasource.sqlite"); got != "app.db" {
		t.Errorf("sqlite = %q", got)
	}
	if got := cfg.GetFloat("datasource.min_score"); got != 0.7 {
		t.Errorf("min_score = %v", got)
	}
	if got := cfg.GetDuration("engine.timeout"); got != 45*time.Second {
		t.Errorf("timeout = %v", got)
	}
	if cfg.FilePath() != path {
		t.Errorf("FilePath = %q", cfg.FilePath())
	}
}

func TestLoadYAML(t *testing.T) {
	content := "server:\n  port: 8080\n  debug: true\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := cfg.GetInt("server.port"); got != 8080 {
		t.Errorf("port = %d, want 8080", got)
	}
	if !cfg.GetBool("server.debug") {
		t.Error("debug = false, want true")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !formaerror.HasCode(err, formaerror.CodeConfigError) {
		t.Errorf("code = %s, want CONFIG_ERROR", formaerror.GetCode(err))
	}
}

func TestLoadInvalidContent(t *testing.T) {
	_, err := LoadFromString("not = [valid", FormatTOML)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !formaerror.HasCode(err, formaerror.CodeInvalidConfig) {
		t.Errorf("code = %s, want INVALID_CONFIG", formaerror.GetCode(err))
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadFromString("", FormatTOML)
	if err != nil {
		t.Fatalf("LoadFromString failed: %v", err)
	}

	if got := cfg.GetString("missing.key", "fallback"); got != "fallback" {
		t.Errorf("GetString default = %q", got)
	}
	if got := cfg.GetInt("missing.key", 7); got != 7 {
		t.Errorf("GetInt default = %d", got)
	}
	if got := cfg.GetBool("missing.key", true); !got {
		t.Error("GetBool default = false")
	}
	if got := cfg.GetDuration("missing.key", time.Minute); got != time.Minute {
		t.Errorf("GetDuration default = %v", got)
	}
	if cfg.Has("missing.key") {
		t.Error("Has must be false for an absent key")
	}
}

func TestEnvOverride(t *testing.T) {
	cfg, err := LoadFromString("[engine]\nworkers = 2\n", FormatTOML)
	if err != nil {
		t.Fatalf("LoadFromString failed: %v", err)
	}

	t.Setenv("FORMA_ENGINE_WORKERS", "8")

	if got := cfg.GetInt("engine.workers"); got != 8 {
		t.Errorf("env override ignored, got %d", got)
	}
}

func TestSetCreatesNestedKeys(t *testing.T) {
	cfg, err := LoadFromString("", FormatTOML)
	if err != nil {
		t.Fatalf("LoadFromString failed: %v", err)
	}

	cfg.Set("a.b.c", "deep")
	if got := cfg.GetString("a.b.c"); got != "deep" {
		t.Errorf("GetString after Set = %q", got)
	}
	if !cfg.Has("a.b.c") {
		t.Error("Has must see the written key")
	}
}

func TestNumericDurationIsSeconds(t *testing.T) {
	cfg, err := LoadFromString("[q]\ntimeout = 30\n", FormatTOML)
	if err != nil {
		t.Fatalf("LoadFromString failed: %v", err)
	}
	if got := cfg.GetDuration("q.timeout"); got != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", got)
	}
}
