package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaults_AreValid(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestSaveAndLoad_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Defaults()
	cfg.General.LogLevel = "debug"
	cfg.Cache.DefaultTTLSeconds = 12.5
	cfg.API.Port = 9000
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.General.LogLevel != "debug" || loaded.Cache.DefaultTTLSeconds != 12.5 || loaded.API.Port != 9000 {
		t.Fatalf("roundtrip lost values: %+v", loaded)
	}
}

func TestLoad_MissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Defaults()
	cfg.Tools.Shell.Timeout = 0
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for zero shell timeout")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TOOLHOST_TEST_VAR", "hello")

	if got := ExpandEnvVars("x=${TOOLHOST_TEST_VAR}"); got != "x=hello" {
		t.Fatalf("plain expansion: %q", got)
	}
	if got := ExpandEnvVars("x=${TOOLHOST_UNSET_VAR:-fallback}"); got != "x=fallback" {
		t.Fatalf("default expansion: %q", got)
	}
	if got := ExpandEnvVars("x=${TOOLHOST_TEST_VAR:-fallback}"); got != "x=hello" {
		t.Fatalf("set var must beat default: %q", got)
	}
	if got := ExpandEnvVars("x=${TOOLHOST_UNSET_VAR}"); got != "x=${TOOLHOST_UNSET_VAR}" {
		t.Fatalf("unset var without default must stay literal: %q", got)
	}
}

func TestGetByPath(t *testing.T) {
	cfg := Defaults()

	v, err := GetByPath(cfg, "cache.defaultTtlSeconds")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != 5.0 {
		t.Fatalf("expected 5.0, got %v", v)
	}

	if _, err := GetByPath(cfg, "cache.nope"); err == nil {
		t.Fatal("expected error for unknown key")
	}
	if _, err := GetByPath(cfg, "general.workspace.deeper"); err == nil {
		t.Fatal("expected error when traversing into a leaf")
	}
}

func TestSetByPath(t *testing.T) {
	cfg := Defaults()

	if err := SetByPath(cfg, "cache.defaultTtlSeconds", "10"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if cfg.Cache.DefaultTTLSeconds != 10 {
		t.Fatalf("value not applied: %v", cfg.Cache.DefaultTTLSeconds)
	}

	if err := SetByPath(cfg, "cache.enabled", "false"); err != nil {
		t.Fatalf("set bool: %v", err)
	}
	if cfg.Cache.Enabled {
		t.Fatal("boolean string not coerced")
	}

	if err := SetByPath(cfg, "general.logLevel", "warn"); err != nil {
		t.Fatalf("set string: %v", err)
	}
	if cfg.General.LogLevel != "warn" {
		t.Fatalf("string not applied: %q", cfg.General.LogLevel)
	}
}

func TestSanitize_MasksAPIKey(t *testing.T) {
	cfg := Defaults()
	cfg.API.APIKey = "secret-token"

	clean := Sanitize(cfg)
	if clean.API.APIKey != "***" {
		t.Fatalf("API key not masked: %q", clean.API.APIKey)
	}
	if cfg.API.APIKey != "secret-token" {
		t.Fatal("sanitize must not mutate the original")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.General.LogLevel = "loud"
	cfg.Tools.Shell.Timeout = 0

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(err.Error(), "logLevel") || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("expected both problems reported: %v", err)
	}
}
