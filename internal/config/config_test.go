package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Organize.Workers != runtime.NumCPU() {
		t.Errorf("workers = %d, want %d", cfg.Organize.Workers, runtime.NumCPU())
	}
	if !cfg.Organize.DigestCache {
		t.Error("digest cache should default to enabled")
	}
	if cfg.DecodeTimeout() != 30*time.Second {
		t.Errorf("decode timeout = %v, want 30s", cfg.DecodeTimeout())
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Error("exists should be false")
	}
	if resolved != path {
		t.Errorf("resolved = %s, want %s", resolved, path)
	}
	if !filepath.IsAbs(cfg.Paths.Database) {
		t.Errorf("database path not absolute: %s", cfg.Paths.Database)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoad_ParsesFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")
	content := `
[paths]
input_dir = "in"
output_dir = "` + filepath.ToSlash(filepath.Join(tmpDir, "out")) + `"
duplicate_dir = "~/dupes"

[organize]
workers = 3
decode_timeout_seconds = 5
digest_cache = false

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Error("exists should be true")
	}
	if cfg.Organize.Workers != 3 || cfg.Organize.DigestCache {
		t.Errorf("organize = %+v", cfg.Organize)
	}
	if cfg.DecodeTimeout() != 5*time.Second {
		t.Errorf("decode timeout = %v", cfg.DecodeTimeout())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Errorf("logging not normalized: %+v", cfg.Logging)
	}
	if !filepath.IsAbs(cfg.Paths.InputDir) {
		t.Errorf("input dir not absolute: %s", cfg.Paths.InputDir)
	}
	home, _ := os.UserHomeDir()
	if cfg.Paths.DuplicateDir != filepath.Join(home, "dupes") {
		t.Errorf("duplicate dir = %s, want ~ expanded", cfg.Paths.DuplicateDir)
	}
	if err := cfg.ValidatePipelineDirs(); err != nil {
		t.Errorf("ValidatePipelineDirs: %v", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"bad level", "[logging]\nlevel = \"trace\"\n", "logging.level"},
		{"negative timeout", "[organize]\ndecode_timeout_seconds = -1\n", "decode_timeout_seconds"},
		{"unknown key", "[paths]\nstaging_dir = \"x\"\n", "parse config"},
		{"syntax", "[paths\n", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, _, _, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePipelineDirs(t *testing.T) {
	cfg := Default()
	if err := cfg.ValidatePipelineDirs(); err == nil {
		t.Error("expected error with empty dirs")
	}

	cfg.Paths.InputDir = "/in"
	cfg.Paths.OutputDir = "/same"
	cfg.Paths.DuplicateDir = "/same"
	if err := cfg.ValidatePipelineDirs(); err == nil {
		t.Error("expected error when output and duplicates match")
	}
}

func TestCreateSample_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Error("sample should exist")
	}
	if cfg.Organize.Workers != runtime.NumCPU() {
		t.Errorf("workers = 0 should normalize to NumCPU, got %d", cfg.Organize.Workers)
	}
}

func TestLockPath(t *testing.T) {
	cfg := Default()
	cfg.Paths.Database = filepath.Join("/data", "po.db")
	if got := cfg.LockPath(); got != filepath.Join("/data", "organize.lock") {
		t.Errorf("LockPath = %s", got)
	}
}
