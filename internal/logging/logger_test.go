package logging_test

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"photoorganizer/internal/config"
	"photoorganizer/internal/logging"
)

func TestNewFromConfigConsole(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "photoorganizer.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "msg=hello") {
		t.Errorf("expected console record, got %q", content)
	}
}

func TestNewFromConfigNil(t *testing.T) {
	logger, err := logging.NewFromConfig(nil)
	if err != nil {
		t.Fatalf("NewFromConfig(nil) returned error: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger instance")
	}
}

func TestJSONLoggerKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("copy failed", "path", "/in/a.jpg", "error", "disk full")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &record); err != nil {
		t.Fatalf("invalid json %q: %v", content, err)
	}
	for _, key := range []string{"ts", "level", "msg", "path", "error"} {
		if _, ok := record[key]; !ok {
			t.Errorf("missing key %q in %v", key, record)
		}
	}
	if record["level"] != "warn" {
		t.Errorf("level = %v, want warn", record["level"])
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
		{"", false, true},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logPath := filepath.Join(t.TempDir(), "level.log")
			logger, err := logging.New(logging.Options{Level: tt.level, OutputPaths: []string{logPath}})
			if err != nil {
				t.Fatal(err)
			}
			logger.Debug("debug-line")
			logger.Info("info-line")

			content, _ := os.ReadFile(logPath)
			if got := strings.Contains(string(content), "debug-line"); got != tt.wantDebug {
				t.Errorf("debug emitted = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(string(content), "info-line"); got != tt.wantInfo {
				t.Errorf("info emitted = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}

func TestConsoleLoggerIncludesSourceForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")
	logger, err := logging.New(logging.Options{Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("with source")

	content, _ := os.ReadFile(logPath)
	if !strings.Contains(string(content), "logger_test.go:") {
		t.Errorf("expected source location in debug logs, got %q", content)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestDiscard(t *testing.T) {
	logger := logging.Discard()
	if logger.Enabled(t.Context(), slog.LevelError) {
		t.Error("discard logger should not be enabled")
	}
}
