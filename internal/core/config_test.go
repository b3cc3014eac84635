package core

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_Success(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `port: 9090
database:
  type: sqlite
  connectionString: "file:journal.db"
redis:
  address: "localhost:6379"
rateLimit:
  enabled: true
  capacity: 5
  window: 30s
conversion:
  outputFormat: jpeg
  timeout: 5s
cache:
  ttl: 1m
styles:
  - name: pencil_sketch
    blur_size: 31
  - name: outline
    threshold1: 40
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != 9090 {
		t.Errorf("Expected port to be 9090, got %d", config.Port)
	}
	if config.Database.ConnectionString != "file:journal.db" {
		t.Errorf("Expected connectionString to be 'file:journal.db', got '%s'", config.Database.ConnectionString)
	}
	if !config.RateLimit.Enabled || config.RateLimit.Capacity != 5 || config.RateLimit.Window != 30*time.Second {
		t.Errorf("unexpected rate limit config: %+v", config.RateLimit)
	}
	if config.RateLimit.SubjectHeader != "X-Client-ID" {
		t.Errorf("expected default subject header, got %q", config.RateLimit.SubjectHeader)
	}
	if config.Conversion.OutputFormat != "jpeg" || config.Conversion.Timeout != 5*time.Second {
		t.Errorf("unexpected conversion config: %+v", config.Conversion)
	}
	// keys missing from the file keep their defaults
	if config.Conversion.DefaultStyle != "pencil_sketch" {
		t.Errorf("Expected default style pencil_sketch, got %q", config.Conversion.DefaultStyle)
	}
	if config.Conversion.Workers != runtime.NumCPU() {
		t.Errorf("Expected %d workers, got %d", runtime.NumCPU(), config.Conversion.Workers)
	}
	if !config.Cache.Enabled || config.Cache.TTL != time.Minute {
		t.Errorf("unexpected cache config: %+v", config.Cache)
	}

	overrides := config.StyleOverrides()
	if len(overrides) != 2 {
		t.Fatalf("Expected 2 style overrides, got %d", len(overrides))
	}
	if overrides["pencil_sketch"]["blur_size"] != 31 {
		t.Errorf("Expected blur_size override 31, got %v", overrides["pencil_sketch"]["blur_size"])
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	config, err := LoadConfig("/path/that/does/not/exist/config.yaml")
	if err == nil {
		t.Fatal("Expected error for non-existent file, got nil")
	}
	if config != nil {
		t.Error("Expected config to be nil when file doesn't exist")
	}
}

func TestParseConfig_Empty(t *testing.T) {
	config, err := ParseConfig(nil)
	if err != nil {
		t.Fatalf("ParseConfig(nil) error: %v", err)
	}
	if config.Port != 8080 || config.Database.Type != "sqlite" {
		t.Errorf("expected defaults, got %+v", config)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"malformed yaml", "port: [", "failed to parse config"},
		{"port out of range", "port: 70000", "port"},
		{"missing database type", "database:\n  type: \"\"", "database type"},
		{"rate limit without redis", "rateLimit:\n  enabled: true", "redis address"},
		{"rate limit zero capacity", "redis:\n  address: x:1\nrateLimit:\n  enabled: true\n  capacity: 0", "capacity"},
		{"unknown output format", "conversion:\n  outputFormat: webp", "output format"},
		{"zero upload limit", "conversion:\n  maxUploadBytes: 0", "maxUploadBytes"},
		{"zero pixel limit", "conversion:\n  maxPixels: 0", "maxPixels"},
		{"zero timeout", "conversion:\n  timeout: 0s", "timeout"},
		{"zero cache ttl", "cache:\n  enabled: true\n  ttl: 0s", "cache"},
		{"style without name", "styles:\n  - blur_size: 31", "empty name"},
		{"duplicate style", "styles:\n  - name: outline\n  - name: outline", "duplicate style override: outline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParseConfig_NonPositiveWorkersUseCPUCount(t *testing.T) {
	config, err := ParseConfig([]byte("conversion:\n  workers: -2"))
	if err != nil {
		t.Fatalf("ParseConfig error: %v", err)
	}
	if config.Conversion.Workers != runtime.NumCPU() {
		t.Errorf("Expected %d workers, got %d", runtime.NumCPU(), config.Conversion.Workers)
	}
}
