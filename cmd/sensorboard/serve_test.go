package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotenv_MissingFileIsIgnored(t *testing.T) {
	if err := loadDotenv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("loadDotenv() error = %v, want nil for missing file", err)
	}
}

func TestLoadDotenv_SetsVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SENSORBOARD_TEST_DOTENV=from-file\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("SENSORBOARD_TEST_DOTENV") })

	if err := loadDotenv(path); err != nil {
		t.Fatalf("loadDotenv() error = %v", err)
	}
	if got := os.Getenv("SENSORBOARD_TEST_DOTENV"); got != "from-file" {
		t.Errorf("SENSORBOARD_TEST_DOTENV = %q, want from-file", got)
	}
}

func TestLoadConfig_DefaultsWithEnv(t *testing.T) {
	t.Setenv("PORT", "8123")
	t.Setenv("KEY", "tok")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Port != 8123 {
		t.Errorf("Port = %d, want 8123", cfg.Port)
	}
	if !cfg.Tunnel.IsEnabled() || cfg.Tunnel.Authtoken != "tok" {
		t.Errorf("Tunnel = %+v, want enabled with KEY", cfg.Tunnel)
	}
}

func TestLoadConfig_FileThenEnvPort(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("KEY", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: 7000\nmode: append\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Port != 9001 {
		t.Errorf("Port = %d, want PORT to override file", cfg.Port)
	}
	if cfg.Mode != "append" {
		t.Errorf("Mode = %q, want append", cfg.Mode)
	}
	if cfg.Tunnel.IsEnabled() {
		t.Error("empty KEY should not enable the tunnel")
	}
}

func TestLoadConfig_InvalidPortEnv(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	if _, err := loadConfig(""); err == nil {
		t.Error("loadConfig() expected error for invalid PORT, got nil")
	}
}
