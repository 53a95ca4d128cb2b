package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if cfg.Directory.RequestTimeout != 10*time.Second {
		t.Fatalf("unexpected default timeout: %v", cfg.Directory.RequestTimeout)
	}
	if cfg.Store.Path != "data/keys.enc" {
		t.Fatalf("unexpected default store path: %s", cfg.Store.Path)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "store:\n  path: /var/lib/gigchat/keys.enc\ndirectory:\n  url: https://keys.example.com\n  requestTimeout: 3s\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	cfg := Load(path)
	if cfg.Store.Path != "/var/lib/gigchat/keys.enc" {
		t.Fatalf("store path not merged: %s", cfg.Store.Path)
	}
	if cfg.Directory.URL != "https://keys.example.com" {
		t.Fatalf("directory url not merged: %s", cfg.Directory.URL)
	}
	if cfg.Directory.RequestTimeout != 3*time.Second {
		t.Fatalf("timeout not merged: %v", cfg.Directory.RequestTimeout)
	}
	if cfg.Directory.PublishBurst != 3 {
		t.Fatalf("untouched default must survive merge: %d", cfg.Directory.PublishBurst)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("directory:\n  url: https://file.example.com\n"), 0o600); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	t.Setenv("GIGCHAT_DIRECTORY_URL", "https://env.example.com")

	cfg := Load(path)
	if cfg.Directory.URL != "https://env.example.com" {
		t.Fatalf("env override must win, got %s", cfg.Directory.URL)
	}
}
