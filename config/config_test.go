package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	if cfg.WorkerCount != 0 {
		t.Errorf("expected WorkerCount 0 (Auto), got %d", cfg.WorkerCount)
	}
	if cfg.StealTimeoutMS != 10 {
		t.Errorf("expected a 10ms default steal timeout, got %d", cfg.StealTimeoutMS)
	}
	if cfg.PollIntervalMS != 1 {
		t.Errorf("expected a 1ms default poll interval, got %d", cfg.PollIntervalMS)
	}
	if cfg.RetryLimit != 3 {
		t.Errorf("expected the default retry limit to be 3, got %d", cfg.RetryLimit)
	}
}

func TestLoadOverridesOnlySpecifiedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "embervm.toml")
	body := "worker_count = 8\ndefault_on_error = \"Stop\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorkerCount != 8 {
		t.Errorf("expected worker_count 8, got %d", cfg.WorkerCount)
	}
	if cfg.DefaultOnError != "Stop" {
		t.Errorf("expected default_on_error Stop, got %q", cfg.DefaultOnError)
	}
	if cfg.RetryLimit != 3 {
		t.Errorf("expected the unset retry_limit to keep its default, got %d", cfg.RetryLimit)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("expected an error for a missing config file")
	}
}
