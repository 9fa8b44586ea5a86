//go:build !darwin

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kalambet/recapture/internal/config"
)

func readConfigFile(t *testing.T, path string) map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	var got map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("parsing %s: %v", path, err)
	}
	return got
}

func TestConfigSetUnset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv(config.ConfigFileEnv, path)
	cfg := testConfig("http://127.0.0.1:1")

	_, status, err := runCLI(t, cfg, "config", "set", "feed.poll_interval", "2500ms")
	if err != nil {
		t.Fatalf("config set: %v", err)
	}
	if !strings.Contains(status, "Set feed.poll_interval") {
		t.Errorf("status = %q", status)
	}
	if got := readConfigFile(t, path)["feed.poll_interval"]; got != "2.5s" {
		t.Errorf("stored poll_interval = %q, want 2.5s", got)
	}

	if _, _, err := runCLI(t, cfg, "config", "unset", "feed.poll_interval"); err != nil {
		t.Fatalf("config unset: %v", err)
	}
	if _, ok := readConfigFile(t, path)["feed.poll_interval"]; ok {
		t.Error("poll_interval still stored after unset")
	}

	if _, _, err := runCLI(t, cfg, "config", "unset", "no.such.key"); err == nil {
		t.Error("expected error for unknown key")
	}
}
