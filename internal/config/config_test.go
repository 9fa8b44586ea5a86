package config

import (
	"strings"
	"testing"
	"time"
)

// memBackend is an in-memory Backend for tests.
type memBackend struct {
	data map[string]string
}

func newMemBackend(data map[string]string) *memBackend {
	if data == nil {
		data = make(map[string]string)
	}
	return &memBackend{data: data}
}

func (m *memBackend) Get(key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memBackend) Set(key, val string) error {
	m.data[key] = val
	return nil
}

func (m *memBackend) Unset(key string) error {
	delete(m.data, key)
	return nil
}

// TestDefaults verifies all default values are applied when the backend is empty.
func TestDefaults(t *testing.T) {
	cfg, err := loadWith(newMemBackend(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, "http://127.0.0.1:8000")
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("API.Timeout = %v, want 30s", cfg.API.Timeout)
	}
	if cfg.Feed.PollInterval != 3*time.Second {
		t.Errorf("Feed.PollInterval = %v, want 3s", cfg.Feed.PollInterval)
	}
	if cfg.Feed.PageSize != 5 {
		t.Errorf("Feed.PageSize = %d, want 5", cfg.Feed.PageSize)
	}
	if cfg.Feed.Mode != FeedModePaginated {
		t.Errorf("Feed.Mode = %q, want %q", cfg.Feed.Mode, FeedModePaginated)
	}
	if cfg.Console.Port != 4100 {
		t.Errorf("Console.Port = %d, want 4100", cfg.Console.Port)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

// TestBackendValues verifies that every key type is read from the backend.
func TestBackendValues(t *testing.T) {
	b := newMemBackend(map[string]string{
		"api.base_url":       "http://guardian:9000",
		"api.timeout":        "5s",
		"api.max_rps":        "2.5",
		"feed.poll_interval": "10s",
		"feed.page_size":     "20",
		"feed.mode":          "accumulate",
		"console.port":       "5100",
		"storage.data_dir":   "/tmp/recapture-test",
	})

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "http://guardian:9000" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("API.Timeout = %v", cfg.API.Timeout)
	}
	if cfg.API.MaxRPS != 2.5 {
		t.Errorf("API.MaxRPS = %v", cfg.API.MaxRPS)
	}
	if cfg.Feed.PollInterval != 10*time.Second {
		t.Errorf("Feed.PollInterval = %v", cfg.Feed.PollInterval)
	}
	if cfg.Feed.PageSize != 20 {
		t.Errorf("Feed.PageSize = %d", cfg.Feed.PageSize)
	}
	if cfg.Feed.Mode != FeedModeAccumulate {
		t.Errorf("Feed.Mode = %q", cfg.Feed.Mode)
	}
	if cfg.Console.Port != 5100 {
		t.Errorf("Console.Port = %d", cfg.Console.Port)
	}
	if cfg.Storage.DataDir != "/tmp/recapture-test" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
}

// TestEnvOverride verifies that environment variables override backend values.
func TestEnvOverride(t *testing.T) {
	b := newMemBackend(map[string]string{"api.base_url": "http://file:8000"})

	t.Setenv("RECAPTURE_API_BASE_URL", "http://env:8000")
	t.Setenv("RECAPTURE_FEED_POLL_INTERVAL", "750ms")

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "http://env:8000" {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, "http://env:8000")
	}
	if cfg.Feed.PollInterval != 750*time.Millisecond {
		t.Errorf("Feed.PollInterval = %v, want 750ms", cfg.Feed.PollInterval)
	}
}

// TestEnvOverride_Unparseable keeps the previous value when an env var is malformed.
func TestEnvOverride_Unparseable(t *testing.T) {
	t.Setenv("RECAPTURE_FEED_PAGE_SIZE", "many")

	cfg, err := loadWith(newMemBackend(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Feed.PageSize != 5 {
		t.Errorf("Feed.PageSize = %d, want default 5", cfg.Feed.PageSize)
	}
}

func TestInvalidFeedMode(t *testing.T) {
	_, err := loadWith(newMemBackend(map[string]string{"feed.mode": "stream"}))
	if err == nil {
		t.Fatal("expected error for invalid feed mode, got nil")
	}
	if !strings.Contains(err.Error(), "feed.mode") {
		t.Errorf("error = %q, want it to mention feed.mode", err.Error())
	}
}

func TestSetKey(t *testing.T) {
	b := newMemBackend(nil)

	if err := setKeyWith(b, "feed.page_size", "10"); err != nil {
		t.Fatalf("SetKey int: %v", err)
	}
	if b.data["feed.page_size"] != "10" {
		t.Errorf("stored page_size = %v, want 10", b.data["feed.page_size"])
	}

	if err := setKeyWith(b, "feed.poll_interval", "2s"); err != nil {
		t.Fatalf("SetKey duration: %v", err)
	}
	if b.data["feed.poll_interval"] != "2s" {
		t.Errorf("stored poll_interval = %v, want 2s", b.data["feed.poll_interval"])
	}

	if err := setKeyWith(b, "feed.poll_interval", "1500ms"); err != nil {
		t.Fatalf("SetKey duration: %v", err)
	}
	if b.data["feed.poll_interval"] != "1.5s" {
		t.Errorf("stored poll_interval = %v, want normalized 1.5s", b.data["feed.poll_interval"])
	}

	if err := setKeyWith(b, "feed.poll_interval", "soon"); err == nil {
		t.Error("expected error for invalid duration")
	}
	if err := setKeyWith(b, "no.such.key", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestUnsetKey(t *testing.T) {
	b := newMemBackend(map[string]string{"feed.page_size": "12"})

	if err := unsetKeyWith(b, "feed.page_size"); err != nil {
		t.Fatalf("UnsetKey: %v", err)
	}
	if _, ok := b.data["feed.page_size"]; ok {
		t.Error("feed.page_size still stored after unset")
	}

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Feed.PageSize != 5 {
		t.Errorf("Feed.PageSize = %d, want default 5", cfg.Feed.PageSize)
	}

	if err := unsetKeyWith(b, "no.such.key"); err == nil {
		t.Error("expected error for unknown key")
	}
}

// TestBackendValue_Unparseable skips a malformed stored value and keeps the default.
func TestBackendValue_Unparseable(t *testing.T) {
	cfg, err := loadWith(newMemBackend(map[string]string{"console.port": "eighty"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Console.Port != 4100 {
		t.Errorf("Console.Port = %d, want default 4100", cfg.Console.Port)
	}
}

func TestShowAll(t *testing.T) {
	keys := ShowAll(defaults())
	if len(keys) != len(ValidKeys()) {
		t.Fatalf("ShowAll returned %d keys, want %d", len(keys), len(ValidKeys()))
	}
	for _, k := range keys {
		if k.Key == "feed.mode" && k.Value != FeedModePaginated {
			t.Errorf("feed.mode = %q, want %q", k.Value, FeedModePaginated)
		}
	}
}

func TestShowAll_MasksToken(t *testing.T) {
	cfg := defaults()
	cfg.Console.Token = "s3cret"
	for _, k := range ShowAll(cfg) {
		if k.Key == "console.token" && k.Value == "s3cret" {
			t.Error("console.token shown in clear")
		}
	}
}
