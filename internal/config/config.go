package config

import (
	"fmt"
	"time"
)

type Config struct {
	API     APIConfig
	Feed    FeedConfig
	Logs    LogsConfig
	Console ConsoleConfig
	Storage StorageConfig
	Log     LogConfig
}

// APIConfig points the client at the guardian REST API.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
	MaxRPS  float64
}

type FeedConfig struct {
	PollInterval time.Duration
	PageSize     int
	Mode         string // "paginated" or "accumulate"
}

// LogsConfig controls the activity-log polling of the intel center.
type LogsConfig struct {
	PollInterval time.Duration
}

type ConsoleConfig struct {
	Port int
	// Token, when set, is required as a bearer token by the console server.
	Token string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

const (
	FeedModePaginated  = "paginated"
	FeedModeAccumulate = "accumulate"
)

func defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8000",
			Timeout: 30 * time.Second,
			MaxRPS:  10,
		},
		Feed: FeedConfig{
			PollInterval: 3 * time.Second,
			PageSize:     5,
			Mode:         FeedModePaginated,
		},
		Logs: LogsConfig{
			PollInterval: 3 * time.Second,
		},
		Console: ConsoleConfig{
			Port: 4100,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend and environment
// variables.
//
// On macOS the backend is UserDefaults (domain: com.recapture.console).
// Elsewhere it is a JSON file at $XDG_CONFIG_HOME/recapture/config.json,
// or at $RECAPTURE_CONFIG when set. An unreadable file fails Load.
//
// Environment variables (RECAPTURE_*) override backend values on all platforms.
func Load() (Config, error) {
	b, err := newPlatformBackend()
	if err != nil {
		return Config{}, err
	}
	return loadWith(b)
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("missing required config: api.base_url (env RECAPTURE_API_BASE_URL)")
	}
	switch c.Feed.Mode {
	case FeedModePaginated, FeedModeAccumulate:
	default:
		return fmt.Errorf("invalid feed.mode %q: want %q or %q", c.Feed.Mode, FeedModePaginated, FeedModeAccumulate)
	}
	if c.Feed.PageSize <= 0 {
		return fmt.Errorf("invalid feed.page_size %d: must be positive", c.Feed.PageSize)
	}
	if c.Feed.PollInterval <= 0 || c.Logs.PollInterval <= 0 {
		return fmt.Errorf("poll intervals must be positive")
	}
	return nil
}
