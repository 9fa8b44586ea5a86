package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kFloat
	kDuration
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "api.base_url", typ: kString, env: "RECAPTURE_API_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.API.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.API.BaseURL },
	},
	{
		key: "api.timeout", typ: kDuration, env: "RECAPTURE_API_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.API.Timeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.API.Timeout },
	},
	{
		key: "api.max_rps", typ: kFloat, env: "RECAPTURE_API_MAX_RPS",
		apply:   func(cfg *Config, v any) { cfg.API.MaxRPS = v.(float64) },
		extract: func(cfg Config) any { return cfg.API.MaxRPS },
	},
	{
		key: "feed.poll_interval", typ: kDuration, env: "RECAPTURE_FEED_POLL_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.Feed.PollInterval = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Feed.PollInterval },
	},
	{
		key: "feed.page_size", typ: kInt, env: "RECAPTURE_FEED_PAGE_SIZE",
		apply:   func(cfg *Config, v any) { cfg.Feed.PageSize = v.(int) },
		extract: func(cfg Config) any { return cfg.Feed.PageSize },
	},
	{
		key: "feed.mode", typ: kString, env: "RECAPTURE_FEED_MODE",
		apply:   func(cfg *Config, v any) { cfg.Feed.Mode = v.(string) },
		extract: func(cfg Config) any { return cfg.Feed.Mode },
	},
	{
		key: "logs.poll_interval", typ: kDuration, env: "RECAPTURE_LOGS_POLL_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.Logs.PollInterval = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Logs.PollInterval },
	},
	{
		key: "console.port", typ: kInt, env: "RECAPTURE_CONSOLE_PORT",
		apply:   func(cfg *Config, v any) { cfg.Console.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Console.Port },
	},
	{
		key: "console.token", typ: kString, env: "RECAPTURE_CONSOLE_TOKEN", secret: true,
		apply:   func(cfg *Config, v any) { cfg.Console.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.Console.Token },
	},
	{
		key: "storage.data_dir", typ: kString, env: "RECAPTURE_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "RECAPTURE_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

// parseValue converts a raw string into the Go type of the key.
func parseValue(typ keyType, raw string) (any, error) {
	switch typ {
	case kInt:
		return strconv.Atoi(raw)
	case kFloat:
		return strconv.ParseFloat(raw, 64)
	case kDuration:
		return time.ParseDuration(raw)
	default:
		return raw, nil
	}
}

// applyBackend copies every stored value onto cfg. Values that do not
// parse as their key's type are skipped with a warning so one bad entry
// does not block startup.
func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		raw, ok, err := b.Get(s.key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if !ok || raw == "" {
			continue
		}
		v, err := parseValue(s.typ, raw)
		if err != nil {
			slog.Warn("ignoring config value", "key", s.key, "value", raw, "error", err)
			continue
		}
		s.apply(cfg, v)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		v, err := parseValue(s.typ, raw)
		if err != nil {
			slog.Warn("ignoring env override", "env", s.env, "value", raw, "error", err)
			continue
		}
		s.apply(cfg, v)
	}
}
