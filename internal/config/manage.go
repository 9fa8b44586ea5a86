package config

import (
	"fmt"
	"strconv"
	"time"
)

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll returns all config key/value pairs from the current config.
// Secret keys that hold a value are masked.
func ShowAll(cfg Config) []KeyInfo {
	result := make([]KeyInfo, 0, len(specs))
	for _, s := range specs {
		val := format(s.extract(cfg))
		if s.secret && val != "" {
			val = "********"
		}
		result = append(result, KeyInfo{
			Key:    s.key,
			EnvVar: s.env,
			Value:  val,
		})
	}
	return result
}

// SetKey validates value against the key's type and persists it.
func SetKey(key, value string) error {
	b, err := newPlatformBackend()
	if err != nil {
		return err
	}
	return setKeyWith(b, key, value)
}

// UnsetKey removes a persisted value so the default applies again.
func UnsetKey(key string) error {
	b, err := newPlatformBackend()
	if err != nil {
		return err
	}
	return unsetKeyWith(b, key)
}

func setKeyWith(b Backend, key, value string) error {
	s, err := lookup(key)
	if err != nil {
		return err
	}
	v, err := parseValue(s.typ, value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return b.Set(key, format(v))
}

func unsetKeyWith(b Backend, key string) error {
	if _, err := lookup(key); err != nil {
		return err
	}
	return b.Unset(key)
}

func lookup(key string) (keySpec, error) {
	for _, s := range specs {
		if s.key == key {
			return s, nil
		}
	}
	return keySpec{}, fmt.Errorf("unknown config key: %q", key)
}

// format renders a typed value in the form parseValue reads back.
func format(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Duration:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// ValidKeys returns the list of valid config key names.
func ValidKeys() []string {
	keys := make([]string, 0, len(specs))
	for _, s := range specs {
		keys = append(keys, s.key)
	}
	return keys
}
