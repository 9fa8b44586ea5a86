//go:build !darwin

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// ConfigFileEnv points the file backend at an explicit config file.
const ConfigFileEnv = "RECAPTURE_CONFIG"

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "recapture-data"
		}
	}
	return filepath.Join(dir, "recapture")
}

// fileBackend keeps settings in a flat JSON object of string values.
type fileBackend struct {
	path   string
	values map[string]string
}

func newPlatformBackend() (Backend, error) {
	return openFileBackend(configFilePath())
}

func configFilePath() string {
	if p := os.Getenv(ConfigFileEnv); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "recapture", "config.json")
}

// openFileBackend reads path if it exists. A file that cannot be parsed
// is an error rather than an empty config, so a later Set never
// overwrites settings the user can still recover by hand.
func openFileBackend(path string) (*fileBackend, error) {
	b := &fileBackend{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			b.values[k] = val
		case float64:
			// Hand-edited files may carry bare numbers.
			b.values[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			b.values[k] = strconv.FormatBool(val)
		case nil:
		default:
			return nil, fmt.Errorf("config file %s: key %s holds a %T, want a scalar", path, k, v)
		}
	}
	return b, nil
}

// save replaces the file atomically via a temp file in the same dir.
func (b *fileBackend) save() error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(b.values, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("replacing config file: %w", err)
	}
	return nil
}

func (b *fileBackend) Get(key string) (string, bool, error) {
	v, ok := b.values[key]
	return v, ok, nil
}

func (b *fileBackend) Set(key, val string) error {
	b.values[key] = val
	return b.save()
}

func (b *fileBackend) Unset(key string) error {
	if _, ok := b.values[key]; !ok {
		return nil
	}
	delete(b.values, key)
	return b.save()
}
