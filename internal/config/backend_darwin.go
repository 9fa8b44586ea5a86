//go:build darwin

package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const defaultsDomain = "com.recapture.console"

func defaultDataDir() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, "Library", "Application Support", "recapture")
	}
	return "recapture-data"
}

// defaultsBackend stores every value as a string in the user defaults
// domain, driven through the defaults(1) tool.
type defaultsBackend struct {
	domain string
}

func newPlatformBackend() (Backend, error) {
	return &defaultsBackend{domain: defaultsDomain}, nil
}

// run executes defaults with args. A missing key makes defaults exit 1,
// which is reported as missing rather than as an error.
func (b *defaultsBackend) run(args ...string) (string, bool, error) {
	out, err := exec.Command("defaults", args...).CombinedOutput()
	s := strings.TrimSpace(string(out))
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", false, nil
		}
		return "", false, fmt.Errorf("defaults %s: %w: %s", args[0], err, s)
	}
	return s, true, nil
}

func (b *defaultsBackend) Get(key string) (string, bool, error) {
	return b.run("read", b.domain, key)
}

func (b *defaultsBackend) Set(key, val string) error {
	if out, err := exec.Command("defaults", "write", b.domain, key, "-string", val).CombinedOutput(); err != nil {
		return fmt.Errorf("defaults write %s: %w: %s", key, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (b *defaultsBackend) Unset(key string) error {
	_, _, err := b.run("delete", b.domain, key)
	return err
}
