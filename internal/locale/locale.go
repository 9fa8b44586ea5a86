// Package locale holds the process-wide UI language preference.
//
// The preference is read once from the preference store at startup and written
// through on every change. It owns no resources and needs no teardown.
package locale

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kalambet/recapture/internal/storage"
)

// PreferenceKey is the storage key of the persisted language code.
const PreferenceKey = "recapture_language"

// Default is used until a persisted value is read.
const Default = "en"

// ErrUnsupported is returned by Set for codes outside Supported.
var ErrUnsupported = errors.New("unsupported language")

// Language is a selectable UI language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Supported lists the languages the API can translate into.
var Supported = []Language{
	{Code: "en", Name: "English"},
	{Code: "sw", Name: "Swahili"},
	{Code: "zu", Name: "Zulu"},
	{Code: "xh", Name: "Xhosa"},
	{Code: "yo", Name: "Yoruba"},
	{Code: "ig", Name: "Igbo"},
	{Code: "ha", Name: "Hausa"},
	{Code: "am", Name: "Amharic"},
	{Code: "so", Name: "Somali"},
	{Code: "sn", Name: "Shona"},
	{Code: "af", Name: "Afrikaans"},
	{Code: "om", Name: "Oromo"},
	{Code: "rw", Name: "Kinyarwanda"},
	{Code: "tw", Name: "Twi"},
	{Code: "st", Name: "Sesotho"},
}

// Store persists the preference. Implemented by storage.Store.
type Store interface {
	GetPreference(key string) (string, error)
	SetPreference(key, value string) error
	DeletePreference(key string) error
}

var (
	mu      sync.RWMutex
	current = Default
	store   Store
)

// Init reads the persisted language and binds s for write-through.
// A missing or unsupported persisted value leaves Default in place.
func Init(s Store) error {
	mu.Lock()
	defer mu.Unlock()

	store = s
	current = Default

	code, err := s.GetPreference(PreferenceKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading language preference: %w", err)
	}
	if !IsSupported(code) {
		slog.Warn("ignoring unsupported persisted language", "code", code)
		return nil
	}
	current = code
	return nil
}

// Current returns the active language code.
func Current() string {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set changes the active language and persists it when a store is bound.
func Set(code string) error {
	if !IsSupported(code) {
		return fmt.Errorf("%w: %q", ErrUnsupported, code)
	}

	mu.Lock()
	defer mu.Unlock()

	if store != nil {
		if err := store.SetPreference(PreferenceKey, code); err != nil {
			return fmt.Errorf("saving language preference: %w", err)
		}
	}
	current = code
	return nil
}

// Reset forgets the persisted choice and returns to Default.
func Reset() error {
	mu.Lock()
	defer mu.Unlock()

	if store != nil {
		if err := store.DeletePreference(PreferenceKey); err != nil {
			return fmt.Errorf("clearing language preference: %w", err)
		}
	}
	current = Default
	return nil
}

func IsSupported(code string) bool {
	for _, l := range Supported {
		if l.Code == code {
			return true
		}
	}
	return false
}

// Name returns the display name of code, or code itself if unknown.
func Name(code string) string {
	for _, l := range Supported {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}
