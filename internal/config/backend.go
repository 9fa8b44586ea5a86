package config

// Backend persists raw config values by key. Values are stored as
// strings and parsed into their typed fields by applyBackend, so every
// platform store agrees on one representation.
type Backend interface {
	Get(key string) (val string, ok bool, err error)
	Set(key, val string) error
	Unset(key string) error
}
