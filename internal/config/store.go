// Package config persists the player configuration and loads daemon settings.
package config

import "errors"

// ErrNotExist is returned by Store.Get when no value is stored under key.
var ErrNotExist = errors.New("config: key not found")

// Store is a key-value store for persisted settings. Values are JSON
// encodable.
type Store interface {
	// Get decodes the value stored under key into v. Returns ErrNotExist
	// if the key has never been written.
	Get(key string, v any) error

	// Set stores v under key. Implementations may debounce rapid writes.
	Set(key string, v any) error

	// Path returns the location used by this store.
	Path() string

	// Flush forces an immediate write of any pending values.
	Flush() error
}
