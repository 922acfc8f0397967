package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/micro-nova/nowplaying/internal/models"
)

const debounceDelay = 500 * time.Millisecond

// JSONStore keeps one JSON file per key under <dir>/v<ConfigVersion>/.
// Writes are debounced and atomic.
type JSONStore struct {
	mu      sync.Mutex
	dir     string
	timer   *time.Timer
	pending map[string][]byte
}

// NewJSONStore creates a store rooted at configDir, creating the versioned
// directory if needed.
func NewJSONStore(configDir string) (*JSONStore, error) {
	dir := filepath.Join(configDir, fmt.Sprintf("v%d", models.ConfigVersion))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("config: create %s: %w", dir, err)
	}
	return &JSONStore{dir: dir, pending: make(map[string][]byte)}, nil
}

// Path returns the versioned directory used by this store.
func (s *JSONStore) Path() string { return s.dir }

func (s *JSONStore) keyPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("config: invalid key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

// Get reads the value under key, preferring a not-yet-written value.
func (s *JSONStore) Get(key string, v any) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	data, ok := s.pending[key]
	s.mu.Unlock()

	if !ok {
		data, err = os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return ErrNotExist
			}
			return fmt.Errorf("config: read %s: %w", key, err)
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("config: decode %s: %w", key, err)
	}
	return nil
}

// Set schedules a debounced write of v under key.
// The actual write happens after 500ms of no further Set calls.
func (s *JSONStore) Set(key string, v any) error {
	if _, err := s.keyPath(key); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = data
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(debounceDelay, func() {
		if err := s.Flush(); err != nil {
			slog.Error("config: failed to write settings", "dir", s.dir, "err", err)
		}
	})
	return nil
}

// Flush writes every pending value immediately.
func (s *JSONStore) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	pending := make(map[string][]byte, len(s.pending))
	for k, v := range s.pending {
		pending[k] = v
	}
	s.mu.Unlock()

	var errs []error
	for key, data := range pending {
		if err := s.writeAtomic(key, data); err != nil {
			errs = append(errs, fmt.Errorf("config: write %s: %w", key, err))
			continue
		}
		// Keep the entry if a newer Set arrived during the write.
		s.mu.Lock()
		if cur, ok := s.pending[key]; ok && bytes.Equal(cur, data) {
			delete(s.pending, key)
		}
		s.mu.Unlock()
	}
	return errors.Join(errs...)
}

func (s *JSONStore) writeAtomic(key string, data []byte) error {
	path := filepath.Join(s.dir, key)
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	// Write to temp file, then rename (atomic on Linux)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

var _ Store = (*JSONStore)(nil)
