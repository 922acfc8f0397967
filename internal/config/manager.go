package config

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/micro-nova/nowplaying/internal/models"
)

// Manager owns the AppConfig record and persists every change through a
// Store under models.ConfigKey.
type Manager struct {
	mu    sync.RWMutex
	store Store
	cfg   models.AppConfig
}

// NewManager loads the record from store. A missing or unreadable record is
// replaced by defaults, which are written back immediately.
func NewManager(store Store) *Manager {
	m := &Manager{store: store}
	cfg, err := m.load()
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			slog.Info("config: no saved player config, using defaults", "path", store.Path())
		} else {
			slog.Warn("config: unreadable player config, using defaults", "path", store.Path(), "err", err)
		}
		cfg = models.DefaultConfig()
		if err := store.Set(models.ConfigKey, cfg); err != nil {
			slog.Error("config: failed to write defaults", "err", err)
		}
	}
	m.cfg = cfg
	return m
}

func (m *Manager) load() (models.AppConfig, error) {
	var cfg models.AppConfig
	if err := m.store.Get(models.ConfigKey, &cfg); err != nil {
		return models.AppConfig{}, err
	}
	migrateConfig(&cfg)
	return cfg, nil
}

// save persists the current record. Callers hold m.mu.
func (m *Manager) save() error {
	return m.store.Set(models.ConfigKey, m.cfg)
}

// Config returns a deep copy of the current record.
func (m *Manager) Config() models.AppConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.DeepCopy()
}

// SelectedPlayer returns the user-selected identity, if any.
func (m *Manager) SelectedPlayer() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Selected()
}

// SetSelectedPlayer stores the selection. nil or a blank identity clears it.
func (m *Manager) SetSelectedPlayer(identity *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if identity == nil || strings.TrimSpace(*identity) == "" {
		m.cfg.SelectedPlayer = nil
	} else {
		id := *identity
		m.cfg.SelectedPlayer = &id
	}
	return m.save()
}

// AutoDetect reports whether newly discovered players are enabled
// automatically.
func (m *Manager) AutoDetect() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.AutoDetectNewPlayers
}

func (m *Manager) SetAutoDetect(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg.AutoDetectNewPlayers == on {
		return nil
	}
	m.cfg.AutoDetectNewPlayers = on
	return m.save()
}

// IsEnabled reports whether identity is in the enabled set.
func (m *Manager) IsEnabled(identity string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.IsEnabled(identity)
}

// AddDiscoveredPlayer enables identity when auto-detect is on. It reports
// whether the record changed; repeated calls are no-ops.
func (m *Manager) AddDiscoveredPlayer(identity string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.cfg.AutoDetectNewPlayers || !m.cfg.Enable(identity) {
		return false, nil
	}
	slog.Info("config: enabled new player", "identity", identity)
	return true, m.save()
}

// SetPlayerEnabled adds identity to or removes it from the enabled set.
func (m *Manager) SetPlayerEnabled(identity string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed bool
	if enabled {
		changed = m.cfg.Enable(identity)
	} else {
		changed = m.cfg.Disable(identity)
	}
	if !changed {
		return nil
	}
	return m.save()
}

// Reload re-reads the record from the store, e.g. after an external edit.
// On failure the current record is kept. It reports whether anything
// changed.
func (m *Manager) Reload() (bool, error) {
	cfg, err := m.load()
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if reflect.DeepEqual(cfg, m.cfg) {
		return false, nil
	}
	m.cfg = cfg
	slog.Info("config: reloaded player config", "enabled", len(cfg.EnabledPlayers))
	return true, nil
}
