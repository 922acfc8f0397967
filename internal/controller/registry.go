package controller

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/micro-nova/nowplaying/internal/metrics"
	"github.com/micro-nova/nowplaying/internal/models"
	"github.com/micro-nova/nowplaying/internal/mpris"
)

// PlayerEnabler is the part of the config manager the registry needs.
type PlayerEnabler interface {
	AddDiscoveredPlayer(identity string) (bool, error)
	IsEnabled(identity string) bool
}

// Registry holds the players found by the most recent discovery, and for
// each identity the bus instance to bind.
type Registry struct {
	mu      sync.RWMutex
	players map[string]models.DiscoveredPlayer
	entries map[string]mpris.Entry
	metrics *metrics.Metrics
}

// NewRegistry creates an empty registry. m may be nil.
func NewRegistry(m *metrics.Metrics) *Registry {
	return &Registry{
		players: make(map[string]models.DiscoveredPlayer),
		entries: make(map[string]mpris.Entry),
		metrics: m,
	}
}

// Discover rebuilds the registry from src. Unknown identities are offered
// to cfg for auto-enabling. If listing fails the registry is left empty.
func (r *Registry) Discover(ctx context.Context, src mpris.Source, cfg PlayerEnabler) {
	entries, err := src.ListPlayers(ctx)
	if err != nil {
		slog.Debug("controller: player discovery failed", "err", err)
		r.metrics.IncAdapterError("list")
		entries = nil
	}

	next := make(map[string]models.DiscoveredPlayer, len(entries))
	chosen := make(map[string]mpris.Entry, len(entries))
	for _, e := range entries {
		if !cfg.IsEnabled(e.Identity) {
			if _, err := cfg.AddDiscoveredPlayer(e.Identity); err != nil {
				slog.Warn("controller: failed to persist discovered player", "identity", e.Identity, "err", err)
			}
		}
		// Several instances may share an identity; keep the most active one.
		if cur, ok := chosen[e.Identity]; !ok || statusRank(e.Status) < statusRank(cur.Status) {
			chosen[e.Identity] = e
		}
		next[e.Identity] = models.DiscoveredPlayer{
			Identity: e.Identity,
			IsActive: chosen[e.Identity].Playing(),
			Enabled:  cfg.IsEnabled(e.Identity),
		}
	}

	r.mu.Lock()
	r.players = next
	r.entries = chosen
	r.mu.Unlock()
	r.metrics.SetPlayers(len(next))
}

// Players returns the discovered players sorted by identity.
func (r *Registry) Players() []models.DiscoveredPlayer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.DiscoveredPlayer, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out
}

// Lookup returns the entry for identity.
func (r *Registry) Lookup(identity string) (models.DiscoveredPlayer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[identity]
	return p, ok
}

// Entry returns the bus instance chosen for identity.
func (r *Registry) Entry(identity string) (mpris.Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[identity]
	return e, ok
}

// Entries returns the chosen instance of every identity, sorted by identity.
func (r *Registry) Entries() []mpris.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mpris.Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out
}

// Len returns the number of distinct identities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// statusRank orders instances of one identity: playing, then paused, then
// anything else.
func statusRank(s models.PlaybackStatus) int {
	switch s {
	case models.StatusPlaying:
		return 0
	case models.StatusPaused:
		return 1
	}
	return 2
}
