package config

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/micro-nova/nowplaying/internal/models"
)

// migrateConfig normalizes a loaded record: the enabled set becomes sorted
// and unique, blank identities are dropped, and a blank selection means
// no selection.
func migrateConfig(cfg *models.AppConfig) {
	ids := make([]string, 0, len(cfg.EnabledPlayers))
	seen := make(map[string]bool, len(cfg.EnabledPlayers))
	for _, id := range cfg.EnabledPlayers {
		if strings.TrimSpace(id) == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) != len(cfg.EnabledPlayers) {
		slog.Warn("config: dropped duplicate or blank enabled players",
			"before", len(cfg.EnabledPlayers), "after", len(ids))
	}
	sort.Strings(ids)
	cfg.EnabledPlayers = ids

	if cfg.SelectedPlayer != nil && strings.TrimSpace(*cfg.SelectedPlayer) == "" {
		cfg.SelectedPlayer = nil
	}
}
