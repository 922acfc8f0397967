package models

import "sort"

// ConfigVersion is the schema version of the persisted AppConfig record.
const ConfigVersion = 1

// ConfigKey is the store key the AppConfig record lives under.
const ConfigKey = "config"

// AppConfig is the persisted player configuration.
// SelectedPlayer nil means no player was chosen; a non-nil selection whose
// player is gone is a different state and surfaces as "no player".
type AppConfig struct {
	EnabledPlayers       []string `json:"enabled_players"` // set, kept sorted
	AutoDetectNewPlayers bool     `json:"auto_detect_new_players"`
	SelectedPlayer       *string  `json:"selected_player"`
}

// DefaultConfig returns the configuration used when no record exists.
func DefaultConfig() AppConfig {
	return AppConfig{
		EnabledPlayers:       []string{},
		AutoDetectNewPlayers: true,
	}
}

// DeepCopy returns a copy sharing no memory with c.
func (c AppConfig) DeepCopy() AppConfig {
	out := AppConfig{
		EnabledPlayers:       append([]string{}, c.EnabledPlayers...),
		AutoDetectNewPlayers: c.AutoDetectNewPlayers,
	}
	if c.SelectedPlayer != nil {
		sel := *c.SelectedPlayer
		out.SelectedPlayer = &sel
	}
	return out
}

// IsEnabled reports whether identity is in the enabled set.
func (c *AppConfig) IsEnabled(identity string) bool {
	i := sort.SearchStrings(c.EnabledPlayers, identity)
	return i < len(c.EnabledPlayers) && c.EnabledPlayers[i] == identity
}

// Enable adds identity to the enabled set. It returns false if it was
// already present.
func (c *AppConfig) Enable(identity string) bool {
	i := sort.SearchStrings(c.EnabledPlayers, identity)
	if i < len(c.EnabledPlayers) && c.EnabledPlayers[i] == identity {
		return false
	}
	c.EnabledPlayers = append(c.EnabledPlayers, "")
	copy(c.EnabledPlayers[i+1:], c.EnabledPlayers[i:])
	c.EnabledPlayers[i] = identity
	return true
}

// Disable removes identity from the enabled set. It returns false if it was
// not present.
func (c *AppConfig) Disable(identity string) bool {
	i := sort.SearchStrings(c.EnabledPlayers, identity)
	if i >= len(c.EnabledPlayers) || c.EnabledPlayers[i] != identity {
		return false
	}
	c.EnabledPlayers = append(c.EnabledPlayers[:i], c.EnabledPlayers[i+1:]...)
	return true
}

// Selected returns the selected identity and whether one is set.
func (c *AppConfig) Selected() (string, bool) {
	if c.SelectedPlayer == nil {
		return "", false
	}
	return *c.SelectedPlayer, true
}
