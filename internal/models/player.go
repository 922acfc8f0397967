// Package models defines the data structures shared by the nowplaying daemon.
// JSON field names are the ones served to presentation clients.
package models

import "strings"

// PlaybackStatus is the MPRIS PlaybackStatus value of a player.
type PlaybackStatus string

const (
	StatusPlaying PlaybackStatus = "Playing"
	StatusPaused  PlaybackStatus = "Paused"
	StatusStopped PlaybackStatus = "Stopped"
)

// ParsePlaybackStatus converts an MPRIS status string. Anything unrecognised
// is reported as Stopped.
func ParsePlaybackStatus(s string) PlaybackStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "playing":
		return StatusPlaying
	case "paused":
		return StatusPaused
	default:
		return StatusStopped
	}
}

// Toggled returns the status a player is expected to report after PlayPause.
// The prediction is provisional until the next poll confirms it.
func (s PlaybackStatus) Toggled() PlaybackStatus {
	if s == StatusPlaying {
		return StatusPaused
	}
	return StatusPlaying
}

// DiscoveredPlayer is one player seen on the session bus during the latest
// discovery pass. The set is rebuilt from scratch every pass.
type DiscoveredPlayer struct {
	Identity string `json:"identity"`
	IsActive bool   `json:"is_active"` // reporting Playing
	Enabled  bool   `json:"enabled"`   // member of AppConfig.EnabledPlayers
}
