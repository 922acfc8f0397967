package models

// Placeholder strings used when a bound player leaves fields empty.
const (
	NoPlayerTitle = "No music playing"
	UnknownTitle  = "Unknown"
	UnknownArtist = "Unknown Artist"
	DefaultVolume = 0.5
)

// PlaybackSnapshot is the presentation-ready state of the bound player.
// It is rebuilt every poll and never mutated after publication.
type PlaybackSnapshot struct {
	Player string         `json:"player"` // bound identity, "" when unbound
	Title  string         `json:"title"`
	Artist string         `json:"artist"`
	Status PlaybackStatus `json:"status"`
	Volume float64        `json:"volume"`            // [0, 1]
	ArtURL string         `json:"art_url,omitempty"` // "" means no art
}

// DefaultSnapshot is shown when no player is bound or the bound player
// could not be read.
func DefaultSnapshot() PlaybackSnapshot {
	return PlaybackSnapshot{
		Title:  NoPlayerTitle,
		Status: StatusStopped,
		Volume: DefaultVolume,
	}
}

// ArtImage is decoded album art, re-encoded for display.
type ArtImage struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// AlbumArtState pairs the tracked art URL with its decoded image.
// Image is nil until the fetch for URL completes, and stays nil if it failed.
type AlbumArtState struct {
	URL   string
	Image *ArtImage
}

// ArtInfo is the JSON-facing summary of AlbumArtState. The image bytes are
// served separately.
type ArtInfo struct {
	URL    string `json:"url,omitempty"`
	Loaded bool   `json:"loaded"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Info summarises the art state for clients.
func (a AlbumArtState) Info() ArtInfo {
	info := ArtInfo{URL: a.URL}
	if a.Image != nil {
		info.Loaded = true
		info.Width = a.Image.Width
		info.Height = a.Image.Height
	}
	return info
}

// View is everything a presentation layer reads on a render pass.
type View struct {
	Snapshot    PlaybackSnapshot   `json:"snapshot"`
	Provisional bool               `json:"provisional"` // optimistic values not yet confirmed by a poll
	Art         ArtInfo            `json:"art"`
	Players     []DiscoveredPlayer `json:"players"`
	Config      AppConfig          `json:"config"`
}
