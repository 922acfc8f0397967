package controller

import "github.com/micro-nova/nowplaying/internal/models"

// ArtOutcome is what Deliver did with a fetch result.
type ArtOutcome int

const (
	ArtApplied ArtOutcome = iota // image stored for the tracked URL
	ArtFailed                    // fetch for the tracked URL failed; no image
	ArtStale                     // result for a URL no longer tracked; dropped
)

// ArtCoordinator tracks the current art URL and its image, and decides when
// a fetch is needed. It is owned by the controller loop and not safe for
// concurrent use.
type ArtCoordinator struct {
	state    models.AlbumArtState
	inflight map[string]bool
}

// NewArtCoordinator returns a coordinator that has seen no artwork URL.
func NewArtCoordinator() *ArtCoordinator {
	return &ArtCoordinator{inflight: make(map[string]bool)}
}

// Observe records the art URL of the latest snapshot and returns the URL to
// fetch, or "" when no fetch should start. A changed URL drops the old
// image at once. A URL whose fetch is still running is not fetched again.
func (a *ArtCoordinator) Observe(url string) string {
	if url == a.state.URL {
		return ""
	}
	if url == "" {
		a.state = models.AlbumArtState{}
		return ""
	}
	a.state = models.AlbumArtState{URL: url}
	if a.inflight[url] {
		return ""
	}
	a.inflight[url] = true
	return url
}

// Deliver applies a completed fetch of url. Results for any URL other than
// the tracked one are stale and dropped.
func (a *ArtCoordinator) Deliver(url string, img *models.ArtImage, err error) ArtOutcome {
	delete(a.inflight, url)
	if url != a.state.URL {
		return ArtStale
	}
	if err != nil || img == nil {
		a.state.Image = nil
		return ArtFailed
	}
	a.state.Image = img
	return ArtApplied
}

// State returns the tracked URL and image.
func (a *ArtCoordinator) State() models.AlbumArtState { return a.state }

// InFlight reports whether a fetch of url has started and not been delivered.
func (a *ArtCoordinator) InFlight(url string) bool { return a.inflight[url] }
