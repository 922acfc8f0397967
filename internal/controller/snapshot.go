package controller

import (
	"context"
	"strings"

	"github.com/micro-nova/nowplaying/internal/models"
	"github.com/micro-nova/nowplaying/internal/mpris"
)

// BuildSnapshot reads the bound player and fills placeholders for missing
// fields. A nil conn or a read error yields the default snapshot; the error
// is returned for logging only.
func BuildSnapshot(ctx context.Context, src mpris.Source, conn *mpris.Conn) (models.PlaybackSnapshot, error) {
	if conn == nil {
		return models.DefaultSnapshot(), nil
	}
	st, err := src.ReadState(ctx, conn)
	if err != nil {
		return models.DefaultSnapshot(), err
	}
	return snapshotFromState(conn.Identity, st), nil
}

func snapshotFromState(identity string, st mpris.State) models.PlaybackSnapshot {
	snap := models.PlaybackSnapshot{
		Player: identity,
		Title:  models.UnknownTitle,
		Artist: models.UnknownArtist,
		Status: st.Status,
		Volume: models.DefaultVolume,
		ArtURL: st.ArtURL,
	}
	if st.Title != nil {
		snap.Title = *st.Title
	}
	if len(st.Artists) > 0 {
		snap.Artist = strings.Join(st.Artists, ", ")
	}
	if st.Volume != nil {
		snap.Volume = models.ClampVolume(*st.Volume)
	}
	if snap.Status == "" {
		snap.Status = models.StatusStopped
	}
	return snap
}
