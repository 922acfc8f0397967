package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/micro-nova/nowplaying/internal/models"
	"github.com/micro-nova/nowplaying/internal/mpris"
)

// Select decides which player instance to bind.
//
// An explicit selection is authoritative: it is bound whether or not it is
// playing, and if it cannot be bound the result is unbound with no fallback.
//
// Without a selection the candidates are tried in order: the bound player
// (current) if it is playing, other playing players, the bound player in
// any state, then paused players. A candidate that left the bus since
// discovery is skipped. entries must be sorted by identity. A nil
// connection with a nil error means nothing qualified.
func Select(ctx context.Context, src mpris.Source, entries []mpris.Entry, selected *string, current string) (*mpris.Conn, error) {
	if selected != nil {
		for _, e := range entries {
			if e.Identity != *selected {
				continue
			}
			conn, err := src.Bind(ctx, e)
			if err != nil {
				return nil, fmt.Errorf("bind selected player: %w", err)
			}
			return conn, nil
		}
		return nil, fmt.Errorf("bind selected player: %w: %q", models.ErrPlayerNotFound, *selected)
	}

	var lastErr error
	for _, e := range autoCandidates(entries, current) {
		conn, err := src.Bind(ctx, e)
		if err == nil {
			return conn, nil
		}
		if errors.Is(err, models.ErrAdapterUnavailable) {
			return nil, fmt.Errorf("bind player: %w", err)
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, fmt.Errorf("bind player: %w", lastErr)
	}
	return nil, nil
}

func autoCandidates(entries []mpris.Entry, current string) []mpris.Entry {
	var (
		playing, paused []mpris.Entry
		bound           *mpris.Entry
	)
	for i, e := range entries {
		switch {
		case current != "" && e.Identity == current:
			bound = &entries[i]
		case e.Playing():
			playing = append(playing, e)
		case e.Status == models.StatusPaused:
			paused = append(paused, e)
		}
	}

	out := make([]mpris.Entry, 0, len(playing)+len(paused)+1)
	if bound != nil && bound.Playing() {
		out = append(out, *bound)
	}
	out = append(out, playing...)
	if bound != nil && !bound.Playing() {
		out = append(out, *bound)
	}
	return append(out, paused...)
}
