package controller

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/micro-nova/nowplaying/internal/models"
)

// PlayPause toggles playback on the bound player.
func (c *Controller) PlayPause(ctx context.Context) error {
	return c.Do(ctx, func(ctx context.Context) error {
		c.send(ctx, models.Command{Kind: models.CmdPlayPause})
		return nil
	})
}

// Next skips to the next track.
func (c *Controller) Next(ctx context.Context) error {
	return c.Do(ctx, func(ctx context.Context) error {
		c.send(ctx, models.Command{Kind: models.CmdNext})
		return nil
	})
}

// Previous goes back one track.
func (c *Controller) Previous(ctx context.Context) error {
	return c.Do(ctx, func(ctx context.Context) error {
		c.send(ctx, models.Command{Kind: models.CmdPrevious})
		return nil
	})
}

// SetVolume sets the bound player's volume; v is clamped to [0, 1].
func (c *Controller) SetVolume(ctx context.Context, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return models.ErrBadRequest("volume must be a finite number")
	}
	return c.Do(ctx, func(ctx context.Context) error {
		c.send(ctx, models.Command{Kind: models.CmdSetVolume, Volume: models.ClampVolume(v)})
		return nil
	})
}

// Dispatch runs the command mapped to a presentation-layer intent.
func (c *Controller) Dispatch(ctx context.Context, intent models.Intent) error {
	cmd, ok := models.CommandFor(intent)
	if !ok {
		return models.ErrBadRequest(fmt.Sprintf("unknown intent %q", intent))
	}
	return c.Do(ctx, func(ctx context.Context) error {
		c.send(ctx, cmd)
		return nil
	})
}

// Refresh polls now and waits for the pass to finish.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.Do(ctx, func(ctx context.Context) error {
		c.poll(ctx)
		return nil
	})
}

// SelectPlayer persists the user's player choice and re-polls. nil or an
// empty identity returns to automatic selection.
func (c *Controller) SelectPlayer(ctx context.Context, identity *string) error {
	return c.Do(ctx, func(ctx context.Context) error {
		if err := c.cfg.SetSelectedPlayer(identity); err != nil {
			return fmt.Errorf("save selected player: %w", err)
		}
		if id, ok := c.cfg.SelectedPlayer(); ok {
			slog.Info("controller: player selected", "identity", id)
		} else {
			slog.Info("controller: player selection cleared")
		}
		c.poll(ctx)
		return nil
	})
}

// SetAutoDetect turns automatic enabling of new players on or off.
func (c *Controller) SetAutoDetect(ctx context.Context, on bool) error {
	return c.Do(ctx, func(ctx context.Context) error {
		if err := c.cfg.SetAutoDetect(on); err != nil {
			return fmt.Errorf("save auto-detect: %w", err)
		}
		c.poll(ctx)
		return nil
	})
}

// SetPlayerEnabled adds identity to or removes it from the enabled set.
func (c *Controller) SetPlayerEnabled(ctx context.Context, identity string, enabled bool) error {
	if identity == "" {
		return models.ErrBadRequest("player identity is required")
	}
	return c.Do(ctx, func(ctx context.Context) error {
		if err := c.cfg.SetPlayerEnabled(identity, enabled); err != nil {
			return fmt.Errorf("save enabled players: %w", err)
		}
		c.poll(ctx)
		return nil
	})
}

// send delivers cmd to the bound player and applies the optimistic
// prediction. Failures are logged and absorbed; the follow-up poll restores
// ground truth either way. Runs on the loop.
func (c *Controller) send(ctx context.Context, cmd models.Command) {
	if c.conn == nil {
		slog.Debug("controller: no player bound, ignoring command", "command", cmd.String())
		return
	}

	err := c.src.Send(ctx, c.conn, cmd)
	c.opts.Metrics.IncCommand(string(cmd.Kind), err == nil)
	if err != nil {
		slog.Warn("controller: command failed", "command", cmd.String(), "identity", c.conn.Identity, "err", err)
		c.opts.Metrics.IncAdapterError("send")
	}

	switch cmd.Kind {
	case models.CmdPlayPause:
		c.snap.Status = c.snap.Status.Toggled()
		c.provisional = true
	case models.CmdSetVolume:
		c.snap.Volume = cmd.Volume
		c.provisional = true
	}
	c.RequestRefresh()
}
