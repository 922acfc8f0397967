package models_test

import (
	"math"
	"testing"

	"github.com/micro-nova/nowplaying/internal/models"
)

func TestDefaultSnapshot(t *testing.T) {
	s := models.DefaultSnapshot()
	if s.Title != "No music playing" {
		t.Errorf("Title = %q, want %q", s.Title, "No music playing")
	}
	if s.Artist != "" {
		t.Errorf("Artist = %q, want empty", s.Artist)
	}
	if s.Status != models.StatusStopped {
		t.Errorf("Status = %q, want Stopped", s.Status)
	}
	if s.Volume != 0.5 {
		t.Errorf("Volume = %v, want 0.5", s.Volume)
	}
	if s.ArtURL != "" || s.Player != "" {
		t.Errorf("default snapshot should have no art and no player, got %+v", s)
	}
}

func TestParsePlaybackStatus(t *testing.T) {
	tests := []struct {
		in   string
		want models.PlaybackStatus
	}{
		{"Playing", models.StatusPlaying},
		{"paused", models.StatusPaused},
		{"Stopped", models.StatusStopped},
		{"", models.StatusStopped},
		{"buffering", models.StatusStopped},
	}
	for _, tt := range tests {
		if got := models.ParsePlaybackStatus(tt.in); got != tt.want {
			t.Errorf("ParsePlaybackStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToggled(t *testing.T) {
	if got := models.StatusPlaying.Toggled(); got != models.StatusPaused {
		t.Errorf("Playing.Toggled() = %q, want Paused", got)
	}
	if got := models.StatusPaused.Toggled(); got != models.StatusPlaying {
		t.Errorf("Paused.Toggled() = %q, want Playing", got)
	}
	if got := models.StatusStopped.Toggled(); got != models.StatusPlaying {
		t.Errorf("Stopped.Toggled() = %q, want Playing", got)
	}
}

func TestAppConfigEnableIsIdempotent(t *testing.T) {
	cfg := models.DefaultConfig()
	if !cfg.Enable("VLC") {
		t.Fatal("first Enable should report a change")
	}
	if !cfg.Enable("Spotify") {
		t.Fatal("Enable of a new identity should report a change")
	}
	if cfg.Enable("VLC") {
		t.Error("second Enable of the same identity should be a no-op")
	}
	want := []string{"Spotify", "VLC"}
	if len(cfg.EnabledPlayers) != len(want) {
		t.Fatalf("EnabledPlayers = %v, want %v", cfg.EnabledPlayers, want)
	}
	for i := range want {
		if cfg.EnabledPlayers[i] != want[i] {
			t.Errorf("EnabledPlayers[%d] = %q, want %q", i, cfg.EnabledPlayers[i], want[i])
		}
	}
	if !cfg.IsEnabled("Spotify") || cfg.IsEnabled("mpv") {
		t.Error("IsEnabled reported wrong membership")
	}
}

func TestAppConfigDisable(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.Enable("a")
	cfg.Enable("b")
	if !cfg.Disable("a") {
		t.Fatal("Disable of an enabled identity should report a change")
	}
	if cfg.Disable("a") {
		t.Error("Disable of a missing identity should be a no-op")
	}
	if cfg.IsEnabled("a") || !cfg.IsEnabled("b") {
		t.Errorf("unexpected set after Disable: %v", cfg.EnabledPlayers)
	}
}

func TestAppConfigDeepCopy(t *testing.T) {
	sel := "Spotify"
	cfg := models.AppConfig{EnabledPlayers: []string{"Spotify"}, SelectedPlayer: &sel}
	cp := cfg.DeepCopy()
	*cp.SelectedPlayer = "VLC"
	cp.EnabledPlayers[0] = "VLC"
	if *cfg.SelectedPlayer != "Spotify" || cfg.EnabledPlayers[0] != "Spotify" {
		t.Error("DeepCopy shares memory with its source")
	}
}

func TestCommandFor(t *testing.T) {
	tests := []struct {
		intent models.Intent
		want   models.CommandKind
	}{
		{models.IntentPlayPause, models.CmdPlayPause},
		{models.IntentMiddleClick, models.CmdPlayPause},
		{models.IntentNext, models.CmdNext},
		{models.IntentScrollUp, models.CmdNext},
		{models.IntentPrevious, models.CmdPrevious},
		{models.IntentScrollDown, models.CmdPrevious},
	}
	for _, tt := range tests {
		cmd, ok := models.CommandFor(tt.intent)
		if !ok || cmd.Kind != tt.want {
			t.Errorf("CommandFor(%q) = %v, %v; want %q", tt.intent, cmd.Kind, ok, tt.want)
		}
	}
	if _, ok := models.CommandFor("shuffle"); ok {
		t.Error("CommandFor should reject unknown intents")
	}
}

func TestClampVolume(t *testing.T) {
	for in, want := range map[float64]float64{-1: 0, 0: 0, 0.3: 0.3, 1: 1, 7: 1, math.Inf(1): 1} {
		if got := models.ClampVolume(in); got != want {
			t.Errorf("ClampVolume(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestArtInfo(t *testing.T) {
	st := models.AlbumArtState{URL: "http://a/1.jpg"}
	if info := st.Info(); info.Loaded || info.URL != "http://a/1.jpg" {
		t.Errorf("Info() = %+v, want unloaded with url", info)
	}
	st.Image = &models.ArtImage{Width: 10, Height: 20}
	if info := st.Info(); !info.Loaded || info.Width != 10 || info.Height != 20 {
		t.Errorf("Info() = %+v, want loaded 10x20", info)
	}
}
