package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/micro-nova/nowplaying/internal/config"
	"github.com/micro-nova/nowplaying/internal/models"
)

func TestListenPort(t *testing.T) {
	tests := []struct {
		addr string
		want int
	}{
		{"127.0.0.1:7878", 7878},
		{":8080", 8080},
		{"localhost", 80},
		{"[::1]:9000", 9000},
		{"host:http", 80},
	}
	for _, tt := range tests {
		if got := listenPort(tt.addr); got != tt.want {
			t.Errorf("listenPort(%q) = %d, want %d", tt.addr, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	ctx := context.Background()
	if l := newLogger("debug", "json"); !l.Enabled(ctx, slog.LevelDebug) {
		t.Error("debug logger should enable debug")
	}
	if l := newLogger("warn", "text"); l.Enabled(ctx, slog.LevelInfo) {
		t.Error("warn logger should not enable info")
	}
	if l := newLogger("bogus", ""); !l.Enabled(ctx, slog.LevelInfo) {
		t.Error("unknown level should default to info")
	}
}

func TestOpenStore_Fallback(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, ok := openStore(blocker).(*config.MemStore); !ok {
		t.Error("openStore over a regular file should fall back to MemStore")
	}
	if _, ok := openStore(dir).(*config.JSONStore); !ok {
		t.Error("openStore over a directory should return a JSONStore")
	}
}

func TestFetchView(t *testing.T) {
	want := models.View{Snapshot: models.PlaybackSnapshot{Player: "Spotify", Title: "Teardrop", Status: models.StatusPlaying}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-API-Key") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(models.AppError{Code: "UNAUTHORIZED", Message: "missing or invalid API key"})
			return
		}
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	got, err := fetchView(context.Background(), srv.Client(), srv.URL+"/", "k")
	if err != nil {
		t.Fatalf("fetchView: %v", err)
	}
	if got.Snapshot != want.Snapshot {
		t.Errorf("snapshot = %+v, want %+v", got.Snapshot, want.Snapshot)
	}

	_, err = fetchView(context.Background(), srv.Client(), srv.URL, "")
	if err == nil || !strings.Contains(err.Error(), "invalid API key") {
		t.Errorf("fetchView without key: err = %v, want API message", err)
	}
}

func TestPrintSnapshot(t *testing.T) {
	var buf bytes.Buffer
	printSnapshot(&buf, models.PlaybackSnapshot{
		Player: "Spotify",
		Title:  "Teardrop",
		Artist: "Massive Attack",
		Status: models.StatusPaused,
		Volume: 0.7,
	})
	out := buf.String()
	for _, want := range []string{"Spotify", "Teardrop", "Massive Attack", "Paused", "70%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	printSnapshot(&buf, models.DefaultSnapshot())
	if !strings.Contains(buf.String(), "(none)") {
		t.Errorf("unbound output = %q, want (none)", buf.String())
	}
}

func TestPlayerFlags(t *testing.T) {
	sel := "Spotify"
	view := models.View{
		Snapshot: models.PlaybackSnapshot{Player: "Spotify"},
		Config:   models.AppConfig{SelectedPlayer: &sel},
	}
	got := playerFlags(models.DiscoveredPlayer{Identity: "Spotify", IsActive: true, Enabled: true}, view)
	if got != "bound, selected, playing, enabled" {
		t.Errorf("playerFlags = %q", got)
	}
	got = playerFlags(models.DiscoveredPlayer{Identity: "VLC media player"}, view)
	if got != "disabled" {
		t.Errorf("playerFlags = %q, want disabled", got)
	}
}
