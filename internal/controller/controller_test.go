package controller_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/micro-nova/nowplaying/internal/config"
	"github.com/micro-nova/nowplaying/internal/controller"
	"github.com/micro-nova/nowplaying/internal/events"
	"github.com/micro-nova/nowplaying/internal/models"
	"github.com/micro-nova/nowplaying/internal/mpris"
)

func str(s string) *string { return &s }

// gatedFetcher blocks each URL until the test releases it.
type gatedFetcher struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	calls map[string]int
	body  []byte
}

func newGatedFetcher(t *testing.T, w, h int) *gatedFetcher {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return &gatedFetcher{
		gates: make(map[string]chan struct{}),
		calls: make(map[string]int),
		body:  buf.Bytes(),
	}
}

func (f *gatedFetcher) gate(url string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.gates[url]
	if !ok {
		g = make(chan struct{})
		f.gates[url] = g
	}
	return g
}

func (f *gatedFetcher) release(url string) { close(f.gate(url)) }

func (f *gatedFetcher) Calls(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *gatedFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls[url]++
	f.mu.Unlock()
	select {
	case <-f.gate(url):
		return f.body, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type harness struct {
	ctrl    *controller.Controller
	src     *mpris.Mock
	store   *config.MemStore
	bus     *events.Bus
	fetcher *gatedFetcher
}

// start runs a controller with a slow ticker so tests drive polls with
// Refresh.
func start(t *testing.T, seed func(*mpris.Mock)) *harness {
	t.Helper()
	src := mpris.NewMock()
	if seed != nil {
		seed(src)
	}
	store := config.NewMemStore()
	bus := events.NewBus()
	fetcher := newGatedFetcher(t, 64, 64)
	ctrl := controller.New(src, config.NewManager(store), controller.Options{
		PollInterval: time.Hour,
		Fetcher:      fetcher,
		Bus:          bus,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ctrl.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return &harness{ctrl: ctrl, src: src, store: store, bus: bus, fetcher: fetcher}
}

func (h *harness) refresh(t *testing.T) models.View {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.ctrl.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	return h.ctrl.View()
}

// waitFor polls View() until cond holds.
func waitFor(t *testing.T, h *harness, what string, cond func(models.View) bool) models.View {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v := h.ctrl.View(); cond(v) {
			return v
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s; view = %+v", what, h.ctrl.View())
	return models.View{}
}

func TestInitialViewIsDefault(t *testing.T) {
	h := start(t, nil)
	v := h.refresh(t)
	if v.Snapshot != models.DefaultSnapshot() {
		t.Errorf("Snapshot = %+v, want default", v.Snapshot)
	}
	if v.Provisional || v.Art.Loaded || len(v.Players) != 0 {
		t.Errorf("View = %+v", v)
	}
}

func TestAutoBindsPlayingPlayer(t *testing.T) {
	h := start(t, func(m *mpris.Mock) {
		m.AddPlayer("VLC", mpris.State{Status: models.StatusStopped})
		m.AddPlayer("Rhythmbox", mpris.State{Status: models.StatusPlaying, Title: str("Karma Police")})
	})
	v := h.refresh(t)
	if v.Snapshot.Player != "Rhythmbox" || v.Snapshot.Title != "Karma Police" {
		t.Errorf("Snapshot = %+v, want Rhythmbox", v.Snapshot)
	}
	if len(v.Players) != 2 || v.Players[0].Identity != "Rhythmbox" {
		t.Errorf("Players = %+v", v.Players)
	}
	if len(v.Config.EnabledPlayers) != 2 {
		t.Errorf("EnabledPlayers = %v, want both auto-enabled", v.Config.EnabledPlayers)
	}
}

func TestSelectPlayerPersistsAndBinds(t *testing.T) {
	h := start(t, func(m *mpris.Mock) {
		m.AddPlayer("VLC", mpris.State{Status: models.StatusPlaying})
		m.AddPlayer("Spotify", mpris.State{Status: models.StatusPaused})
	})
	ctx := context.Background()

	if err := h.ctrl.SelectPlayer(ctx, str("Spotify")); err != nil {
		t.Fatalf("SelectPlayer() error = %v", err)
	}
	v := h.ctrl.View()
	if v.Snapshot.Player != "Spotify" || v.Snapshot.Status != models.StatusPaused {
		t.Errorf("Snapshot = %+v, want paused Spotify", v.Snapshot)
	}
	var stored models.AppConfig
	if err := h.store.Get(models.ConfigKey, &stored); err != nil || stored.SelectedPlayer == nil || *stored.SelectedPlayer != "Spotify" {
		t.Errorf("selection not persisted: %+v, %v", stored, err)
	}

	// Selected player goes away: no fallback to the playing VLC.
	h.src.RemovePlayer("Spotify")
	v = h.refresh(t)
	if v.Snapshot != models.DefaultSnapshot() {
		t.Errorf("Snapshot = %+v, want default with selected player gone", v.Snapshot)
	}

	if err := h.ctrl.SelectPlayer(ctx, str("")); err != nil {
		t.Fatalf("SelectPlayer(\"\") error = %v", err)
	}
	if v := h.ctrl.View(); v.Snapshot.Player != "VLC" || v.Config.SelectedPlayer != nil {
		t.Errorf("after clearing: %+v", v)
	}
}

func TestPlayPauseProvisionalThenConfirmed(t *testing.T) {
	h := start(t, func(m *mpris.Mock) {
		m.AddPlayer("VLC", mpris.State{Status: models.StatusPaused})
	})
	h.refresh(t)

	ch := h.bus.Subscribe("test")
	defer h.bus.Unsubscribe("test")

	if err := h.ctrl.PlayPause(context.Background()); err != nil {
		t.Fatalf("PlayPause() error = %v", err)
	}

	// The first View after the command carries the prediction; the re-poll
	// then confirms it.
	var sawProvisional bool
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v := <-ch:
			if v.Provisional && v.Snapshot.Status == models.StatusPlaying {
				sawProvisional = true
			}
			if sawProvisional && !v.Provisional {
				if v.Snapshot.Status != models.StatusPlaying {
					t.Errorf("confirmed status = %q, want Playing", v.Snapshot.Status)
				}
				if got := len(h.src.Commands("VLC")); got != 1 {
					t.Errorf("commands sent = %d, want 1", got)
				}
				return
			}
		case <-deadline:
			t.Fatalf("never saw provisional then confirmed views (provisional seen: %v)", sawProvisional)
		}
	}
}

func TestSetVolumeEchoed(t *testing.T) {
	h := start(t, func(m *mpris.Mock) {
		m.AddPlayer("VLC", mpris.State{Status: models.StatusPlaying})
	})
	h.refresh(t)

	if err := h.ctrl.SetVolume(context.Background(), 0.25); err != nil {
		t.Fatalf("SetVolume() error = %v", err)
	}
	v := h.refresh(t)
	if v.Snapshot.Volume != 0.25 || v.Provisional {
		t.Errorf("Volume = %v provisional %v, want 0.25 confirmed", v.Snapshot.Volume, v.Provisional)
	}
}

func TestBadInput(t *testing.T) {
	h := start(t, nil)
	ctx := context.Background()

	var appErr *models.AppError
	if err := h.ctrl.Dispatch(ctx, "double_click"); !errors.As(err, &appErr) || appErr.Status != 400 {
		t.Errorf("Dispatch(unknown) error = %v, want 400", err)
	}
	if err := h.ctrl.SetVolume(ctx, math.NaN()); !errors.As(err, &appErr) || appErr.Status != 400 {
		t.Errorf("SetVolume(NaN) error = %v, want 400", err)
	}
	if err := h.ctrl.SetPlayerEnabled(ctx, "", true); !errors.As(err, &appErr) {
		t.Errorf("SetPlayerEnabled(\"\") error = %v, want AppError", err)
	}
}

func TestDispatchGestures(t *testing.T) {
	h := start(t, func(m *mpris.Mock) {
		m.AddPlayer("VLC", mpris.State{Status: models.StatusPlaying})
	})
	h.refresh(t)
	ctx := context.Background()

	for _, in := range []models.Intent{models.IntentScrollUp, models.IntentScrollUp, models.IntentScrollDown} {
		if err := h.ctrl.Dispatch(ctx, in); err != nil {
			t.Fatalf("Dispatch(%s) error = %v", in, err)
		}
	}
	if got := h.src.Track("VLC"); got != 1 {
		t.Errorf("Track = %d, want 1", got)
	}
	if err := h.ctrl.Dispatch(ctx, models.IntentMiddleClick); err != nil {
		t.Fatal(err)
	}
	cmds := h.src.Commands("VLC")
	if cmds[len(cmds)-1].Kind != models.CmdPlayPause {
		t.Errorf("middle_click sent %v, want play_pause", cmds[len(cmds)-1])
	}
}

func TestAdapterUnavailableAbsorbed(t *testing.T) {
	h := start(t, func(m *mpris.Mock) {
		m.AddPlayer("VLC", mpris.State{Status: models.StatusPlaying})
	})
	h.refresh(t)

	h.src.SetFailList(true)
	v := h.refresh(t)
	if v.Snapshot != models.DefaultSnapshot() || len(v.Players) != 0 {
		t.Errorf("View = %+v, want default and no players", v)
	}
	if err := h.ctrl.PlayPause(context.Background()); err != nil {
		t.Errorf("PlayPause() with bus down = %v, want nil", err)
	}
}

func TestStaleArtThroughLoop(t *testing.T) {
	h := start(t, func(m *mpris.Mock) {
		m.AddPlayer("VLC", mpris.State{Status: models.StatusPlaying, ArtURL: "http://art/1.jpg"})
	})
	h.refresh(t)
	if h.ctrl.View().Art.URL != "http://art/1.jpg" {
		t.Fatalf("Art.URL = %q", h.ctrl.View().Art.URL)
	}

	h.src.SetArtURL("VLC", "http://art/2.jpg")
	h.refresh(t)

	// 1.jpg resolves after the URL moved on; it must not become the image.
	h.fetcher.release("http://art/1.jpg")
	time.Sleep(50 * time.Millisecond)
	h.refresh(t)
	if v := h.ctrl.View(); v.Art.Loaded || h.ctrl.Art() != nil {
		t.Fatalf("stale 1.jpg result was applied: %+v", v.Art)
	}

	h.fetcher.release("http://art/2.jpg")
	v := waitFor(t, h, "2.jpg to load", func(v models.View) bool { return v.Art.Loaded })
	if v.Art.URL != "http://art/2.jpg" || v.Art.Width != 64 {
		t.Errorf("Art = %+v, want loaded 2.jpg", v.Art)
	}
	if img := h.ctrl.Art(); img == nil || img.ContentType != "image/png" {
		t.Errorf("Art() = %+v", img)
	}
}

func TestSameArtURLFetchedOnce(t *testing.T) {
	h := start(t, func(m *mpris.Mock) {
		m.AddPlayer("VLC", mpris.State{Status: models.StatusPlaying, ArtURL: "http://art/a.png"})
	})
	for i := 0; i < 3; i++ {
		h.refresh(t)
	}
	h.fetcher.release("http://art/a.png")
	waitFor(t, h, "art to load", func(v models.View) bool { return v.Art.Loaded })
	h.refresh(t)
	if got := h.fetcher.Calls("http://art/a.png"); got != 1 {
		t.Errorf("fetches = %d, want 1", got)
	}
}

func TestConfigReloadRequest(t *testing.T) {
	h := start(t, func(m *mpris.Mock) {
		m.AddPlayer("VLC", mpris.State{Status: models.StatusPlaying})
		m.AddPlayer("Spotify", mpris.State{Status: models.StatusPaused})
	})
	h.refresh(t)

	// Simulate an external edit selecting Spotify.
	edited := models.DefaultConfig()
	edited.SelectedPlayer = str("Spotify")
	if err := h.store.Set(models.ConfigKey, edited); err != nil {
		t.Fatal(err)
	}
	h.ctrl.RequestConfigReload()
	waitFor(t, h, "reloaded selection", func(v models.View) bool { return v.Snapshot.Player == "Spotify" })
}

func TestDoAfterStop(t *testing.T) {
	src := mpris.NewMock()
	ctrl := controller.New(src, config.NewManager(config.NewMemStore()), controller.Options{PollInterval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ctrl.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if err := ctrl.Refresh(context.Background()); !errors.Is(err, controller.ErrStopped) {
		t.Errorf("Refresh() after stop = %v, want ErrStopped", err)
	}
}

func TestViewIsCopy(t *testing.T) {
	h := start(t, func(m *mpris.Mock) {
		m.AddPlayer("VLC", mpris.State{})
	})
	v := h.refresh(t)
	v.Players[0].Identity = "mutated"
	v.Config.EnabledPlayers[0] = "mutated"
	again := h.ctrl.View()
	if again.Players[0].Identity != "VLC" || again.Config.EnabledPlayers[0] != "VLC" {
		t.Error("View() shares memory with the controller")
	}
}
