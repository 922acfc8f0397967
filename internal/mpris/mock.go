package mpris

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/micro-nova/nowplaying/internal/models"
)

// Mock is a thread-safe in-memory Source for testing and development.
type Mock struct {
	mu       sync.Mutex
	players  map[string]*mockPlayer
	failList bool
	failRead bool
	failSend bool
}

type mockPlayer struct {
	state    State
	track    int
	commands []models.Command
}

// NewMock creates an empty mock with no players on the "bus".
func NewMock() *Mock {
	return &Mock{players: make(map[string]*mockPlayer)}
}

// NewDemoMock creates a mock populated with a few players, used by
// serve --mock.
func NewDemoMock() *Mock {
	m := NewMock()
	m.AddPlayer("Spotify", State{
		Title:   strPtr("Teardrop"),
		Artists: []string{"Massive Attack"},
		Status:  models.StatusPaused,
		Volume:  floatPtr(0.7),
	})
	m.AddPlayer("VLC media player", State{
		Title:  strPtr("holiday.mkv"),
		Status: models.StatusStopped,
		Volume: floatPtr(1),
	})
	return m
}

// AddPlayer puts a player on the mock bus, replacing any with the same identity.
func (m *Mock) AddPlayer(identity string, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st.Status == "" {
		st.Status = models.StatusStopped
	}
	m.players[identity] = &mockPlayer{state: st}
}

// RemovePlayer takes a player off the mock bus.
func (m *Mock) RemovePlayer(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.players, identity)
}

// SetStatus changes a player's playback status.
func (m *Mock) SetStatus(identity string, status models.PlaybackStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.players[identity]; ok {
		p.state.Status = status
	}
}

// SetArtURL changes a player's art URL.
func (m *Mock) SetArtURL(identity, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.players[identity]; ok {
		p.state.ArtURL = url
	}
}

// SetFailList makes ListPlayers and Bind fail as if the bus were gone.
func (m *Mock) SetFailList(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failList = fail
}

// SetFailRead makes ReadState fail.
func (m *Mock) SetFailRead(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failRead = fail
}

// SetFailSend makes Send fail.
func (m *Mock) SetFailSend(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSend = fail
}

// Commands returns the commands delivered to identity, oldest first.
func (m *Mock) Commands(identity string) []models.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[identity]
	if !ok {
		return nil
	}
	return append([]models.Command(nil), p.commands...)
}

// Track returns the track counter moved by Next and Previous.
func (m *Mock) Track(identity string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.players[identity]; ok {
		return p.track
	}
	return 0
}

func (m *Mock) ListPlayers(_ context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList {
		return nil, fmt.Errorf("%w: mock list failure", models.ErrAdapterUnavailable)
	}
	entries := make([]Entry, 0, len(m.players))
	for id, p := range m.players {
		entries = append(entries, Entry{
			Identity: id,
			BusName:  busNamePrefix + id,
			Status:   p.state.Status,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Identity < entries[j].Identity })
	return entries, nil
}

func (m *Mock) Bind(_ context.Context, e Entry) (*Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList {
		return nil, fmt.Errorf("%w: mock list failure", models.ErrAdapterUnavailable)
	}
	if _, ok := m.players[e.Identity]; !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrPlayerNotFound, e.Identity)
	}
	return &Conn{Identity: e.Identity, BusName: busNamePrefix + e.Identity}, nil
}

// EntryFor returns the Entry ListPlayers would report for identity.
func (m *Mock) EntryFor(identity string) Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := Entry{Identity: identity, BusName: busNamePrefix + identity, Status: models.StatusStopped}
	if p, ok := m.players[identity]; ok {
		e.Status = p.state.Status
	}
	return e
}

func (m *Mock) ReadState(_ context.Context, c *Conn) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c == nil {
		return State{}, models.ErrPlayerNotFound
	}
	if m.failRead {
		return State{}, fmt.Errorf("%w: mock read failure", models.ErrReadFailure)
	}
	p, ok := m.players[c.Identity]
	if !ok {
		return State{}, fmt.Errorf("%w: %q is gone", models.ErrReadFailure, c.Identity)
	}
	return copyState(p.state), nil
}

func (m *Mock) Send(_ context.Context, c *Conn, cmd models.Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c == nil {
		return models.ErrPlayerNotFound
	}
	if m.failSend {
		return fmt.Errorf("%w: mock send failure", models.ErrAdapterUnavailable)
	}
	p, ok := m.players[c.Identity]
	if !ok {
		return fmt.Errorf("%w: %q", models.ErrPlayerNotFound, c.Identity)
	}
	p.commands = append(p.commands, cmd)

	switch cmd.Kind {
	case models.CmdPlayPause:
		p.state.Status = p.state.Status.Toggled()
	case models.CmdNext:
		p.track++
	case models.CmdPrevious:
		if p.track > 0 {
			p.track--
		}
	case models.CmdSetVolume:
		v := models.ClampVolume(cmd.Volume)
		p.state.Volume = &v
	}
	return nil
}

func copyState(st State) State {
	out := st
	if st.Title != nil {
		out.Title = strPtr(*st.Title)
	}
	if st.Volume != nil {
		out.Volume = floatPtr(*st.Volume)
	}
	if st.Artists != nil {
		out.Artists = append([]string{}, st.Artists...)
	}
	return out
}

func strPtr(s string) *string      { return &s }
func floatPtr(f float64) *float64 { return &f }

// Ensure Mock implements Source
var _ Source = (*Mock)(nil)
