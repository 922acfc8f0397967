// Package mpris is the media-control adapter: it enumerates MPRIS players on
// the session bus, reads their state, and sends transport commands.
// The controller only depends on the Source interface; DBusSource talks to
// the real bus and Mock backs tests and --mock mode.
package mpris

import (
	"context"

	"github.com/micro-nova/nowplaying/internal/models"
)

// D-Bus names used by the adapter.
const (
	busNamePrefix = "org.mpris.MediaPlayer2."
	objectPath    = "/org/mpris/MediaPlayer2"
	rootIface     = "org.mpris.MediaPlayer2"
	playerIface   = "org.mpris.MediaPlayer2.Player"

	dbusIface       = "org.freedesktop.DBus"
	dbusPath        = "/org/freedesktop/DBus"
	propsIface      = "org.freedesktop.DBus.Properties"
	methodListNames = dbusIface + ".ListNames"
	methodHasOwner  = dbusIface + ".NameHasOwner"
	methodAddMatch  = dbusIface + ".AddMatch"
	methodGet       = propsIface + ".Get"
	methodGetAll    = propsIface + ".GetAll"
	methodSet       = propsIface + ".Set"

	methodPlayPause = playerIface + ".PlayPause"
	methodNext      = playerIface + ".Next"
	methodPrevious  = playerIface + ".Previous"
)

// Entry is one player instance found by ListPlayers. Several instances
// (browser tabs, VLC windows) may share an identity; BusName tells them apart.
type Entry struct {
	Identity string
	BusName  string
	Status   models.PlaybackStatus
}

// Playing reports whether the instance is playing.
func (e Entry) Playing() bool { return e.Status == models.StatusPlaying }

// Conn is a binding to a single player. It is a plain value; holding one
// does not keep any bus resource open.
type Conn struct {
	Identity string
	BusName  string
}

// State is the raw state of a player. Nil fields were absent on the bus;
// the snapshot builder decides what to show instead.
type State struct {
	Title   *string
	Artists []string // nil when the player reports no artist list
	Status  models.PlaybackStatus
	Volume  *float64
	ArtURL  string
}

// Source is the media-control capability consumed by the controller.
// Implementations must be safe for concurrent use.
type Source interface {
	// ListPlayers enumerates every player currently on the bus.
	ListPlayers(ctx context.Context) ([]Entry, error)

	// Bind connects to the instance e names, or returns
	// models.ErrPlayerNotFound if it has left the bus since it was listed.
	Bind(ctx context.Context, e Entry) (*Conn, error)

	// ReadState reads the whole player record in one step; partial reads
	// are reported as models.ErrReadFailure.
	ReadState(ctx context.Context, c *Conn) (State, error)

	// Send delivers a transport command to the player.
	Send(ctx context.Context, c *Conn, cmd models.Command) error
}
