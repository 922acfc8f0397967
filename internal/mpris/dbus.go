package mpris

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/micro-nova/nowplaying/internal/models"
	"golang.org/x/time/rate"
)

const (
	defaultCallTimeout  = 2 * time.Second
	defaultCommandRate  = 20 // commands per second
	defaultCommandBurst = 5
)

// Options configures a DBusSource. Zero values select defaults.
type Options struct {
	Address      string        // bus address; "" uses SessionBusAddress()
	CallTimeout  time.Duration // bound on every D-Bus round trip
	CommandRate  float64       // transport commands per second
	CommandBurst int
}

// DBusSource is the Source backed by the session bus.
// A single connection is shared by all calls and re-dialled after the bus
// drops it; the mutex only guards the handle, never a call in flight.
type DBusSource struct {
	mu      sync.Mutex
	conn    *dbus.Conn
	address string
	timeout time.Duration
	limiter *rate.Limiter
}

// NewDBusSource creates a session-bus adapter. No connection is made until
// the first call.
func NewDBusSource(opts Options) *DBusSource {
	if opts.Address == "" {
		opts.Address = SessionBusAddress()
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	if opts.CommandRate <= 0 {
		opts.CommandRate = defaultCommandRate
	}
	if opts.CommandBurst <= 0 {
		opts.CommandBurst = defaultCommandBurst
	}
	return &DBusSource{
		address: opts.Address,
		timeout: opts.CallTimeout,
		limiter: rate.NewLimiter(rate.Limit(opts.CommandRate), opts.CommandBurst),
	}
}

// bus returns the shared connection, dialling a new one if needed.
func (s *DBusSource) bus() (*dbus.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		if s.conn.Connected() {
			return s.conn, nil
		}
		s.conn.Close()
		s.conn = nil
	}

	conn, err := dbus.Connect(s.address)
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %v", models.ErrAdapterUnavailable, s.address, err)
	}
	slog.Debug("mpris: connected to session bus", "address", s.address)
	s.conn = conn
	return conn, nil
}

// Close releases the shared connection.
func (s *DBusSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// call performs one method call bounded by the per-call timeout.
func (s *DBusSource) call(ctx context.Context, obj dbus.BusObject, method string, args ...interface{}) *dbus.Call {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return obj.CallWithContext(ctx, method, 0, args...)
}

// wrap classifies a call error: if the bus itself went away the failure is
// reported as ErrAdapterUnavailable, otherwise as kind.
func wrap(conn *dbus.Conn, kind error, op string, err error) error {
	if !conn.Connected() || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", models.ErrAdapterUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s: %v", kind, op, err)
}

// ListPlayers enumerates MPRIS bus names and reads each player's identity
// and playback status. Players that fail to answer are skipped.
func (s *DBusSource) ListPlayers(ctx context.Context) ([]Entry, error) {
	conn, err := s.bus()
	if err != nil {
		return nil, err
	}

	var names []string
	if err := s.call(ctx, conn.Object(dbusIface, dbusPath), methodListNames).Store(&names); err != nil {
		return nil, wrap(conn, models.ErrAdapterUnavailable, "list names", err)
	}
	sort.Strings(names)

	var entries []Entry
	for _, name := range names {
		if !strings.HasPrefix(name, busNamePrefix) {
			continue
		}
		obj := conn.Object(name, objectPath)

		identity := identityFromBusName(name)
		var idVar dbus.Variant
		if err := s.call(ctx, obj, methodGet, rootIface, "Identity").Store(&idVar); err == nil {
			if id := asString(idVar); id != "" {
				identity = id
			}
		}

		var statusVar dbus.Variant
		if err := s.call(ctx, obj, methodGet, playerIface, "PlaybackStatus").Store(&statusVar); err != nil {
			slog.Debug("mpris: skipping player", "bus_name", name, "err", err)
			continue
		}

		entries = append(entries, Entry{
			Identity: identity,
			BusName:  name,
			Status:   models.ParsePlaybackStatus(asString(statusVar)),
		})
	}
	return entries, nil
}

// Bind checks that e's bus name still has an owner. Only the bus daemon is
// asked, so a hung player cannot stall the call.
func (s *DBusSource) Bind(ctx context.Context, e Entry) (*Conn, error) {
	conn, err := s.bus()
	if err != nil {
		return nil, err
	}
	var owned bool
	if err := s.call(ctx, conn.Object(dbusIface, dbusPath), methodHasOwner, e.BusName).Store(&owned); err != nil {
		return nil, wrap(conn, models.ErrAdapterUnavailable, "name has owner", err)
	}
	if !owned {
		return nil, fmt.Errorf("%w: %q left the bus (%s)", models.ErrPlayerNotFound, e.Identity, e.BusName)
	}
	return &Conn{Identity: e.Identity, BusName: e.BusName}, nil
}

// ReadState fetches all Player properties in a single GetAll call.
func (s *DBusSource) ReadState(ctx context.Context, c *Conn) (State, error) {
	if c == nil {
		return State{}, models.ErrPlayerNotFound
	}
	conn, err := s.bus()
	if err != nil {
		return State{}, err
	}

	var props map[string]dbus.Variant
	if err := s.call(ctx, conn.Object(c.BusName, objectPath), methodGetAll, playerIface).Store(&props); err != nil {
		return State{}, wrap(conn, models.ErrReadFailure, "read "+c.Identity, err)
	}
	return stateFromProps(props), nil
}

// Send delivers cmd to the player, paced by the command limiter.
func (s *DBusSource) Send(ctx context.Context, c *Conn, cmd models.Command) error {
	if c == nil {
		return models.ErrPlayerNotFound
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mpris: rate limit wait: %w", err)
	}
	conn, err := s.bus()
	if err != nil {
		return err
	}
	obj := conn.Object(c.BusName, objectPath)

	var call *dbus.Call
	switch cmd.Kind {
	case models.CmdPlayPause:
		call = s.call(ctx, obj, methodPlayPause)
	case models.CmdNext:
		call = s.call(ctx, obj, methodNext)
	case models.CmdPrevious:
		call = s.call(ctx, obj, methodPrevious)
	case models.CmdSetVolume:
		call = s.call(ctx, obj, methodSet, playerIface, "Volume", dbus.MakeVariant(models.ClampVolume(cmd.Volume)))
	default:
		return fmt.Errorf("mpris: unknown command %q", cmd.Kind)
	}
	if call.Err != nil {
		return wrap(conn, models.ErrPlayerNotFound, cmd.String()+" to "+c.Identity, call.Err)
	}
	return nil
}

var _ Source = (*DBusSource)(nil)
